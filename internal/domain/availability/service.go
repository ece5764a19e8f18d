package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careslot/careslot/pkg/interval"
)

type Service struct {
	templates TemplateRepository
	overrides OverrideRepository
	resolver  *Resolver
}

func NewService(templates TemplateRepository, overrides OverrideRepository, resolver *Resolver) *Service {
	return &Service{templates: templates, overrides: overrides, resolver: resolver}
}

// SetTemplate replaces the doctor's weekly template wholesale. Windows
// that do not divide evenly by the slot duration are accepted; the
// resolver truncates the trailing remainder.
func (s *Service) SetTemplate(ctx context.Context, t *WeeklyTemplate) error {
	if t.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if t.SlotDurationMinutes == 0 {
		t.SlotDurationMinutes = DefaultSlotDurationMinutes
	}
	if t.SlotDurationMinutes < 0 {
		return &interval.ValidationError{Field: "slot_duration_minutes", Msg: "must be positive"}
	}
	for day, win := range t.Days {
		if !win.Valid() {
			return &interval.ValidationError{
				Field: weekdayNames[day],
				Msg:   fmt.Sprintf("invalid window %s", win),
			}
		}
	}
	return s.templates.Put(ctx, t)
}

func (s *Service) GetTemplate(ctx context.Context, doctorID uuid.UUID) (*WeeklyTemplate, error) {
	return s.templates.Get(ctx, doctorID)
}

func (s *Service) DeleteTemplate(ctx context.Context, doctorID uuid.UUID) error {
	return s.templates.Delete(ctx, doctorID)
}

// UpsertOverride inserts or fully replaces the override for the date.
// Block windows outside the working hours are accepted and stored; they
// simply have no effect on slot generation.
func (s *Service) UpsertOverride(ctx context.Context, o *DailyOverride) error {
	if o.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if o.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if o.Kind != OverrideAvailable && o.Kind != OverrideUnavailable {
		return fmt.Errorf("invalid override kind: %q", o.Kind)
	}
	if o.CustomWindow != nil && !o.CustomWindow.Valid() {
		return &interval.ValidationError{Field: "custom_window", Msg: "start must precede end"}
	}
	for i, b := range o.Blocks {
		if !b.Window.Valid() {
			return &interval.ValidationError{
				Field: fmt.Sprintf("blocks[%d]", i),
				Msg:   "start must precede end",
			}
		}
		if _, err := ParseBlockReason(string(b.Reason)); err != nil {
			return err
		}
	}
	return s.overrides.Upsert(ctx, o)
}

// AddBlockTime appends a block to the date's override. When no override
// exists one is created implicitly as available with no custom window,
// meaning "template hours, minus this block".
func (s *Service) AddBlockTime(ctx context.Context, doctorID uuid.UUID, date time.Time, block BlockTime) (*DailyOverride, error) {
	if !block.Window.Valid() {
		return nil, &interval.ValidationError{Field: "window", Msg: "start must precede end"}
	}
	if _, err := ParseBlockReason(string(block.Reason)); err != nil {
		return nil, err
	}

	o, err := s.overrides.Get(ctx, doctorID, date)
	if errors.Is(err, ErrNotFound) {
		o = &DailyOverride{
			DoctorID: doctorID,
			Date:     date,
			Kind:     OverrideAvailable,
		}
	} else if err != nil {
		return nil, err
	}

	o.Blocks = append(o.Blocks, block)
	if err := s.overrides.Upsert(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) GetOverride(ctx context.Context, doctorID uuid.UUID, date time.Time) (*DailyOverride, error) {
	return s.overrides.Get(ctx, doctorID, date)
}

// DeleteOverride reverts the date to template-only behavior. Deleting
// an absent override is a no-op.
func (s *Service) DeleteOverride(ctx context.Context, doctorID uuid.UUID, date time.Time) error {
	return s.overrides.Delete(ctx, doctorID, date)
}

// Slots resolves the bookable slots for one date.
func (s *Service) Slots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]interval.TimeOfDay, error) {
	return s.resolver.Resolve(ctx, doctorID, date)
}

// SlotsRange resolves bookable slots for each date in [from, to].
func (s *Service) SlotsRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (map[string][]interval.TimeOfDay, error) {
	return s.resolver.ResolveRange(ctx, doctorID, from, to)
}

// DayView assembles the full availability picture for one date: the
// effective window, override state, blocks, and every generated slot
// annotated with its booking state.
func (s *Service) DayView(ctx context.Context, doctorID uuid.UUID, date time.Time) (*DayView, error) {
	view := &DayView{
		DoctorID: doctorID,
		Date:     date.Format(DateFormat),
		Weekday:  weekdayNames[date.Weekday()],
		Blocks:   []BlockTime{},
		Slots:    []DaySlot{},
	}

	tmpl, err := s.templates.Get(ctx, doctorID)
	if errors.Is(err, ErrNotFound) {
		return view, nil
	}
	if err != nil {
		return nil, err
	}

	var override *DailyOverride
	if o, err := s.overrides.Get(ctx, doctorID, date); err == nil {
		override = o
		view.HasOverride = true
		view.OverrideKind = o.Kind
		view.Blocks = append(view.Blocks, o.Blocks...)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	switch {
	case override != nil && override.Kind == OverrideUnavailable:
		return view, nil
	case override != nil && override.CustomWindow != nil:
		view.WorkingWindow = override.CustomWindow
	default:
		if win, ok := tmpl.Days[date.Weekday()]; ok {
			view.WorkingWindow = &win
		}
	}
	if view.WorkingWindow == nil {
		return view, nil
	}

	available, err := s.resolver.Resolve(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	open := map[int]bool{}
	for _, t := range available {
		open[t.Minutes()] = true
	}

	var blocks []interval.Interval
	if override != nil {
		for _, b := range override.Blocks {
			blocks = append(blocks, b.Window)
		}
	}
	for _, iv := range view.WorkingWindow.Subtract(blocks) {
		for m := iv.Start.Minutes(); m+tmpl.SlotDurationMinutes <= iv.End.Minutes(); m += tmpl.SlotDurationMinutes {
			start := interval.TimeOfDay{Hour: m / 60, Minute: m % 60}
			view.Slots = append(view.Slots, DaySlot{
				Start:  start,
				Booked: !open[m],
			})
		}
	}
	return view, nil
}
