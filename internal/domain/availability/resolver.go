package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/careslot/careslot/pkg/interval"
)

// BookedSource yields the start times of non-cancelled appointments for
// a doctor on a date. The booking ledger implements it; keeping the
// dependency as an interface here avoids a package cycle.
type BookedSource interface {
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]interval.TimeOfDay, error)
}

// Resolver computes bookable slots from the weekly template, the date's
// override and the booking ledger. It is a pure read path: no mutation,
// no locking. Double-booking is prevented at commit time by the ledger's
// uniqueness constraint, not here.
type Resolver struct {
	templates   TemplateRepository
	overrides   OverrideRepository
	booked      BookedSource
	horizonDays int
}

func NewResolver(templates TemplateRepository, overrides OverrideRepository, booked BookedSource, horizonDays int) *Resolver {
	return &Resolver{
		templates:   templates,
		overrides:   overrides,
		booked:      booked,
		horizonDays: horizonDays,
	}
}

// Resolve returns the sorted bookable slot start times for one date.
//
// The step order matters: the override gate runs before block
// subtraction so an unavailable date can never be reopened by stale
// block data, and ledger exclusion runs after slot generation so a
// booking at a non-grid-aligned time still occupies the slot containing
// its start.
func (r *Resolver) Resolve(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]interval.TimeOfDay, error) {
	tmpl, err := r.templates.Get(ctx, doctorID)
	if errors.Is(err, ErrNotFound) {
		return []interval.TimeOfDay{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching template: %w", err)
	}

	var override *DailyOverride
	o, err := r.overrides.Get(ctx, doctorID, date)
	switch {
	case errors.Is(err, ErrNotFound):
		// no override, template applies
	case err != nil:
		return nil, fmt.Errorf("fetching override: %w", err)
	default:
		override = o
	}

	return r.resolveDay(ctx, tmpl, override, doctorID, date)
}

// resolveDay runs the slot pipeline for one date with the template and
// override already in hand.
func (r *Resolver) resolveDay(ctx context.Context, tmpl *WeeklyTemplate, override *DailyOverride, doctorID uuid.UUID, date time.Time) ([]interval.TimeOfDay, error) {
	var base []interval.Interval
	switch {
	case override != nil && override.Kind == OverrideUnavailable:
		return []interval.TimeOfDay{}, nil
	case override != nil && override.CustomWindow != nil:
		base = []interval.Interval{*override.CustomWindow}
	default:
		win, ok := tmpl.Days[date.Weekday()]
		if !ok {
			return []interval.TimeOfDay{}, nil
		}
		base = []interval.Interval{win}
	}

	var blocks []interval.Interval
	if override != nil {
		for _, b := range override.Blocks {
			blocks = append(blocks, b.Window)
		}
	}

	var open []interval.Interval
	for _, iv := range base {
		open = append(open, iv.Subtract(blocks)...)
	}

	slots := generateSlots(open, tmpl.SlotDurationMinutes)

	taken, err := r.booked.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("fetching booked times: %w", err)
	}
	slots = excludeBooked(slots, taken, tmpl.SlotDurationMinutes)

	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })
	return slots, nil
}

// generateSlots steps duration minutes through each open sub-interval,
// keeping a slot only when the full duration fits before the end. A
// trailing remainder shorter than one slot is dropped.
func generateSlots(open []interval.Interval, duration int) []interval.TimeOfDay {
	slots := []interval.TimeOfDay{}
	for _, iv := range open {
		for m := iv.Start.Minutes(); m+duration <= iv.End.Minutes(); m += duration {
			slots = append(slots, interval.TimeOfDay{Hour: m / 60, Minute: m % 60})
		}
	}
	return slots
}

// excludeBooked drops each slot with a booking at its exact start time.
// A booking at a non-grid-aligned time occupies the single slot whose
// [start, start+duration) window contains it.
func excludeBooked(slots, taken []interval.TimeOfDay, duration int) []interval.TimeOfDay {
	if len(taken) == 0 {
		return slots
	}
	out := slots[:0]
	for _, s := range slots {
		occupied := false
		for _, t := range taken {
			if t.Minutes() >= s.Minutes() && t.Minutes() < s.Minutes()+duration {
				occupied = true
				break
			}
		}
		if !occupied {
			out = append(out, s)
		}
	}
	return out
}

// ResolveRange runs the slot pipeline for each date in [from, to],
// keyed by canonical date string. The span is capped at the configured
// horizon. The template and all overrides in the span are fetched once
// up front rather than per date.
func (r *Resolver) ResolveRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (map[string][]interval.TimeOfDay, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("end date precedes start date")
	}
	if r.horizonDays > 0 {
		max := from.AddDate(0, 0, r.horizonDays-1)
		if to.After(max) {
			to = max
		}
	}

	out := make(map[string][]interval.TimeOfDay)

	tmpl, err := r.templates.Get(ctx, doctorID)
	if errors.Is(err, ErrNotFound) {
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			out[d.Format(DateFormat)] = []interval.TimeOfDay{}
		}
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching template: %w", err)
	}

	overrides, err := r.overrides.GetRange(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetching overrides: %w", err)
	}
	byDate := make(map[string]*DailyOverride, len(overrides))
	for _, o := range overrides {
		byDate[o.Date.Format(DateFormat)] = o
	}

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(DateFormat)
		slots, err := r.resolveDay(ctx, tmpl, byDate[key], doctorID, d)
		if err != nil {
			return nil, err
		}
		out[key] = slots
	}
	return out, nil
}
