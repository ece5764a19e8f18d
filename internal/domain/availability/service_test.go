package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/careslot/careslot/pkg/interval"
)

func newServiceFixture(t *testing.T) (*Service, *resolverFixture) {
	t.Helper()
	f := newResolverFixture(t)
	return NewService(f.templates, f.overrides, f.resolver), f
}

func TestSetTemplate_RoundTrip(t *testing.T) {
	svc, f := newServiceFixture(t)
	in := &WeeklyTemplate{
		DoctorID: f.doctorID,
		Days: WeekMap{
			time.Monday: window(9, 0, 12, 0),
			time.Friday: window(13, 0, 17, 0),
		},
		SlotDurationMinutes: 30,
	}
	if err := svc.SetTemplate(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetTemplate(context.Background(), f.doctorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SlotDurationMinutes != 30 {
		t.Errorf("expected duration 30, got %d", got.SlotDurationMinutes)
	}
	if len(got.Days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(got.Days))
	}
	if got.Days[time.Monday] != window(9, 0, 12, 0) {
		t.Errorf("monday window mismatch: %v", got.Days[time.Monday])
	}
}

func TestSetTemplate_WholesaleReplace(t *testing.T) {
	svc, f := newServiceFixture(t)
	first := &WeeklyTemplate{
		DoctorID:            f.doctorID,
		Days:                WeekMap{time.Monday: window(9, 0, 12, 0), time.Tuesday: window(9, 0, 12, 0)},
		SlotDurationMinutes: 30,
	}
	if err := svc.SetTemplate(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := &WeeklyTemplate{
		DoctorID:            f.doctorID,
		Days:                WeekMap{time.Wednesday: window(10, 0, 14, 0)},
		SlotDurationMinutes: 60,
	}
	if err := svc.SetTemplate(context.Background(), second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetTemplate(context.Background(), f.doctorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Days) != 1 {
		t.Fatalf("expected old days to be replaced, got %v", got.Days)
	}
	if _, ok := got.Days[time.Monday]; ok {
		t.Error("expected monday to be gone after replace")
	}
}

func TestSetTemplate_DefaultsDuration(t *testing.T) {
	svc, f := newServiceFixture(t)
	in := &WeeklyTemplate{DoctorID: f.doctorID, Days: WeekMap{time.Monday: window(9, 0, 12, 0)}}
	if err := svc.SetTemplate(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.SlotDurationMinutes != DefaultSlotDurationMinutes {
		t.Errorf("expected default duration, got %d", in.SlotDurationMinutes)
	}
}

func TestSetTemplate_RejectsInvalid(t *testing.T) {
	svc, f := newServiceFixture(t)

	err := svc.SetTemplate(context.Background(), &WeeklyTemplate{
		DoctorID:            f.doctorID,
		Days:                WeekMap{time.Monday: {Start: tod(12, 0), End: tod(9, 0)}},
		SlotDurationMinutes: 30,
	})
	var verr *interval.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for inverted window, got %v", err)
	}

	err = svc.SetTemplate(context.Background(), &WeeklyTemplate{
		DoctorID:            f.doctorID,
		Days:                WeekMap{time.Monday: window(9, 0, 12, 0)},
		SlotDurationMinutes: -15,
	})
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for negative duration, got %v", err)
	}

	if err := svc.SetTemplate(context.Background(), &WeeklyTemplate{}); err == nil {
		t.Fatal("expected error for missing doctor id")
	}
}

func TestDeleteTemplate(t *testing.T) {
	svc, f := newServiceFixture(t)
	if err := svc.SetTemplate(context.Background(), &WeeklyTemplate{
		DoctorID:            f.doctorID,
		Days:                WeekMap{time.Monday: window(9, 0, 12, 0)},
		SlotDurationMinutes: 30,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeleteTemplate(context.Background(), f.doctorID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetTemplate(context.Background(), f.doctorID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.DeleteTemplate(context.Background(), f.doctorID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUpsertOverride_Validation(t *testing.T) {
	svc, f := newServiceFixture(t)
	date := mustDate(t, monday)

	err := svc.UpsertOverride(context.Background(), &DailyOverride{
		DoctorID: f.doctorID,
		Date:     date,
		Kind:     OverrideKind("maybe"),
	})
	if err == nil {
		t.Fatal("expected error for invalid kind")
	}

	bad := interval.Interval{Start: tod(15, 0), End: tod(10, 0)}
	err = svc.UpsertOverride(context.Background(), &DailyOverride{
		DoctorID:     f.doctorID,
		Date:         date,
		Kind:         OverrideAvailable,
		CustomWindow: &bad,
	})
	var verr *interval.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for inverted custom window, got %v", err)
	}

	err = svc.UpsertOverride(context.Background(), &DailyOverride{
		DoctorID: f.doctorID,
		Date:     date,
		Kind:     OverrideAvailable,
		Blocks:   []BlockTime{{Window: window(10, 0, 11, 0), Reason: "nap"}},
	})
	if err == nil {
		t.Fatal("expected error for unknown block reason")
	}
}

func TestAddBlockTime_ImplicitOverride(t *testing.T) {
	svc, f := newServiceFixture(t)
	date := mustDate(t, monday)

	o, err := svc.AddBlockTime(context.Background(), f.doctorID, date, BlockTime{
		Window: window(10, 0, 10, 30),
		Reason: ReasonLunch,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Kind != OverrideAvailable {
		t.Errorf("expected implicit override to be available, got %s", o.Kind)
	}
	if o.CustomWindow != nil {
		t.Error("expected implicit override to keep template hours")
	}
	if len(o.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(o.Blocks))
	}

	// second block appends to the same override
	o, err = svc.AddBlockTime(context.Background(), f.doctorID, date, BlockTime{
		Window: window(14, 0, 15, 0),
		Reason: ReasonMeeting,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(o.Blocks))
	}
}

func TestAddBlockTime_OutsideHoursAccepted(t *testing.T) {
	svc, f := newServiceFixture(t)
	if err := svc.SetTemplate(context.Background(), &WeeklyTemplate{
		DoctorID:            f.doctorID,
		Days:                WeekMap{time.Monday: window(9, 0, 12, 0)},
		SlotDurationMinutes: 30,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.AddBlockTime(context.Background(), f.doctorID, mustDate(t, monday), BlockTime{
		Window: window(20, 0, 21, 0),
		Reason: ReasonOther,
	})
	if err != nil {
		t.Fatalf("expected out-of-hours block to be accepted, got %v", err)
	}

	slots, err := svc.Slots(context.Background(), f.doctorID, mustDate(t, monday))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 6 {
		t.Errorf("expected out-of-hours block to have no effect, got %d slots", len(slots))
	}
}

func TestDeleteOverride_Idempotent(t *testing.T) {
	svc, f := newServiceFixture(t)
	date := mustDate(t, monday)

	if err := svc.DeleteOverride(context.Background(), f.doctorID, date); err != nil {
		t.Fatalf("expected delete of absent override to be a no-op, got %v", err)
	}

	if err := svc.UpsertOverride(context.Background(), &DailyOverride{
		DoctorID: f.doctorID,
		Date:     date,
		Kind:     OverrideUnavailable,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeleteOverride(context.Background(), f.doctorID, date); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetOverride(context.Background(), f.doctorID, date); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDeleteOverride_RevertsToTemplate(t *testing.T) {
	svc, f := newServiceFixture(t)
	date := mustDate(t, monday)
	if err := svc.SetTemplate(context.Background(), &WeeklyTemplate{
		DoctorID:            f.doctorID,
		Days:                WeekMap{time.Monday: window(9, 0, 10, 0)},
		SlotDurationMinutes: 30,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.UpsertOverride(context.Background(), &DailyOverride{
		DoctorID: f.doctorID,
		Date:     date,
		Kind:     OverrideUnavailable,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	slots, _ := svc.Slots(context.Background(), f.doctorID, date)
	if len(slots) != 0 {
		t.Fatalf("expected no slots under override, got %v", slots)
	}

	if err := svc.DeleteOverride(context.Background(), f.doctorID, date); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slots, _ = svc.Slots(context.Background(), f.doctorID, date)
	if len(slots) != 2 {
		t.Errorf("expected template slots restored, got %v", slots)
	}
}

func TestDayView(t *testing.T) {
	svc, f := newServiceFixture(t)
	date := mustDate(t, monday)
	if err := svc.SetTemplate(context.Background(), &WeeklyTemplate{
		DoctorID:            f.doctorID,
		Days:                WeekMap{time.Monday: window(9, 0, 11, 0)},
		SlotDurationMinutes: 30,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.booked.times[monday] = []interval.TimeOfDay{tod(9, 30)}

	view, err := svc.DayView(context.Background(), f.doctorID, date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Weekday != "monday" {
		t.Errorf("expected weekday monday, got %s", view.Weekday)
	}
	if view.WorkingWindow == nil || *view.WorkingWindow != window(9, 0, 11, 0) {
		t.Errorf("unexpected working window: %v", view.WorkingWindow)
	}
	if view.HasOverride {
		t.Error("expected no override")
	}
	if len(view.Slots) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(view.Slots))
	}
	for _, s := range view.Slots {
		booked := s.Start == tod(9, 30)
		if s.Booked != booked {
			t.Errorf("slot %s: expected booked=%v", s.Start, booked)
		}
	}
}

func TestDayView_NoTemplate(t *testing.T) {
	svc, f := newServiceFixture(t)
	view, err := svc.DayView(context.Background(), f.doctorID, mustDate(t, monday))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.WorkingWindow != nil || len(view.Slots) != 0 {
		t.Errorf("expected empty view without template, got %+v", view)
	}
}

func TestDayView_UnavailableOverride(t *testing.T) {
	svc, f := newServiceFixture(t)
	date := mustDate(t, monday)
	if err := svc.SetTemplate(context.Background(), &WeeklyTemplate{
		DoctorID:            f.doctorID,
		Days:                WeekMap{time.Monday: window(9, 0, 11, 0)},
		SlotDurationMinutes: 30,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.UpsertOverride(context.Background(), &DailyOverride{
		DoctorID: f.doctorID,
		Date:     date,
		Kind:     OverrideUnavailable,
		Reason:   "vacation",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := svc.DayView(context.Background(), f.doctorID, date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !view.HasOverride || view.OverrideKind != OverrideUnavailable {
		t.Errorf("expected unavailable override in view, got %+v", view)
	}
	if view.WorkingWindow != nil || len(view.Slots) != 0 {
		t.Errorf("expected closed day, got %+v", view)
	}
}
