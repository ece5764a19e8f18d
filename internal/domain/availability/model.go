package availability

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careslot/careslot/pkg/interval"
)

// WeekMap maps weekdays to the default working window for that day.
// Absence of a weekday means the doctor is unavailable that day.
// The JSON form uses lowercase day names as keys.
type WeekMap map[time.Weekday]interval.Interval

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
	time.Sunday:    "sunday",
}

var weekdayByName = func() map[string]time.Weekday {
	m := make(map[string]time.Weekday, len(weekdayNames))
	for d, n := range weekdayNames {
		m[n] = d
	}
	return m
}()

func (w WeekMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]interval.Interval, len(w))
	for day, win := range w {
		out[weekdayNames[day]] = win
	}
	return json.Marshal(out)
}

func (w *WeekMap) UnmarshalJSON(data []byte) error {
	var raw map[string]interval.Interval
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m := make(WeekMap, len(raw))
	for name, win := range raw {
		day, ok := weekdayByName[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("unknown weekday %q", name)
		}
		m[day] = win
	}
	*w = m
	return nil
}

// WeeklyTemplate is a doctor's recurring default schedule. It is
// replaced wholesale on update; per-date exceptions live in DailyOverride.
type WeeklyTemplate struct {
	DoctorID            uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Days                WeekMap   `db:"days" json:"days"`
	SlotDurationMinutes int       `db:"slot_duration_minutes" json:"slot_duration_minutes"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultSlotDurationMinutes applies when a template is submitted
// without an explicit granularity.
const DefaultSlotDurationMinutes = 30

// BlockReason categorizes a block-time entry.
type BlockReason string

const (
	ReasonLunch     BlockReason = "lunch"
	ReasonSurgery   BlockReason = "surgery"
	ReasonPersonal  BlockReason = "personal"
	ReasonMeeting   BlockReason = "meeting"
	ReasonEmergency BlockReason = "emergency"
	ReasonBreak     BlockReason = "break"
	ReasonTraining  BlockReason = "training"
	ReasonOther     BlockReason = "other"
)

// BlockReasons lists every valid reason in display order.
func BlockReasons() []BlockReason {
	return []BlockReason{
		ReasonLunch, ReasonSurgery, ReasonPersonal, ReasonMeeting,
		ReasonEmergency, ReasonBreak, ReasonTraining, ReasonOther,
	}
}

// ParseBlockReason validates wire input against the closed reason set.
func ParseBlockReason(s string) (BlockReason, error) {
	r := BlockReason(strings.ToLower(s))
	for _, valid := range BlockReasons() {
		if r == valid {
			return r, nil
		}
	}
	return "", fmt.Errorf("invalid block reason: %q", s)
}

// BlockTime carves a sub-interval out of a date's working window. It
// exists only inside a DailyOverride.
type BlockTime struct {
	Window      interval.Interval `json:"window"`
	Reason      BlockReason       `json:"reason"`
	Description string            `json:"description,omitempty"`
}

// OverrideKind distinguishes the two override states. A date with no
// override at all is represented by the absence of a row, never by a
// zero DailyOverride.
type OverrideKind string

const (
	// OverrideUnavailable shuts the date down entirely. CustomWindow
	// and Blocks are ignored for slot generation.
	OverrideUnavailable OverrideKind = "unavailable"
	// OverrideAvailable keeps the date open, optionally with custom
	// hours and block-time carve-outs layered on top.
	OverrideAvailable OverrideKind = "available"
)

// DailyOverride is a per-doctor, per-date exception to the weekly
// template, at most one per (doctor, date).
type DailyOverride struct {
	DoctorID     uuid.UUID          `db:"doctor_id" json:"doctor_id"`
	Date         time.Time          `db:"override_date" json:"date"`
	Kind         OverrideKind       `db:"kind" json:"kind"`
	CustomWindow *interval.Interval `db:"custom_window" json:"custom_window,omitempty"`
	Blocks       []BlockTime        `db:"blocks" json:"blocks,omitempty"`
	Reason       string             `db:"reason" json:"reason,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`
}

// DaySlot is one generated slot in a day view, annotated with its
// booking state.
type DaySlot struct {
	Start  interval.TimeOfDay `json:"start_time"`
	Booked bool               `json:"booked"`
}

// DayView is the full availability picture for one doctor on one date.
type DayView struct {
	DoctorID      uuid.UUID          `json:"doctor_id"`
	Date          string             `json:"date"`
	Weekday       string             `json:"weekday"`
	WorkingWindow *interval.Interval `json:"working_window,omitempty"`
	HasOverride   bool               `json:"has_override"`
	OverrideKind  OverrideKind       `json:"override_kind,omitempty"`
	Blocks        []BlockTime        `json:"blocks"`
	Slots         []DaySlot          `json:"slots"`
}

// DateFormat is the canonical wire and storage format for calendar dates.
const DateFormat = "2006-01-02"

// ParseDate parses a canonical calendar date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}
