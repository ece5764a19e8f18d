// Package interval provides half-open time-of-day intervals and the set
// operations the availability resolver is built on. All comparisons are on
// minutes-since-midnight integers; there is no date component and no
// floating point.
package interval

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ValidationError reports a malformed time or interval at construction.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// NewTimeOfDay validates the hour/minute pair.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 {
		return TimeOfDay{}, &ValidationError{Field: "hour", Msg: fmt.Sprintf("must be 0-23, got %d", hour)}
	}
	if minute < 0 || minute > 59 {
		return TimeOfDay{}, &ValidationError{Field: "minute", Msg: fmt.Sprintf("must be 0-59, got %d", minute)}
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// Minutes returns the time as minutes since midnight.
func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

// Before reports whether t is strictly earlier than u.
func (t TimeOfDay) Before(u TimeOfDay) bool { return t.Minutes() < u.Minutes() }

// After reports whether t is strictly later than u.
func (t TimeOfDay) After(u TimeOfDay) bool { return t.Minutes() > u.Minutes() }

// Add returns t shifted forward by the given number of minutes. The result
// is not wrapped; callers compare against interval ends before using it.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	total := t.Minutes() + minutes
	return TimeOfDay{Hour: total / 60, Minute: total % 60}
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS"; seconds are discarded.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return TimeOfDay{}, &ValidationError{Field: "time", Msg: fmt.Sprintf("invalid format %q, want HH:MM", s)}
		}
	}
	return NewTimeOfDay(h, m)
}

// MarshalJSON encodes the time as an "HH:MM" string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes "HH:MM" or "HH:MM:SS" strings.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Interval is a half-open time range [Start, End). Start < End always holds
// for intervals built through New.
type Interval struct {
	Start TimeOfDay `json:"start_time"`
	End   TimeOfDay `json:"end_time"`
}

// New rejects zero-length and inverted intervals.
func New(start, end TimeOfDay) (Interval, error) {
	if start.Minutes() >= end.Minutes() {
		return Interval{}, &ValidationError{
			Field: "interval",
			Msg:   fmt.Sprintf("start %s must be before end %s", start, end),
		}
	}
	return Interval{Start: start, End: end}, nil
}

// MustNew is a construction helper for tests and literals known to be valid.
func MustNew(start, end TimeOfDay) Interval {
	iv, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return iv
}

// Valid reports whether the interval satisfies the Start < End invariant.
// Intervals decoded from storage bypass New and must be checked.
func (iv Interval) Valid() bool {
	return iv.Start.Minutes() < iv.End.Minutes()
}

// Contains reports whether t falls within [Start, End).
func (iv Interval) Contains(t TimeOfDay) bool {
	m := t.Minutes()
	return m >= iv.Start.Minutes() && m < iv.End.Minutes()
}

// Overlaps reports whether the two half-open intervals share any point.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Minutes() < other.End.Minutes() && other.Start.Minutes() < iv.End.Minutes()
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s-%s", iv.Start, iv.End)
}

// Subtract removes each blocking interval from iv and returns the remaining
// sub-intervals sorted by start time. A block fully inside iv splits it, a
// block covering iv empties the result, a block overlapping one edge
// truncates, and a disjoint block is a no-op. Invalid blocks (start >= end)
// are ignored rather than rejected.
func (iv Interval) Subtract(blocks []Interval) []Interval {
	remaining := []Interval{iv}
	for _, block := range blocks {
		if !block.Valid() {
			continue
		}
		var next []Interval
		for _, piece := range remaining {
			if !piece.Overlaps(block) {
				next = append(next, piece)
				continue
			}
			if piece.Start.Before(block.Start) {
				next = append(next, Interval{Start: piece.Start, End: block.Start})
			}
			if block.End.Before(piece.End) {
				next = append(next, Interval{Start: block.End, End: piece.End})
			}
		}
		remaining = next
	}
	sort.Slice(remaining, func(i, j int) bool {
		return remaining[i].Start.Minutes() < remaining[j].Start.Minutes()
	})
	return remaining
}
