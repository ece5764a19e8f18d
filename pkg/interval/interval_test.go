package interval

import (
	"encoding/json"
	"testing"
)

func tod(h, m int) TimeOfDay { return TimeOfDay{Hour: h, Minute: m} }

func TestNewTimeOfDay_RejectsOutOfRange(t *testing.T) {
	cases := []struct {
		hour, minute int
	}{
		{-1, 0},
		{24, 0},
		{0, -1},
		{0, 60},
	}
	for _, tc := range cases {
		if _, err := NewTimeOfDay(tc.hour, tc.minute); err == nil {
			t.Errorf("expected error for %02d:%02d", tc.hour, tc.minute)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in   string
		want TimeOfDay
	}{
		{"09:00", tod(9, 0)},
		{"09:30:00", tod(9, 30)},
		{"23:59", tod(23, 59)},
		{"0:05", tod(0, 5)},
	}
	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseTimeOfDay(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseTimeOfDay_Invalid(t *testing.T) {
	for _, in := range []string{"", "nine", "25:00", "09:75"} {
		if _, err := ParseTimeOfDay(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestTimeOfDay_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(tod(14, 5))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"14:05"` {
		t.Errorf("unexpected encoding %s", data)
	}
	var back TimeOfDay
	if err := json.Unmarshal([]byte(`"14:05:00"`), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != tod(14, 5) {
		t.Errorf("round trip mismatch: %v", back)
	}
}

func TestNew_RejectsInvertedAndEmpty(t *testing.T) {
	if _, err := New(tod(10, 0), tod(9, 0)); err == nil {
		t.Error("expected error for inverted interval")
	}
	if _, err := New(tod(10, 0), tod(10, 0)); err == nil {
		t.Error("expected error for zero-length interval")
	}
}

func TestContains_HalfOpen(t *testing.T) {
	iv := MustNew(tod(9, 0), tod(12, 0))
	if !iv.Contains(tod(9, 0)) {
		t.Error("start should be contained")
	}
	if !iv.Contains(tod(11, 59)) {
		t.Error("11:59 should be contained")
	}
	if iv.Contains(tod(12, 0)) {
		t.Error("end is exclusive")
	}
	if iv.Contains(tod(8, 59)) {
		t.Error("before start should not be contained")
	}
}

func TestOverlaps(t *testing.T) {
	base := MustNew(tod(9, 0), tod(12, 0))
	cases := []struct {
		other Interval
		want  bool
	}{
		{MustNew(tod(10, 0), tod(11, 0)), true},  // inside
		{MustNew(tod(8, 0), tod(9, 30)), true},   // left edge
		{MustNew(tod(11, 30), tod(13, 0)), true}, // right edge
		{MustNew(tod(8, 0), tod(9, 0)), false},   // abutting left, half-open
		{MustNew(tod(12, 0), tod(13, 0)), false}, // abutting right, half-open
		{MustNew(tod(13, 0), tod(14, 0)), false}, // disjoint
	}
	for _, tc := range cases {
		if got := base.Overlaps(tc.other); got != tc.want {
			t.Errorf("%v.Overlaps(%v) = %v, want %v", base, tc.other, got, tc.want)
		}
	}
}

func TestSubtract(t *testing.T) {
	base := MustNew(tod(9, 0), tod(12, 0))

	cases := []struct {
		name   string
		blocks []Interval
		want   []Interval
	}{
		{
			name:   "no blocks",
			blocks: nil,
			want:   []Interval{base},
		},
		{
			name:   "block inside splits",
			blocks: []Interval{MustNew(tod(10, 0), tod(10, 30))},
			want: []Interval{
				MustNew(tod(9, 0), tod(10, 0)),
				MustNew(tod(10, 30), tod(12, 0)),
			},
		},
		{
			name:   "block covers base",
			blocks: []Interval{MustNew(tod(8, 0), tod(13, 0))},
			want:   nil,
		},
		{
			name:   "block truncates left edge",
			blocks: []Interval{MustNew(tod(8, 0), tod(9, 45))},
			want:   []Interval{MustNew(tod(9, 45), tod(12, 0))},
		},
		{
			name:   "block truncates right edge",
			blocks: []Interval{MustNew(tod(11, 0), tod(13, 0))},
			want:   []Interval{MustNew(tod(9, 0), tod(11, 0))},
		},
		{
			name:   "disjoint block is a no-op",
			blocks: []Interval{MustNew(tod(13, 0), tod(14, 0))},
			want:   []Interval{base},
		},
		{
			name: "multiple blocks sorted output",
			blocks: []Interval{
				MustNew(tod(11, 0), tod(11, 30)),
				MustNew(tod(9, 30), tod(10, 0)),
			},
			want: []Interval{
				MustNew(tod(9, 0), tod(9, 30)),
				MustNew(tod(10, 0), tod(11, 0)),
				MustNew(tod(11, 30), tod(12, 0)),
			},
		},
		{
			name:   "invalid block ignored",
			blocks: []Interval{{Start: tod(11, 0), End: tod(10, 0)}},
			want:   []Interval{base},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := base.Subtract(tc.blocks)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("piece %d: got %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

// Every point of the result must lie in the base and in no block; every
// point of the base outside all blocks must be covered by the result.
func TestSubtract_Partition(t *testing.T) {
	base := MustNew(tod(8, 0), tod(17, 0))
	blocks := []Interval{
		MustNew(tod(12, 0), tod(13, 0)),
		MustNew(tod(9, 15), tod(9, 45)),
		MustNew(tod(16, 30), tod(18, 0)),
	}
	result := base.Subtract(blocks)

	for m := 0; m < 24*60; m++ {
		pt := TimeOfDay{Hour: m / 60, Minute: m % 60}
		inResult := false
		for _, piece := range result {
			if piece.Contains(pt) {
				inResult = true
				break
			}
		}
		inBlock := false
		for _, b := range blocks {
			if b.Contains(pt) {
				inBlock = true
				break
			}
		}
		want := base.Contains(pt) && !inBlock
		if inResult != want {
			t.Fatalf("point %s: in result = %v, want %v", pt, inResult, want)
		}
	}
}
