package appointment

import "testing"

func TestParseStatus(t *testing.T) {
	for _, s := range []Status{StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow} {
		got, err := ParseStatus(string(s))
		if err != nil {
			t.Errorf("status %s: unexpected error: %v", s, err)
		}
		if got != s {
			t.Errorf("status %s: got %s", s, got)
		}
	}

	if got, err := ParseStatus("Confirmed"); err != nil || got != StatusConfirmed {
		t.Errorf("expected case-insensitive parse, got %s, %v", got, err)
	}
	if _, err := ParseStatus("tentative"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestParseType(t *testing.T) {
	if got, err := ParseType("consultation"); err != nil || got != TypeConsultation {
		t.Errorf("got %s, %v", got, err)
	}
	if got, err := ParseType("FOLLOW_UP"); err != nil || got != TypeFollowUp {
		t.Errorf("expected case-insensitive parse, got %s, %v", got, err)
	}
	if _, err := ParseType("house_call"); err == nil {
		t.Error("expected error for unknown type")
	}
}
