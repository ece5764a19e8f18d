package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careslot/careslot/pkg/interval"
)

// Status tracks an appointment through its lifecycle. Cancelled
// appointments free their slot but the row is kept for audit.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

var validStatuses = map[Status]bool{
	StatusScheduled: true,
	StatusConfirmed: true,
	StatusCompleted: true,
	StatusCancelled: true,
	StatusNoShow:    true,
}

// ParseStatus validates wire input against the closed status set.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(s))
	if !validStatuses[st] {
		return "", fmt.Errorf("invalid appointment status: %q", s)
	}
	return st, nil
}

// DefaultDurationMinutes is used when a booking omits the duration.
const DefaultDurationMinutes = 30

// Type is the kind of visit being booked.
type Type string

const (
	TypeConsultation Type = "consultation"
	TypeFollowUp     Type = "follow_up"
)

// ParseType validates wire input against the closed type set.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(s))
	if t != TypeConsultation && t != TypeFollowUp {
		return "", fmt.Errorf("invalid appointment type: %q", s)
	}
	return t, nil
}

// Appointment maps to the appointments table.
type Appointment struct {
	ID              uuid.UUID          `db:"id" json:"id"`
	DoctorID        uuid.UUID          `db:"doctor_id" json:"doctor_id"`
	PatientID       uuid.UUID          `db:"patient_id" json:"patient_id"`
	Date            time.Time          `db:"appointment_date" json:"date"`
	StartTime       interval.TimeOfDay `db:"start_time" json:"start_time"`
	DurationMinutes int                `db:"duration_minutes" json:"duration_minutes"`
	Status          Status             `db:"status" json:"status"`
	Type            Type               `db:"appointment_type" json:"type"`
	Notes           string             `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at" json:"updated_at"`
}
