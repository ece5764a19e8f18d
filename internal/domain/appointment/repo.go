package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/careslot/careslot/pkg/interval"
)

var (
	// ErrNotFound is returned when an appointment id does not exist.
	ErrNotFound = errors.New("appointment not found")
	// ErrDuplicateSlot is returned by Create and Reschedule when a
	// non-cancelled appointment already holds (doctor, date, time).
	// This is the authoritative conflict gate.
	ErrDuplicateSlot = errors.New("slot already booked")
)

// Repository is the booking ledger: dumb persistence plus the
// uniqueness constraint. Slot validity checking is the service's job.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time, includeCancelled bool) ([]*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	Reschedule(ctx context.Context, id uuid.UUID, newDate time.Time, newTime interval.TimeOfDay) error
	// CountByStatus groups the doctor's entire ledger by status.
	CountByStatus(ctx context.Context, doctorID uuid.UUID) (map[Status]int, error)
	// ListUpcoming* return non-cancelled appointments on or after the
	// given date, soonest first, capped at limit.
	ListUpcomingByDoctor(ctx context.Context, doctorID uuid.UUID, from time.Time, limit int) ([]*Appointment, error)
	ListUpcomingByPatient(ctx context.Context, patientID uuid.UUID, from time.Time, limit int) ([]*Appointment, error)
}
