package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careslot/careslot/pkg/interval"
)

// ErrSlotUnavailable is the single rejection error for booking: the
// caller cannot tell "never bookable" from "lost the race", and should
// re-fetch availability before retrying.
var ErrSlotUnavailable = errors.New("slot unavailable")

// SlotResolver is the availability resolver as seen from the booking
// side. Kept as a local interface to avoid a package cycle.
type SlotResolver interface {
	Resolve(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]interval.TimeOfDay, error)
}

type Service struct {
	repo     Repository
	resolver SlotResolver
}

func NewService(repo Repository, resolver SlotResolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// BookRequest carries everything needed to claim a slot.
type BookRequest struct {
	DoctorID        uuid.UUID
	PatientID       uuid.UUID
	Date            time.Time
	StartTime       interval.TimeOfDay
	DurationMinutes int
	Type            Type
	Notes           string
}

func (req *BookRequest) validate() error {
	if req.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if req.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if req.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = DefaultDurationMinutes
	}
	if req.DurationMinutes < 0 {
		return fmt.Errorf("duration_minutes must be positive, got %d", req.DurationMinutes)
	}
	if req.Type == "" {
		req.Type = TypeConsultation
	}
	if _, err := ParseType(string(req.Type)); err != nil {
		return err
	}
	return nil
}

// Book is a compare-and-commit: re-resolve availability, then write.
// The resolve pass fails fast with a clear error; the ledger's
// uniqueness constraint is the real serialization point, so a conflict
// on Create surfaces as the same ErrSlotUnavailable.
func (s *Service) Book(ctx context.Context, req *BookRequest) (*Appointment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	slots, err := s.resolver.Resolve(ctx, req.DoctorID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("resolving availability: %w", err)
	}
	if !slotPresent(slots, req.StartTime) {
		return nil, ErrSlotUnavailable
	}

	a := &Appointment{
		DoctorID:        req.DoctorID,
		PatientID:       req.PatientID,
		Date:            req.Date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Status:          StatusScheduled,
		Type:            req.Type,
		Notes:           req.Notes,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrDuplicateSlot) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}
	return a, nil
}

func slotPresent(slots []interval.TimeOfDay, t interval.TimeOfDay) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// Cancel frees the slot by status change alone; availability is always
// recomputed from the ledger, never cached. Cancelling an already
// cancelled appointment is a no-op success.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Status == StatusCancelled {
		return nil
	}
	return s.repo.UpdateStatus(ctx, id, StatusCancelled)
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !validStatuses[status] {
		return fmt.Errorf("invalid appointment status: %q", status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// Reschedule re-resolves availability for the target slot before
// moving the appointment, with the same conflict semantics as Book.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newDate time.Time, newTime interval.TimeOfDay) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// moving to the same slot is a no-op
	if a.Date.Equal(newDate) && a.StartTime == newTime {
		return a, nil
	}

	slots, err := s.resolver.Resolve(ctx, a.DoctorID, newDate)
	if err != nil {
		return nil, fmt.Errorf("resolving availability: %w", err)
	}
	if !slotPresent(slots, newTime) {
		return nil, ErrSlotUnavailable
	}

	if err := s.repo.Reschedule(ctx, id, newDate, newTime); err != nil {
		if errors.Is(err, ErrDuplicateSlot) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListForDay(ctx context.Context, doctorID uuid.UUID, date time.Time, includeCancelled bool) ([]*Appointment, error) {
	return s.repo.ListByDoctorDate(ctx, doctorID, date, includeCancelled)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// DefaultUpcomingLimit caps an upcoming-appointments query when the
// caller does not say how many it wants.
const DefaultUpcomingLimit = 10

// Stats returns the doctor's ledger counts grouped by status.
func (s *Service) Stats(ctx context.Context, doctorID uuid.UUID) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx, doctorID)
}

// UpcomingByDoctor lists the doctor's next non-cancelled appointments
// on or after from, soonest first.
func (s *Service) UpcomingByDoctor(ctx context.Context, doctorID uuid.UUID, from time.Time, limit int) ([]*Appointment, error) {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	return s.repo.ListUpcomingByDoctor(ctx, doctorID, from, limit)
}

// UpcomingByPatient is UpcomingByDoctor from the patient's side.
func (s *Service) UpcomingByPatient(ctx context.Context, patientID uuid.UUID, from time.Time, limit int) ([]*Appointment, error) {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	return s.repo.ListUpcomingByPatient(ctx, patientID, from, limit)
}
