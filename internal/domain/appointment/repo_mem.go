package appointment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/careslot/careslot/pkg/interval"
)

// RepoMem is the in-memory ledger. The mutex plus the slots map stand
// in for the database's partial unique index: every write that could
// claim a slot checks and updates the map inside the lock, so
// concurrent bookings for the same slot serialize here.
type RepoMem struct {
	mu           sync.RWMutex
	appointments map[uuid.UUID]*Appointment
	slots        map[string]uuid.UUID
}

func NewRepoMem() *RepoMem {
	return &RepoMem{
		appointments: make(map[uuid.UUID]*Appointment),
		slots:        make(map[string]uuid.UUID),
	}
}

func slotKey(doctorID uuid.UUID, date time.Time, t interval.TimeOfDay) string {
	return fmt.Sprintf("%s|%s|%d", doctorID, date.Format("2006-01-02"), t.Minutes())
}

func copyAppointment(a *Appointment) *Appointment {
	cp := *a
	return &cp
}

func (r *RepoMem) Create(ctx context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := slotKey(a.DoctorID, a.Date, a.StartTime)
	if _, taken := r.slots[key]; taken {
		return ErrDuplicateSlot
	}

	a.ID = uuid.New()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.appointments[a.ID] = copyAppointment(a)
	if a.Status != StatusCancelled {
		r.slots[key] = a.ID
	}
	return nil
}

func (r *RepoMem) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAppointment(a), nil
}

func (r *RepoMem) ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time, includeCancelled bool) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	day := date.Format("2006-01-02")
	var out []*Appointment
	for _, a := range r.appointments {
		if a.DoctorID != doctorID || a.Date.Format("2006-01-02") != day {
			continue
		}
		if !includeCancelled && a.Status == StatusCancelled {
			continue
		}
		out = append(out, copyAppointment(a))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (r *RepoMem) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.listBy(func(a *Appointment) bool { return a.DoctorID == doctorID }, limit, offset)
}

func (r *RepoMem) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.listBy(func(a *Appointment) bool { return a.PatientID == patientID }, limit, offset)
}

func (r *RepoMem) listBy(match func(*Appointment) bool, limit, offset int) ([]*Appointment, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*Appointment
	for _, a := range r.appointments {
		if match(a) {
			all = append(all, copyAppointment(a))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		return all[j].StartTime.Before(all[i].StartTime)
	})
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *RepoMem) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return ErrNotFound
	}

	key := slotKey(a.DoctorID, a.Date, a.StartTime)
	switch {
	case a.Status != StatusCancelled && status == StatusCancelled:
		delete(r.slots, key)
	case a.Status == StatusCancelled && status != StatusCancelled:
		if _, taken := r.slots[key]; taken {
			return ErrDuplicateSlot
		}
		r.slots[key] = id
	}

	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *RepoMem) Reschedule(ctx context.Context, id uuid.UUID, newDate time.Time, newTime interval.TimeOfDay) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return ErrNotFound
	}

	newKey := slotKey(a.DoctorID, newDate, newTime)
	if holder, taken := r.slots[newKey]; taken && holder != id {
		return ErrDuplicateSlot
	}
	if a.Status != StatusCancelled {
		delete(r.slots, slotKey(a.DoctorID, a.Date, a.StartTime))
		r.slots[newKey] = id
	}

	a.Date = newDate
	a.StartTime = newTime
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *RepoMem) CountByStatus(ctx context.Context, doctorID uuid.UUID) (map[Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[Status]int)
	for _, a := range r.appointments {
		if a.DoctorID == doctorID {
			out[a.Status]++
		}
	}
	return out, nil
}

func (r *RepoMem) ListUpcomingByDoctor(ctx context.Context, doctorID uuid.UUID, from time.Time, limit int) ([]*Appointment, error) {
	return r.listUpcoming(func(a *Appointment) bool { return a.DoctorID == doctorID }, from, limit)
}

func (r *RepoMem) ListUpcomingByPatient(ctx context.Context, patientID uuid.UUID, from time.Time, limit int) ([]*Appointment, error) {
	return r.listUpcoming(func(a *Appointment) bool { return a.PatientID == patientID }, from, limit)
}

func (r *RepoMem) listUpcoming(match func(*Appointment) bool, from time.Time, limit int) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Appointment
	for _, a := range r.appointments {
		if !match(a) || a.Status == StatusCancelled || a.Date.Before(from) {
			continue
		}
		out = append(out, copyAppointment(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// BookedTimes implements the availability resolver's ledger view.
func (r *RepoMem) BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]interval.TimeOfDay, error) {
	active, err := r.ListByDoctorDate(ctx, doctorID, date, false)
	if err != nil {
		return nil, err
	}
	out := make([]interval.TimeOfDay, 0, len(active))
	for _, a := range active {
		out = append(out, a.StartTime)
	}
	return out, nil
}
