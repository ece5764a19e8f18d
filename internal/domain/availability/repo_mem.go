package availability

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// In-memory repositories back the service when no database is
// configured. Values are copied on the way in and out so callers never
// share state with the store.

type templateRepoMem struct {
	mu        sync.RWMutex
	templates map[uuid.UUID]*WeeklyTemplate
}

func NewTemplateRepoMem() TemplateRepository {
	return &templateRepoMem{templates: make(map[uuid.UUID]*WeeklyTemplate)}
}

func copyTemplate(t *WeeklyTemplate) *WeeklyTemplate {
	cp := *t
	cp.Days = make(WeekMap, len(t.Days))
	for day, win := range t.Days {
		cp.Days[day] = win
	}
	return &cp
}

func (r *templateRepoMem) Put(ctx context.Context, t *WeeklyTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.templates[t.DoctorID]; ok {
		t.CreatedAt = existing.CreatedAt
	} else {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	r.templates[t.DoctorID] = copyTemplate(t)
	return nil
}

func (r *templateRepoMem) Get(ctx context.Context, doctorID uuid.UUID) (*WeeklyTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[doctorID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyTemplate(t), nil
}

func (r *templateRepoMem) Delete(ctx context.Context, doctorID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[doctorID]; !ok {
		return ErrNotFound
	}
	delete(r.templates, doctorID)
	return nil
}

type overrideKey struct {
	doctorID uuid.UUID
	date     string
}

type overrideRepoMem struct {
	mu        sync.RWMutex
	overrides map[overrideKey]*DailyOverride
}

func NewOverrideRepoMem() OverrideRepository {
	return &overrideRepoMem{overrides: make(map[overrideKey]*DailyOverride)}
}

func copyOverride(o *DailyOverride) *DailyOverride {
	cp := *o
	if o.CustomWindow != nil {
		w := *o.CustomWindow
		cp.CustomWindow = &w
	}
	cp.Blocks = append([]BlockTime(nil), o.Blocks...)
	return &cp
}

func (r *overrideRepoMem) key(doctorID uuid.UUID, date time.Time) overrideKey {
	return overrideKey{doctorID: doctorID, date: date.Format(DateFormat)}
}

func (r *overrideRepoMem) Upsert(ctx context.Context, o *DailyOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.key(o.DoctorID, o.Date)
	now := time.Now().UTC()
	if existing, ok := r.overrides[k]; ok {
		o.CreatedAt = existing.CreatedAt
	} else {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	r.overrides[k] = copyOverride(o)
	return nil
}

func (r *overrideRepoMem) Get(ctx context.Context, doctorID uuid.UUID, date time.Time) (*DailyOverride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.overrides[r.key(doctorID, date)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyOverride(o), nil
}

func (r *overrideRepoMem) GetRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*DailyOverride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*DailyOverride
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if o, ok := r.overrides[r.key(doctorID, d)]; ok {
			out = append(out, copyOverride(o))
		}
	}
	return out, nil
}

func (r *overrideRepoMem) Delete(ctx context.Context, doctorID uuid.UUID, date time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overrides, r.key(doctorID, date))
	return nil
}
