package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a template or override does not exist.
var ErrNotFound = errors.New("not found")

// TemplateRepository stores one weekly template per doctor.
type TemplateRepository interface {
	// Put inserts or wholesale-replaces the doctor's template.
	Put(ctx context.Context, t *WeeklyTemplate) error
	Get(ctx context.Context, doctorID uuid.UUID) (*WeeklyTemplate, error)
	Delete(ctx context.Context, doctorID uuid.UUID) error
}

// OverrideRepository stores at most one override per (doctor, date).
type OverrideRepository interface {
	Upsert(ctx context.Context, o *DailyOverride) error
	Get(ctx context.Context, doctorID uuid.UUID, date time.Time) (*DailyOverride, error)
	GetRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*DailyOverride, error)
	// Delete is an idempotent no-op when no override exists.
	Delete(ctx context.Context, doctorID uuid.UUID, date time.Time) error
}
