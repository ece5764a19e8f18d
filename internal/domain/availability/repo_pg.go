package availability

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type templateRepoPG struct {
	pool *pgxpool.Pool
}

func NewTemplateRepoPG(pool *pgxpool.Pool) TemplateRepository {
	return &templateRepoPG{pool: pool}
}

func (r *templateRepoPG) Put(ctx context.Context, t *WeeklyTemplate) error {
	days, err := json.Marshal(t.Days)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO weekly_templates (doctor_id, days, slot_duration_minutes)
		VALUES ($1, $2, $3)
		ON CONFLICT (doctor_id) DO UPDATE
		SET days = EXCLUDED.days,
		    slot_duration_minutes = EXCLUDED.slot_duration_minutes,
		    updated_at = NOW()`,
		t.DoctorID, days, t.SlotDurationMinutes)
	return err
}

func (r *templateRepoPG) Get(ctx context.Context, doctorID uuid.UUID) (*WeeklyTemplate, error) {
	var t WeeklyTemplate
	var days []byte
	err := r.pool.QueryRow(ctx, `
		SELECT doctor_id, days, slot_duration_minutes, created_at, updated_at
		FROM weekly_templates WHERE doctor_id = $1`, doctorID).
		Scan(&t.DoctorID, &days, &t.SlotDurationMinutes, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(days, &t.Days); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *templateRepoPG) Delete(ctx context.Context, doctorID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM weekly_templates WHERE doctor_id = $1`, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type overrideRepoPG struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewOverrideRepoPG(pool *pgxpool.Pool, logger zerolog.Logger) OverrideRepository {
	return &overrideRepoPG{pool: pool, logger: logger}
}

func (r *overrideRepoPG) Upsert(ctx context.Context, o *DailyOverride) error {
	var window []byte
	if o.CustomWindow != nil {
		var err error
		window, err = json.Marshal(o.CustomWindow)
		if err != nil {
			return err
		}
	}
	blocks, err := json.Marshal(o.Blocks)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO daily_overrides (doctor_id, override_date, is_available, custom_window, blocks, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (doctor_id, override_date) DO UPDATE
		SET is_available = EXCLUDED.is_available,
		    custom_window = EXCLUDED.custom_window,
		    blocks = EXCLUDED.blocks,
		    reason = EXCLUDED.reason,
		    updated_at = NOW()`,
		o.DoctorID, o.Date, o.Kind == OverrideAvailable, window, blocks, o.Reason)
	return err
}

const overrideCols = `doctor_id, override_date, is_available, custom_window, blocks, reason, created_at, updated_at`

// scanOverride decodes a row. Corrupt JSONB degrades the date to
// unavailable with a logged warning instead of failing the resolver path.
func (r *overrideRepoPG) scanOverride(row pgx.Row) (*DailyOverride, error) {
	var o DailyOverride
	var isAvailable bool
	var window, blocks []byte
	err := row.Scan(&o.DoctorID, &o.Date, &isAvailable, &window, &blocks, &o.Reason, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Kind = OverrideUnavailable
	if isAvailable {
		o.Kind = OverrideAvailable
	}
	if len(window) > 0 {
		if err := json.Unmarshal(window, &o.CustomWindow); err != nil {
			r.warnCorrupt(&o, "custom_window", err)
			return &o, nil
		}
	}
	if len(blocks) > 0 {
		if err := json.Unmarshal(blocks, &o.Blocks); err != nil {
			r.warnCorrupt(&o, "blocks", err)
			return &o, nil
		}
	}
	return &o, nil
}

func (r *overrideRepoPG) warnCorrupt(o *DailyOverride, column string, err error) {
	r.logger.Warn().
		Err(err).
		Str("doctor_id", o.DoctorID.String()).
		Str("date", o.Date.Format(DateFormat)).
		Str("column", column).
		Msg("corrupt override data, treating date as unavailable")
	o.Kind = OverrideUnavailable
	o.CustomWindow = nil
	o.Blocks = nil
}

func (r *overrideRepoPG) Get(ctx context.Context, doctorID uuid.UUID, date time.Time) (*DailyOverride, error) {
	return r.scanOverride(r.pool.QueryRow(ctx, `
		SELECT `+overrideCols+` FROM daily_overrides
		WHERE doctor_id = $1 AND override_date = $2`, doctorID, date))
}

func (r *overrideRepoPG) GetRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*DailyOverride, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+overrideCols+` FROM daily_overrides
		WHERE doctor_id = $1 AND override_date BETWEEN $2 AND $3
		ORDER BY override_date`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*DailyOverride
	for rows.Next() {
		o, err := r.scanOverride(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *overrideRepoPG) Delete(ctx context.Context, doctorID uuid.UUID, date time.Time) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM daily_overrides WHERE doctor_id = $1 AND override_date = $2`, doctorID, date)
	return err
}
