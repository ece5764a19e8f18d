package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careslot/careslot/pkg/interval"
)

// pg error code for unique_violation
const uniqueViolation = "23505"

// RepoPG is the postgres-backed ledger. The partial unique index on
// (doctor_id, appointment_date, start_minutes) WHERE status <>
// 'cancelled' is the serialization point for concurrent bookings.
type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

const apptCols = `id, doctor_id, patient_id, appointment_date, start_minutes,
	duration_minutes, status, appointment_type, notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var startMinutes int
	err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.Date, &startMinutes,
		&a.DurationMinutes, &a.Status, &a.Type, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.StartTime = interval.TimeOfDay{Hour: startMinutes / 60, Minute: startMinutes % 60}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *RepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, doctor_id, patient_id, appointment_date,
			start_minutes, duration_minutes, status, appointment_type, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.DoctorID, a.PatientID, a.Date, a.StartTime.Minutes(),
		a.DurationMinutes, a.Status, a.Type, a.Notes)
	if isUniqueViolation(err) {
		return ErrDuplicateSlot
	}
	return err
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
}

func (r *RepoPG) ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time, includeCancelled bool) ([]*Appointment, error) {
	q := `SELECT ` + apptCols + ` FROM appointments
		WHERE doctor_id = $1 AND appointment_date = $2`
	if !includeCancelled {
		q += ` AND status <> 'cancelled'`
	}
	q += ` ORDER BY start_minutes`

	rows, err := r.pool.Query(ctx, q, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]*Appointment, error) {
	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *RepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.listBy(ctx, "doctor_id", doctorID, limit, offset)
}

func (r *RepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.listBy(ctx, "patient_id", patientID, limit, offset)
}

func (r *RepoPG) listBy(ctx context.Context, column string, id uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE `+column+` = $1`, id).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+apptCols+` FROM appointments
		WHERE `+column+` = $1
		ORDER BY appointment_date DESC, start_minutes DESC
		LIMIT $2 OFFSET $3`, id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collectAppointments(rows)
	return items, total, err
}

func (r *RepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RepoPG) Reschedule(ctx context.Context, id uuid.UUID, newDate time.Time, newTime interval.TimeOfDay) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET appointment_date = $2, start_minutes = $3, updated_at = NOW()
		WHERE id = $1`, id, newDate, newTime.Minutes())
	if isUniqueViolation(err) {
		return ErrDuplicateSlot
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RepoPG) CountByStatus(ctx context.Context, doctorID uuid.UUID) (map[Status]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM appointments
		WHERE doctor_id = $1 GROUP BY status`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, rows.Err()
}

func (r *RepoPG) ListUpcomingByDoctor(ctx context.Context, doctorID uuid.UUID, from time.Time, limit int) ([]*Appointment, error) {
	return r.listUpcoming(ctx, "doctor_id", doctorID, from, limit)
}

func (r *RepoPG) ListUpcomingByPatient(ctx context.Context, patientID uuid.UUID, from time.Time, limit int) ([]*Appointment, error) {
	return r.listUpcoming(ctx, "patient_id", patientID, from, limit)
}

func (r *RepoPG) listUpcoming(ctx context.Context, column string, id uuid.UUID, from time.Time, limit int) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+apptCols+` FROM appointments
		WHERE `+column+` = $1 AND appointment_date >= $2 AND status <> 'cancelled'
		ORDER BY appointment_date, start_minutes
		LIMIT $3`, id, from, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// BookedTimes implements the availability resolver's ledger view: the
// start times of non-cancelled appointments for one doctor and date.
func (r *RepoPG) BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]interval.TimeOfDay, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_minutes FROM appointments
		WHERE doctor_id = $1 AND appointment_date = $2 AND status <> 'cancelled'
		ORDER BY start_minutes`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []interval.TimeOfDay
	for rows.Next() {
		var m int
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		out = append(out, interval.TimeOfDay{Hour: m / 60, Minute: m % 60})
	}
	return out, rows.Err()
}
