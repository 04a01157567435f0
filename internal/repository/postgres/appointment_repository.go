package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/clinic-bookings/internal/domain"
	"github.com/diagnosis/clinic-bookings/internal/repository"
)

type appointmentRepository struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepository(pool *pgxpool.Pool) repository.AppointmentRepository {
	return &appointmentRepository{pool: pool}
}

const apptCols = `id::text, user_id::text, full_name, email, phone, age, gender, service,
	appt_date, appt_time, doctor_name, reason, notes, diagnosis, status, created_at, updated_at`

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var (
		a      domain.Appointment
		day    time.Time
		gender string
		status string
	)
	err := row.Scan(&a.ID, &a.UserID, &a.FullName, &a.Email, &a.Phone, &a.Age, &gender, &a.Service,
		&day, &a.Time, &a.DoctorName, &a.Reason, &a.Notes, &a.Diagnosis, &status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Date = day.Format(domain.DateLayout)
	a.Gender = domain.Gender(gender)
	a.Status = domain.AppointmentStatus(status)
	return &a, nil
}

func (r *appointmentRepository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	uid, err := uuid.Parse(a.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", a.UserID, err)
	}

	const q = `
		INSERT INTO appointments (user_id, full_name, email, phone, age, gender, service,
			appt_date, appt_time, doctor_name, reason, notes, diagnosis, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::date, $9, $10, $11, $12, $13, $14)
		RETURNING ` + apptCols

	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	out, err := scanAppointment(r.pool.QueryRow(ctx, q, uid, a.FullName, a.Email, a.Phone, a.Age, string(a.Gender),
		a.Service, a.Date, a.Time, a.DoctorName, a.Reason, a.Notes, a.Diagnosis, string(a.Status)))
	return out, mapError(err)
}

func (r *appointmentRepository) FindByID(ctx context.Context, id string) (*domain.Appointment, error) {
	aid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	const q = `SELECT ` + apptCols + ` FROM appointments WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	return scanAppointment(r.pool.QueryRow(ctx, q, aid))
}

func (r *appointmentRepository) FindActiveSlot(ctx context.Context, doctorName, date, tm string) (*domain.Appointment, error) {
	const q = `SELECT ` + apptCols + ` FROM appointments
		WHERE lower(doctor_name) = lower($1) AND appt_date = $2::date AND appt_time = $3 AND status <> 'cancelled'
		LIMIT 1`
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	return scanAppointment(r.pool.QueryRow(ctx, q, doctorName, date, tm))
}

func (r *appointmentRepository) List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Doctor != "" {
		args = append(args, filter.Doctor)
		where = append(where, fmt.Sprintf("lower(doctor_name) = lower($%d)", len(args)))
	}

	q := `SELECT ` + apptCols + ` FROM appointments`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY appt_date DESC, appt_time DESC, created_at DESC`

	return r.query(ctx, q, args...)
}

func (r *appointmentRepository) ListByUser(ctx context.Context, userID string) ([]domain.Appointment, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return []domain.Appointment{}, nil
	}
	const q = `SELECT ` + apptCols + ` FROM appointments WHERE user_id = $1
		ORDER BY appt_date DESC, appt_time DESC, created_at DESC`
	return r.query(ctx, q, uid)
}

func (r *appointmentRepository) query(ctx context.Context, q string, args ...any) ([]domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *appointmentRepository) Update(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	aid, err := uuid.Parse(a.ID)
	if err != nil {
		return nil, nil
	}

	const q = `
		UPDATE appointments
		SET status = $2,
			notes = $3,
			diagnosis = $4,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + apptCols

	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	out, err := scanAppointment(r.pool.QueryRow(ctx, q, aid, string(a.Status), a.Notes, a.Diagnosis))
	return out, mapError(err)
}

func (r *appointmentRepository) Delete(ctx context.Context, id string) error {
	aid, err := uuid.Parse(id)
	if err != nil {
		return repository.ErrNotFound
	}

	const q = `DELETE FROM appointments WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, aid)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// NewStore wraps a pool in a repository.Store. Closing the store closes the pool.
func NewStore(pool *pgxpool.Pool) *repository.Store {
	return &repository.Store{
		Users:        NewUserRepository(pool),
		Appointments: NewAppointmentRepository(pool),
		Close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}
}
