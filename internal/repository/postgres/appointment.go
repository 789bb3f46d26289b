package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
)

const appointmentColumns = `
	id, citizen_id, citizen_email, officer_id, division_id,
	to_char(appointment_date, 'YYYY-MM-DD') AS appointment_date,
	start_time, end_time, appointment_type, reason, status, status_remarks,
	created_at, updated_at
`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

// Book serializes writers on (officer, date) with a transaction-scoped advisory
// lock, re-checks overlap against live appointments and inserts. The partial
// unique index on live slots catches anything that bypasses the lock.
func (r *appointmentRepository) Book(ctx context.Context, apt *model.Appointment) error {
	if apt.ID == uuid.Nil {
		apt.ID = uuid.New()
	}
	now := time.Now()
	apt.CreatedAt = now
	apt.UpdatedAt = now

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		lockKey := apt.OfficerID.String() + "|" + apt.Date
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
			return fmt.Errorf("failed to lock slot: %w", err)
		}

		var taken bool
		err := tx.GetContext(ctx, &taken, `
			SELECT EXISTS (
				SELECT 1 FROM appointments
				WHERE officer_id = $1
				AND appointment_date = $2
				AND start_time < $3
				AND end_time > $4
				AND status = ANY($5)
			)
		`, apt.OfficerID, apt.Date, apt.EndTime, apt.StartTime, liveStatuses())
		if err != nil {
			return fmt.Errorf("failed to check slot: %w", err)
		}
		if taken {
			return repository.ErrConflict
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO appointments (
				id, citizen_id, citizen_email, officer_id, division_id, appointment_date,
				start_time, end_time, appointment_type, reason, status, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
			)
		`,
			apt.ID,
			apt.CitizenID,
			apt.CitizenEmail,
			apt.OfficerID,
			apt.DivisionID,
			apt.Date,
			apt.StartTime,
			apt.EndTime,
			apt.AppointmentType,
			apt.Reason,
			apt.Status,
			apt.CreatedAt,
			apt.UpdatedAt,
		)
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return nil
	})
	return err
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var apt model.Appointment
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	if err := r.db.GetContext(ctx, &apt, query, id); err != nil {
		return nil, notFound(err)
	}
	return &apt, nil
}

func (r *appointmentRepository) ListLive(ctx context.Context, officerID uuid.UUID, date string) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE officer_id = $1 AND appointment_date = $2 AND status = ANY($3)
		ORDER BY start_time
	`
	var apts []*model.Appointment
	if err := r.db.SelectContext(ctx, &apts, query, officerID, date, liveStatuses()); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return apts, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter model.RequestFilter) ([]*model.Appointment, error) {
	clause, args := filterClause(filter, true)
	query := `SELECT ` + appointmentColumns + ` FROM appointments` + clause + ` ORDER BY created_at DESC`

	var apts []*model.Appointment
	if err := r.db.SelectContext(ctx, &apts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return apts, nil
}

func (r *appointmentRepository) GetSubject(ctx context.Context, id uuid.UUID) (*model.Subject, error) {
	apt, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	subject := apt.Subject()
	return &subject, nil
}

func (r *appointmentRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to model.Status, remarks *string) error {
	return r.compareAndSetStatus(ctx, "appointments", id, from, to, remarks)
}
