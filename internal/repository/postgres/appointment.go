package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/serenemind/clinic-api/internal/model"
	"github.com/serenemind/clinic-api/pkg/errors"
)

const appointmentColumns = `
	a.id, a.patient_id, to_char(a.date, 'YYYY-MM-DD') AS date,
	to_char(a.start_time, 'HH24:MI') AS start_time, a.duration_minutes,
	a.appointment_type, a.note, a.status, a.created_at, a.updated_at,
	p.full_name AS patient_name, p.phone AS patient_phone
`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt
	if appointment.Status == "" {
		appointment.Status = model.AppointmentStatusScheduled
	}

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return insertAppointmentTx(ctx, tx, appointment, nil)
	})
}

// insertAppointmentTx locks the date's non-cancelled rows, re-checks
// overlap and inserts. Shared with patient registration.
func insertAppointmentTx(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment, excludeID *uuid.UUID) error {
	if err := lockDate(ctx, tx, appointment.Date); err != nil {
		return err
	}

	conflict, err := hasConflictTx(ctx, tx, appointment, excludeID)
	if err != nil {
		return err
	}
	if conflict {
		return errors.NewConflict("there is already an appointment scheduled at this time")
	}

	query := `
		INSERT INTO appointments (
			id, patient_id, date, start_time, duration_minutes,
			appointment_type, note, status, created_at, updated_at
		) VALUES ($1, $2, $3::date, $4::time, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.Date,
		appointment.StartTime,
		appointment.DurationMinutes,
		appointment.AppointmentType,
		appointment.Note,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return errors.NewConflict("there is already an appointment scheduled at this time")
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func lockDate(ctx context.Context, tx *sqlx.Tx, date string) error {
	// Serializes concurrent bookings for one calendar date so the
	// overlap check below cannot race a parallel insert.
	var ids []uuid.UUID
	query := `SELECT id FROM appointments WHERE date = $1::date AND status <> 'cancelled' FOR UPDATE`
	if err := tx.SelectContext(ctx, &ids, query, date); err != nil {
		return fmt.Errorf("failed to lock appointments for %s: %w", date, err)
	}
	return nil
}

func hasConflictTx(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment, excludeID *uuid.UUID) (bool, error) {
	startMinute, err := appointment.StartMinute()
	if err != nil {
		return false, err
	}
	endMinute := startMinute + appointment.DurationMinutes

	// Half-open interval intersection: touching endpoints do not
	// conflict.
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE date = $1::date
			AND status <> 'cancelled'
			AND (EXTRACT(HOUR FROM start_time) * 60 + EXTRACT(MINUTE FROM start_time))::int < $3
			AND (EXTRACT(HOUR FROM start_time) * 60 + EXTRACT(MINUTE FROM start_time))::int + duration_minutes > $2
	`
	args := []interface{}{appointment.Date, startMinute, endMinute}

	if excludeID != nil {
		query += " AND id <> $4"
		args = append(args, *excludeID)
	}
	query += ")"

	var conflict bool
	if err := tx.GetContext(ctx, &conflict, query, args...); err != nil {
		return false, fmt.Errorf("failed to check conflicts: %w", err)
	}
	return conflict, nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.id = $1
	`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		if isNoRows(err) {
			return nil, errors.NewNotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	appointment.UpdatedAt = time.Now()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockDate(ctx, tx, appointment.Date); err != nil {
			return err
		}

		conflict, err := hasConflictTx(ctx, tx, appointment, &appointment.ID)
		if err != nil {
			return err
		}
		if conflict {
			return errors.NewConflict("there is already another appointment scheduled at this time")
		}

		query := `
			UPDATE appointments
			SET patient_id = $1, date = $2::date, start_time = $3::time,
				duration_minutes = $4, appointment_type = $5, note = $6,
				status = $7, updated_at = $8
			WHERE id = $9
		`
		result, err := tx.ExecContext(ctx, query,
			appointment.PatientID,
			appointment.Date,
			appointment.StartTime,
			appointment.DurationMinutes,
			appointment.AppointmentType,
			appointment.Note,
			appointment.Status,
			appointment.UpdatedAt,
			appointment.ID,
		)
		if err != nil {
			if isConstraintViolation(err) {
				return errors.NewConflict("there is already another appointment scheduled at this time")
			}
			return fmt.Errorf("failed to update appointment: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return errors.NewNotFound("appointment", nil)
		}
		return nil
	})
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NewNotFound("appointment", nil)
	}
	return nil
}

func (r *appointmentRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE appointments SET status = 'cancelled', updated_at = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NewNotFound("appointment", nil)
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if filters.PatientID != nil {
		where += fmt.Sprintf(" AND a.patient_id = $%d", argCount)
		args = append(args, *filters.PatientID)
		argCount++
	}
	if filters.Date != "" {
		where += fmt.Sprintf(" AND a.date = $%d::date", argCount)
		args = append(args, filters.Date)
		argCount++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM appointments a` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
	` + where + fmt.Sprintf(" ORDER BY a.date ASC, a.start_time ASC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filters.PageSize, filters.Offset())

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, total, nil
}

func (r *appointmentRepository) ListByDate(ctx context.Context, date string) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.date = $1::date
		ORDER BY a.start_time ASC
	`
	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, date); err != nil {
		return nil, fmt.Errorf("failed to list appointments by date: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.patient_id = $1
		ORDER BY a.date DESC, a.start_time DESC
	`
	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list patient appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListUpcoming(ctx context.Context, date, timeOfDay string) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.status <> 'cancelled'
		AND (a.date > $1::date OR (a.date = $1::date AND a.start_time >= $2::time))
		ORDER BY a.date ASC, a.start_time ASC
	`
	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, date, timeOfDay); err != nil {
		return nil, fmt.Errorf("failed to list upcoming appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) CurrentForPatient(ctx context.Context, patientID uuid.UUID, date, timeOfDay string) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.patient_id = $1
		AND a.status <> 'cancelled'
		AND a.date = $2::date
		AND a.start_time <= $3::time
		ORDER BY a.start_time DESC
		LIMIT 1
	`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, patientID, date, timeOfDay); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get current appointment: %w", err)
	}
	return &appointment, nil
}
