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

const sessionColumns = `
	s.id, s.patient_id, s.session_type, s.expected_duration, s.purpose,
	s.status, s.started_at, s.ended_at, s.created_at, s.updated_at
`

const noteColumns = `
	id, session_id, general_notes, physical_health_notes,
	mental_health_notes, clinical_notes, mood_rating, voice_notes_path,
	medicine_price, created_at, updated_at
`

// sessionNoteRow flattens a session joined with its first note for
// history and report listings.
type sessionNoteRow struct {
	model.PatientSession
	HasMedicines bool    `db:"has_medicines"`
	PatientName  *string `db:"patient_name"`

	NoteID              *uuid.UUID `db:"note_id"`
	GeneralNotes        *string    `db:"general_notes"`
	PhysicalHealthNotes *string    `db:"physical_health_notes"`
	MentalHealthNotes   *string    `db:"mental_health_notes"`
	ClinicalNotes       *string    `db:"clinical_notes"`
	MoodRating          *int       `db:"mood_rating"`
	VoiceNotesPath      *string    `db:"voice_notes_path"`
	MedicinePrice       *float64   `db:"medicine_price"`
}

func (row *sessionNoteRow) toSessionWithNote() *model.SessionWithNote {
	out := &model.SessionWithNote{
		PatientSession: row.PatientSession,
		HasMedicines:   row.HasMedicines,
		PatientName:    row.PatientName,
	}
	if row.NoteID != nil {
		note := &model.SessionNote{
			SessionID:           row.PatientSession.ID,
			GeneralNotes:        row.GeneralNotes,
			PhysicalHealthNotes: row.PhysicalHealthNotes,
			MentalHealthNotes:   row.MentalHealthNotes,
			ClinicalNotes:       row.ClinicalNotes,
			MoodRating:          row.MoodRating,
			VoiceNotesPath:      row.VoiceNotesPath,
		}
		note.ID = *row.NoteID
		if row.MedicinePrice != nil {
			note.MedicinePrice = *row.MedicinePrice
		}
		out.Note = note
	}
	return out
}

func (r *sessionRepository) Create(ctx context.Context, session *model.PatientSession) error {
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt

	query := `
		INSERT INTO patient_sessions (
			id, patient_id, session_type, expected_duration, purpose,
			status, started_at, ended_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.PatientID,
		session.SessionType,
		session.ExpectedDuration,
		session.Purpose,
		session.Status,
		session.StartedAt,
		session.EndedAt,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id uuid.UUID) (*model.PatientSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM patient_sessions s WHERE s.id = $1`
	var session model.PatientSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if isNoRows(err) {
			return nil, errors.NewNotFound("session", err)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) Update(ctx context.Context, session *model.PatientSession) error {
	session.UpdatedAt = time.Now()

	query := `
		UPDATE patient_sessions
		SET session_type = $1, expected_duration = $2, purpose = $3,
			status = $4, started_at = $5, ended_at = $6, updated_at = $7
		WHERE id = $8
	`
	result, err := r.db.ExecContext(ctx, query,
		session.SessionType,
		session.ExpectedDuration,
		session.Purpose,
		session.Status,
		session.StartedAt,
		session.EndedAt,
		session.UpdatedAt,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NewNotFound("session", nil)
	}
	return nil
}

func (r *sessionRepository) Complete(ctx context.Context, session *model.PatientSession, note *model.SessionNote, medicine *model.SessionMedicine, images []*model.MedicineImage, payment *model.Payment) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		now := time.Now()
		session.UpdatedAt = now

		result, err := tx.ExecContext(ctx, `
			UPDATE patient_sessions
			SET status = $1, ended_at = $2, updated_at = $3
			WHERE id = $4
		`, session.Status, session.EndedAt, session.UpdatedAt, session.ID)
		if err != nil {
			return fmt.Errorf("failed to complete session: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return errors.NewNotFound("session", nil)
		}

		note.ID = uuid.New()
		note.SessionID = session.ID
		note.CreatedAt = now
		note.UpdatedAt = now
		_, err = tx.ExecContext(ctx, `
			INSERT INTO session_notes (
				id, session_id, general_notes, physical_health_notes,
				mental_health_notes, clinical_notes, mood_rating,
				voice_notes_path, medicine_price, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, note.ID, note.SessionID, note.GeneralNotes, note.PhysicalHealthNotes,
			note.MentalHealthNotes, note.ClinicalNotes, note.MoodRating,
			note.VoiceNotesPath, note.MedicinePrice, note.CreatedAt, note.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create session notes: %w", err)
		}

		medicine.ID = uuid.New()
		medicine.SessionID = session.ID
		medicine.CreatedAt = now
		medicine.UpdatedAt = now
		_, err = tx.ExecContext(ctx, `
			INSERT INTO session_medicines (id, session_id, medicine_notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
		`, medicine.ID, medicine.SessionID, medicine.MedicineNotes, medicine.CreatedAt, medicine.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create session medicine: %w", err)
		}

		for _, image := range images {
			image.ID = uuid.New()
			image.SessionMedicineID = medicine.ID
			image.CreatedAt = now
			image.UpdatedAt = now
			_, err = tx.ExecContext(ctx, `
				INSERT INTO medicine_images (id, session_medicine_id, image_path, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5)
			`, image.ID, image.SessionMedicineID, image.ImagePath, image.CreatedAt, image.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to create medicine image: %w", err)
			}
		}

		if payment != nil {
			payment.ID = uuid.New()
			payment.CreatedAt = now
			payment.UpdatedAt = now
			_, err = tx.ExecContext(ctx, `
				INSERT INTO payments (
					id, patient_id, amount, description, category, date,
					payment_method, reference_number, status, type, notes,
					created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8, $9, $10, $11, $12, $13)
			`, payment.ID, payment.PatientID, payment.Amount, payment.Description,
				payment.Category, payment.Date, payment.PaymentMethod,
				payment.ReferenceNumber, payment.Status, payment.Type,
				payment.Notes, payment.CreatedAt, payment.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to create derived payment: %w", err)
			}
		}

		return nil
	})
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM medicine_images
			WHERE session_medicine_id IN (SELECT id FROM session_medicines WHERE session_id = $1)
		`, id)
		if err != nil {
			return fmt.Errorf("failed to delete medicine images: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM session_medicines WHERE session_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete session medicines: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM session_notes WHERE session_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete session notes: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM patient_sessions WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return errors.NewNotFound("session", nil)
		}
		return nil
	})
}

func (r *sessionRepository) List(ctx context.Context, filters *model.SessionFilters) ([]*model.PatientSession, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if filters.PatientID != nil {
		where += fmt.Sprintf(" AND s.patient_id = $%d", argCount)
		args = append(args, *filters.PatientID)
		argCount++
	}
	if filters.Status != "" {
		where += fmt.Sprintf(" AND s.status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if filters.StartDate != "" && filters.EndDate != "" {
		where += fmt.Sprintf(" AND s.started_at >= $%d::date AND s.started_at < $%d::date + interval '1 day'", argCount, argCount+1)
		args = append(args, filters.StartDate, filters.EndDate)
		argCount += 2
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM patient_sessions s`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	query := `SELECT ` + sessionColumns + ` FROM patient_sessions s` + where +
		fmt.Sprintf(" ORDER BY s.created_at DESC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filters.PageSize, filters.Offset())

	sessions := []*model.PatientSession{}
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, total, nil
}

func (r *sessionRepository) GetNotes(ctx context.Context, sessionID uuid.UUID) ([]*model.SessionNote, error) {
	query := `SELECT ` + noteColumns + ` FROM session_notes WHERE session_id = $1 ORDER BY created_at ASC`
	notes := []*model.SessionNote{}
	if err := r.db.SelectContext(ctx, &notes, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to get session notes: %w", err)
	}
	return notes, nil
}

func (r *sessionRepository) GetMedicines(ctx context.Context, sessionID uuid.UUID) ([]*model.SessionMedicine, error) {
	query := `
		SELECT id, session_id, medicine_notes, created_at, updated_at
		FROM session_medicines
		WHERE session_id = $1
		ORDER BY created_at ASC
	`
	medicines := []*model.SessionMedicine{}
	if err := r.db.SelectContext(ctx, &medicines, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to get session medicines: %w", err)
	}

	for _, medicine := range medicines {
		images := []*model.MedicineImage{}
		err := r.db.SelectContext(ctx, &images, `
			SELECT id, session_medicine_id, image_path, created_at, updated_at
			FROM medicine_images
			WHERE session_medicine_id = $1
			ORDER BY created_at ASC
		`, medicine.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get medicine images: %w", err)
		}
		medicine.Images = images
	}
	return medicines, nil
}

// firstNoteJoin attaches each session's oldest note and a
// medicines-exist flag.
const firstNoteJoin = `
	LEFT JOIN LATERAL (
		SELECT n.id AS note_id, n.general_notes, n.physical_health_notes,
			n.mental_health_notes, n.clinical_notes, n.mood_rating,
			n.voice_notes_path, n.medicine_price
		FROM session_notes n
		WHERE n.session_id = s.id
		ORDER BY n.created_at ASC
		LIMIT 1
	) note ON true
`

func (r *sessionRepository) ListWithNotes(ctx context.Context, filters *model.SessionFilters) ([]*model.SessionWithNote, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if filters.PatientID != nil {
		where += fmt.Sprintf(" AND s.patient_id = $%d", argCount)
		args = append(args, *filters.PatientID)
		argCount++
	}
	if filters.Status != "" {
		where += fmt.Sprintf(" AND s.status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if filters.StartDate != "" && filters.EndDate != "" {
		where += fmt.Sprintf(" AND s.started_at >= $%d::date AND s.started_at < $%d::date + interval '1 day'", argCount, argCount+1)
		args = append(args, filters.StartDate, filters.EndDate)
		argCount += 2
	}

	query := `
		SELECT ` + sessionColumns + `, note.*,
			EXISTS (SELECT 1 FROM session_medicines m WHERE m.session_id = s.id) AS has_medicines
		FROM patient_sessions s
	` + firstNoteJoin + where + " ORDER BY s.started_at DESC NULLS LAST"

	rows := []*sessionNoteRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list sessions with notes: %w", err)
	}

	out := make([]*model.SessionWithNote, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toSessionWithNote())
	}
	return out, nil
}

func (r *sessionRepository) CompletedSessions(ctx context.Context, filters *model.CompletedSessionFilters) ([]*model.SessionWithNote, int, error) {
	where := " WHERE s.status = 'completed'"
	args := []interface{}{}
	argCount := 1

	if filters.Search != "" {
		where += fmt.Sprintf(" AND p.full_name ILIKE $%d", argCount)
		args = append(args, "%"+filters.Search+"%")
		argCount++
	}
	if filters.SessionType != "" {
		where += fmt.Sprintf(" AND s.session_type = $%d", argCount)
		args = append(args, filters.SessionType)
		argCount++
	}

	switch filters.DateBucket {
	case "today":
		where += " AND s.started_at >= date_trunc('day', now()) AND s.started_at < date_trunc('day', now()) + interval '1 day'"
	case "this_week":
		where += " AND s.started_at >= date_trunc('week', now()) AND s.started_at < date_trunc('week', now()) + interval '1 week'"
	case "this_month":
		where += " AND s.started_at >= date_trunc('month', now()) AND s.started_at < date_trunc('month', now()) + interval '1 month'"
	case "custom":
		if filters.StartDate != "" && filters.EndDate != "" {
			where += fmt.Sprintf(" AND s.started_at >= $%d::date AND s.started_at < $%d::date + interval '1 day'", argCount, argCount+1)
			args = append(args, filters.StartDate, filters.EndDate)
			argCount += 2
		}
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM patient_sessions s JOIN patients p ON p.id = s.patient_id` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count completed sessions: %w", err)
	}

	query := `
		SELECT ` + sessionColumns + `, p.full_name AS patient_name, note.*,
			EXISTS (SELECT 1 FROM session_medicines m WHERE m.session_id = s.id) AS has_medicines
		FROM patient_sessions s
		JOIN patients p ON p.id = s.patient_id
	` + firstNoteJoin + where +
		fmt.Sprintf(" ORDER BY s.started_at DESC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filters.PageSize, filters.Offset())

	rows := []*sessionNoteRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list completed sessions: %w", err)
	}

	out := make([]*model.SessionWithNote, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toSessionWithNote())
	}
	return out, total, nil
}
