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

const patientColumns = `
	id, full_name, age, gender, marital_status, profession, phone, email,
	address, emergency_contact, medical_history, current_medication,
	allergies, created_at, updated_at
`

// Sortable patient columns; anything else falls back to created_at.
var patientSortColumns = map[string]bool{
	"full_name":  true,
	"age":        true,
	"created_at": true,
	"updated_at": true,
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return insertPatientTx(ctx, tx, patient)
	})
}

func insertPatientTx(ctx context.Context, tx *sqlx.Tx, patient *model.Patient) error {
	patient.ID = uuid.New()
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = patient.CreatedAt

	query := `
		INSERT INTO patients (
			id, full_name, age, gender, marital_status, profession, phone,
			email, address, emergency_contact, medical_history,
			current_medication, allergies, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := tx.ExecContext(ctx, query,
		patient.ID,
		patient.FullName,
		patient.Age,
		patient.Gender,
		patient.MaritalStatus,
		patient.Profession,
		patient.Phone,
		patient.Email,
		patient.Address,
		patient.EmergencyContact,
		patient.MedicalHistory,
		patient.CurrentMedication,
		patient.Allergies,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return errors.NewConflict("a patient with this email already exists")
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) CreateWithAppointment(ctx context.Context, patient *model.Patient, appointment *model.Appointment) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := insertPatientTx(ctx, tx, patient); err != nil {
			return err
		}

		appointment.ID = uuid.New()
		appointment.PatientID = patient.ID
		appointment.Status = model.AppointmentStatusScheduled
		appointment.CreatedAt = time.Now()
		appointment.UpdatedAt = appointment.CreatedAt
		return insertAppointmentTx(ctx, tx, appointment, nil)
	})
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		if isNoRows(err) {
			return nil, errors.NewNotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) GetSummary(ctx context.Context, id uuid.UUID) (*model.PatientSummary, error) {
	query := `SELECT id, full_name, age, gender, phone, email FROM patients WHERE id = $1`
	var summary model.PatientSummary
	if err := r.db.GetContext(ctx, &summary, query, id); err != nil {
		if isNoRows(err) {
			return nil, errors.NewNotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient summary: %w", err)
	}
	return &summary, nil
}

func (r *patientRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("failed to check patient existence: %w", err)
	}
	return exists, nil
}

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM patients`); err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	sortBy := filters.SortBy
	if !patientSortColumns[sortBy] {
		sortBy = "created_at"
	}
	sortOrder := "DESC"
	if filters.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	query := fmt.Sprintf(
		`SELECT `+patientColumns+` FROM patients ORDER BY %s %s LIMIT $1 OFFSET $2`,
		sortBy, sortOrder,
	)
	patients := []*model.Patient{}
	if err := r.db.SelectContext(ctx, &patients, query, filters.PageSize, filters.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, total, nil
}

func (r *patientRepository) Search(ctx context.Context, search string, limit int) ([]*model.PatientSummary, error) {
	query := `
		SELECT id, full_name, age, gender, phone, email
		FROM patients
		WHERE full_name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1
		ORDER BY full_name ASC
		LIMIT $2
	`
	patients := []*model.PatientSummary{}
	if err := r.db.SelectContext(ctx, &patients, query, "%"+search+"%", limit); err != nil {
		return nil, fmt.Errorf("failed to search patients: %w", err)
	}
	return patients, nil
}
