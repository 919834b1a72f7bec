package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/serenemind/clinic-api/internal/model"
)

// All repository interfaces in one file.
type (
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		// CreateWithAppointment persists a patient and their first
		// appointment atomically. The appointment insert runs the same
		// conflict check as AppointmentRepository.Create.
		CreateWithAppointment(ctx context.Context, patient *model.Patient, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetSummary(ctx context.Context, id uuid.UUID) (*model.PatientSummary, error)
		Exists(ctx context.Context, id uuid.UUID) (bool, error)
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error)
		Search(ctx context.Context, query string, limit int) ([]*model.PatientSummary, error)
	}

	// AppointmentRepository owns the overlap invariant: Create and
	// Update re-check conflicts inside their transaction after locking
	// the date's rows, and surface constraint violations as
	// ConflictError.
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		Cancel(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int, error)
		ListByDate(ctx context.Context, date string) ([]*model.Appointment, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
		// ListUpcoming returns non-cancelled appointments at or after
		// the supplied date and time-of-day, ordered (date, time) asc.
		ListUpcoming(ctx context.Context, date, timeOfDay string) ([]*model.Appointment, error)
		// CurrentForPatient returns the patient's latest appointment on
		// date with start time <= timeOfDay, or nil when none matches.
		CurrentForPatient(ctx context.Context, patientID uuid.UUID, date, timeOfDay string) (*model.Appointment, error)
	}

	SessionRepository interface {
		Create(ctx context.Context, session *model.PatientSession) error
		Get(ctx context.Context, id uuid.UUID) (*model.PatientSession, error)
		Update(ctx context.Context, session *model.PatientSession) error
		// Complete persists the whole completion unit in one
		// transaction: session row, note, medicine, image rows and the
		// derived payment (nil when no charge).
		Complete(ctx context.Context, session *model.PatientSession, note *model.SessionNote, medicine *model.SessionMedicine, images []*model.MedicineImage, payment *model.Payment) error
		// Delete removes the session and its notes, medicines and
		// images in one transaction.
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.SessionFilters) ([]*model.PatientSession, int, error)
		GetNotes(ctx context.Context, sessionID uuid.UUID) ([]*model.SessionNote, error)
		GetMedicines(ctx context.Context, sessionID uuid.UUID) ([]*model.SessionMedicine, error)
		// ListWithNotes returns sessions joined with their first note
		// and a medicines-exist flag, newest first.
		ListWithNotes(ctx context.Context, filters *model.SessionFilters) ([]*model.SessionWithNote, error)
		CompletedSessions(ctx context.Context, filters *model.CompletedSessionFilters) ([]*model.SessionWithNote, int, error)
	}

	PaymentRepository interface {
		Create(ctx context.Context, payment *model.Payment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Payment, error)
		Update(ctx context.Context, payment *model.Payment) error
		// SoftDelete tombstones the row; it stays out of all queries.
		SoftDelete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.PaymentFilters) ([]*model.Payment, error)
		Summary(ctx context.Context, startDate, endDate string) (*model.PaymentSummary, error)
		Categories(ctx context.Context) (*model.PaymentCategories, error)
	}

	VoiceRecordingRepository interface {
		Create(ctx context.Context, recording *model.VoiceRecording) error
		Get(ctx context.Context, id uuid.UUID) (*model.VoiceRecording, error)
		List(ctx context.Context) ([]*model.VoiceRecording, error)
		Delete(ctx context.Context, id uuid.UUID) error
	}
)
