package appointment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/serenemind/clinic-api/internal/email"
	"github.com/serenemind/clinic-api/internal/model"
	"github.com/serenemind/clinic-api/internal/repository"
	"github.com/serenemind/clinic-api/pkg/clock"
	"github.com/serenemind/clinic-api/pkg/errors"
)

type Service struct {
	repo     repository.AppointmentRepository
	patients repository.PatientRepository
	emailSvc email.Service
	clock    clock.Clock
}

func NewService(repo repository.AppointmentRepository, patients repository.PatientRepository, emailSvc email.Service, clk clock.Clock) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		emailSvc: emailSvc,
		clock:    clk,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	patient, err := s.patients.Get(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	if err := s.validateSchedulable(req.Date, req.Time); err != nil {
		return nil, err
	}

	appointment := &model.Appointment{
		PatientID:       req.PatientID,
		Date:            req.Date,
		StartTime:       req.Time,
		DurationMinutes: req.DurationMinutes,
		AppointmentType: model.AppointmentType(req.AppointmentType),
		Note:            req.Note,
		Status:          model.AppointmentStatusScheduled,
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		return nil, err
	}

	appointment.PatientName = &patient.FullName
	appointment.PatientPhone = &patient.Phone

	s.sendConfirmation(ctx, patient, appointment)
	return appointment, nil
}

// validateSchedulable rejects dates before today. Time-of-day on the
// current date is not checked: same-day walk-ins are booked after
// their nominal start all the time.
func (s *Service) validateSchedulable(date, timeOfDay string) error {
	if _, err := model.MinuteOfDay(timeOfDay); err != nil {
		return errors.NewFieldValidation("time", "must be a valid 24-hour HH:MM time")
	}

	today := s.clock.Now().Format("2006-01-02")
	if date < today {
		return errors.NewFieldValidation("date", "cannot schedule an appointment in the past")
	}
	return nil
}

func (s *Service) sendConfirmation(ctx context.Context, patient *model.Patient, appointment *model.Appointment) {
	if patient.Email == "" {
		return
	}
	if err := s.emailSvc.SendAppointmentConfirmation(ctx, patient.Email, patient.FullName, appointment); err != nil {
		log.Warn().Err(err).
			Str("appointment_id", appointment.ID.String()).
			Msg("failed to send appointment confirmation")
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

// Update applies the provided fields and reschedules. The repository
// re-runs the overlap check against the merged record, excluding the
// appointment itself.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Date != nil {
		appointment.Date = *req.Date
	}
	if req.Time != nil {
		appointment.StartTime = *req.Time
	}
	if req.DurationMinutes != nil {
		appointment.DurationMinutes = *req.DurationMinutes
	}
	if req.AppointmentType != nil {
		appointment.AppointmentType = model.AppointmentType(*req.AppointmentType)
	}
	if req.Note != nil {
		appointment.Note = *req.Note
	}

	if _, err := appointment.StartMinute(); err != nil {
		return nil, errors.NewFieldValidation("time", "must be a valid 24-hour HH:MM time")
	}

	// Rescheduling to a new date re-runs the past-date check; editing
	// other fields of a historical appointment stays allowed.
	if req.Date != nil {
		if err := s.validateSchedulable(appointment.Date, appointment.StartTime); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Cancel(ctx, id); err != nil {
		return nil, err
	}
	appointment.Status = model.AppointmentStatusCancelled

	if appointment.PatientName != nil {
		if patient, perr := s.patients.Get(ctx, appointment.PatientID); perr == nil && patient.Email != "" {
			if err := s.emailSvc.SendAppointmentCancellation(ctx, patient.Email, patient.FullName, appointment); err != nil {
				log.Warn().Err(err).
					Str("appointment_id", appointment.ID.String()).
					Msg("failed to send cancellation notice")
			}
		}
	}
	return appointment, nil
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int, error) {
	filters.Normalize()
	return s.repo.List(ctx, filters)
}

func (s *Service) ListByDate(ctx context.Context, date string) ([]*model.Appointment, error) {
	if date == "" {
		date = s.clock.Now().Format("2006-01-02")
	}
	return s.repo.ListByDate(ctx, date)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	exists, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to check patient: %w", err)
	}
	if !exists {
		return nil, errors.NewNotFound("patient", nil)
	}
	return s.repo.ListByPatient(ctx, patientID)
}

// ListUpcoming returns all non-cancelled appointments from the current
// instant on, together with the instant itself so clients can render
// "now" consistently with the server's view.
func (s *Service) ListUpcoming(ctx context.Context) (*model.UpcomingAppointments, error) {
	now := s.clock.Now()
	appointments, err := s.repo.ListUpcoming(ctx, now.Format("2006-01-02"), now.Format("15:04"))
	if err != nil {
		return nil, err
	}
	return &model.UpcomingAppointments{
		CurrentDatetime: now,
		Appointments:    appointments,
	}, nil
}

// CurrentAppointment finds the patient's appointment underway right
// now: today's latest non-cancelled appointment that has already
// started. Nobody in the chair is a normal answer, not an error: the
// result is nil and the response carries null data.
func (s *Service) CurrentAppointment(ctx context.Context, patientID uuid.UUID) (*model.Appointment, error) {
	exists, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to check patient: %w", err)
	}
	if !exists {
		return nil, errors.NewNotFound("patient", nil)
	}

	now := s.clock.Now()
	return s.repo.CurrentForPatient(ctx, patientID, now.Format("2006-01-02"), now.Format("15:04"))
}
