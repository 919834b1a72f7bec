package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/serenemind/clinic-api/internal/email"
	"github.com/serenemind/clinic-api/internal/model"
	"github.com/serenemind/clinic-api/internal/repository"
	"github.com/serenemind/clinic-api/pkg/clock"
	"github.com/serenemind/clinic-api/pkg/errors"
)

const defaultSearchLimit = 10

type Service struct {
	repo     repository.PatientRepository
	emailSvc email.Service
	clock    clock.Clock
}

func NewService(repo repository.PatientRepository, emailSvc email.Service, clk clock.Clock) *Service {
	return &Service{
		repo:     repo,
		emailSvc: emailSvc,
		clock:    clk,
	}
}

// Register creates a patient and their first appointment as one unit:
// if the appointment slot is taken, neither record is persisted.
func (s *Service) Register(ctx context.Context, req *model.RegisterPatientRequest) (*model.Patient, *model.Appointment, error) {
	if _, err := model.MinuteOfDay(req.AppointmentTime); err != nil {
		return nil, nil, errors.NewFieldValidation("appointment_time", "must be a valid 24-hour HH:MM time")
	}
	today := s.clock.Now().Format("2006-01-02")
	if req.AppointmentDate < today {
		return nil, nil, errors.NewFieldValidation("appointment_date", "cannot schedule an appointment in the past")
	}

	patient := &model.Patient{
		FullName:          req.FullName,
		Age:               req.Age,
		Gender:            req.Gender,
		MaritalStatus:     req.MaritalStatus,
		Profession:        req.Profession,
		Phone:             req.Phone,
		Email:             req.Email,
		Address:           req.Address,
		EmergencyContact:  req.EmergencyContact,
		MedicalHistory:    req.MedicalHistory,
		CurrentMedication: req.CurrentMedication,
		Allergies:         req.Allergies,
	}
	appointment := &model.Appointment{
		Date:            req.AppointmentDate,
		StartTime:       req.AppointmentTime,
		DurationMinutes: req.DurationMinutes,
		AppointmentType: model.AppointmentType(req.AppointmentType),
		Note:            req.AppointmentNote,
	}

	if err := s.repo.CreateWithAppointment(ctx, patient, appointment); err != nil {
		return nil, nil, err
	}

	if patient.Email != "" {
		if err := s.emailSvc.SendAppointmentConfirmation(ctx, patient.Email, patient.FullName, appointment); err != nil {
			log.Warn().Err(err).
				Str("patient_id", patient.ID.String()).
				Msg("failed to send registration confirmation")
		}
	}
	return patient, appointment, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error) {
	filters.Normalize()
	return s.repo.List(ctx, filters)
}

func (s *Service) Search(ctx context.Context, req *model.PatientSearchRequest) ([]*model.PatientSummary, error) {
	limit := req.Limit
	if limit == 0 {
		limit = defaultSearchLimit
	}
	return s.repo.Search(ctx, req.Query, limit)
}
