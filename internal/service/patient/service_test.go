package patient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serenemind/clinic-api/internal/config"
	"github.com/serenemind/clinic-api/internal/email"
	"github.com/serenemind/clinic-api/internal/model"
	"github.com/serenemind/clinic-api/pkg/clock"
	"github.com/serenemind/clinic-api/pkg/errors"
)

type fakePatientRepo struct {
	patients     map[uuid.UUID]*model.Patient
	appointments []*model.Appointment
	conflict     bool
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
}

func (f *fakePatientRepo) Create(_ context.Context, patient *model.Patient) error {
	patient.ID = uuid.New()
	f.patients[patient.ID] = patient
	return nil
}

func (f *fakePatientRepo) CreateWithAppointment(_ context.Context, patient *model.Patient, appointment *model.Appointment) error {
	if f.conflict {
		return errors.NewConflict("there is already an appointment scheduled at this time")
	}
	patient.ID = uuid.New()
	appointment.ID = uuid.New()
	appointment.PatientID = patient.ID
	appointment.Status = model.AppointmentStatusScheduled
	f.patients[patient.ID] = patient
	f.appointments = append(f.appointments, appointment)
	return nil
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, ok := f.patients[id]
	if !ok {
		return nil, errors.NewNotFound("patient", nil)
	}
	return patient, nil
}

func (f *fakePatientRepo) GetSummary(_ context.Context, id uuid.UUID) (*model.PatientSummary, error) {
	patient, ok := f.patients[id]
	if !ok {
		return nil, errors.NewNotFound("patient", nil)
	}
	return &model.PatientSummary{ID: patient.ID, FullName: patient.FullName}, nil
}

func (f *fakePatientRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := f.patients[id]
	return ok, nil
}

func (f *fakePatientRepo) List(_ context.Context, _ *model.PatientFilters) ([]*model.Patient, int, error) {
	out := make([]*model.Patient, 0, len(f.patients))
	for _, patient := range f.patients {
		out = append(out, patient)
	}
	return out, len(out), nil
}

func (f *fakePatientRepo) Search(_ context.Context, _ string, _ int) ([]*model.PatientSummary, error) {
	return nil, nil
}

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func registerRequest() *model.RegisterPatientRequest {
	return &model.RegisterPatientRequest{
		FullName:         "Meera Iyer",
		Age:              29,
		Gender:           "female",
		Phone:            "5550123",
		Email:            "meera@example.com",
		Address:          "12 Lake Road",
		EmergencyContact: "5550199",
		AppointmentDate:  "2025-03-12",
		AppointmentTime:  "11:00",
		AppointmentType:  "in_person",
		DurationMinutes:  45,
	}
}

func TestRegister(t *testing.T) {
	repo := newFakePatientRepo()
	svc := NewService(repo, email.NewService(config.EmailConfig{}), clock.Fixed{Time: testNow})

	patient, appointment, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	assert.Equal(t, "Meera Iyer", patient.FullName)
	assert.Equal(t, patient.ID, appointment.PatientID)
	assert.Equal(t, model.AppointmentStatusScheduled, appointment.Status)
	assert.Len(t, repo.appointments, 1)
}

func TestRegister_PastAppointmentDate(t *testing.T) {
	svc := NewService(newFakePatientRepo(), email.NewService(config.EmailConfig{}), clock.Fixed{Time: testNow})

	req := registerRequest()
	req.AppointmentDate = "2025-03-09"
	_, _, err := svc.Register(context.Background(), req)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "appointment_date")
}

func TestRegister_SlotConflictCreatesNothing(t *testing.T) {
	repo := newFakePatientRepo()
	repo.conflict = true
	svc := NewService(repo, email.NewService(config.EmailConfig{}), clock.Fixed{Time: testNow})

	_, _, err := svc.Register(context.Background(), registerRequest())
	assert.True(t, errors.IsConflict(err))
	assert.Empty(t, repo.patients)
	assert.Empty(t, repo.appointments)
}
