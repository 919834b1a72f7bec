package appointment

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

// fakeAppointmentRepo mirrors the repository contract in memory,
// including the half-open overlap rule.
type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (f *fakeAppointmentRepo) overlaps(candidate *model.Appointment, excludeID *uuid.UUID) bool {
	start, _ := candidate.StartMinute()
	end := start + candidate.DurationMinutes

	for _, existing := range f.appointments {
		if excludeID != nil && existing.ID == *excludeID {
			continue
		}
		if existing.Date != candidate.Date || existing.Status == model.AppointmentStatusCancelled {
			continue
		}
		existingStart, _ := existing.StartMinute()
		existingEnd := existingStart + existing.DurationMinutes
		if existingStart < end && existingEnd > start {
			return true
		}
	}
	return false
}

func (f *fakeAppointmentRepo) Create(_ context.Context, appointment *model.Appointment) error {
	if f.overlaps(appointment, nil) {
		return errors.NewConflict("there is already an appointment scheduled at this time")
	}
	appointment.ID = uuid.New()
	if appointment.Status == "" {
		appointment.Status = model.AppointmentStatusScheduled
	}
	f.appointments[appointment.ID] = appointment
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	appointment, ok := f.appointments[id]
	if !ok {
		return nil, errors.NewNotFound("appointment", nil)
	}
	copied := *appointment
	return &copied, nil
}

func (f *fakeAppointmentRepo) Update(_ context.Context, appointment *model.Appointment) error {
	if _, ok := f.appointments[appointment.ID]; !ok {
		return errors.NewNotFound("appointment", nil)
	}
	if f.overlaps(appointment, &appointment.ID) {
		return errors.NewConflict("there is already another appointment scheduled at this time")
	}
	copied := *appointment
	f.appointments[appointment.ID] = &copied
	return nil
}

func (f *fakeAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.appointments[id]; !ok {
		return errors.NewNotFound("appointment", nil)
	}
	delete(f.appointments, id)
	return nil
}

func (f *fakeAppointmentRepo) Cancel(_ context.Context, id uuid.UUID) error {
	appointment, ok := f.appointments[id]
	if !ok {
		return errors.NewNotFound("appointment", nil)
	}
	appointment.Status = model.AppointmentStatusCancelled
	return nil
}

func (f *fakeAppointmentRepo) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, int, error) {
	out := make([]*model.Appointment, 0, len(f.appointments))
	for _, appointment := range f.appointments {
		out = append(out, appointment)
	}
	return out, len(out), nil
}

func (f *fakeAppointmentRepo) ListByDate(_ context.Context, date string) ([]*model.Appointment, error) {
	out := []*model.Appointment{}
	for _, appointment := range f.appointments {
		if appointment.Date == date {
			out = append(out, appointment)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	out := []*model.Appointment{}
	for _, appointment := range f.appointments {
		if appointment.PatientID == patientID {
			out = append(out, appointment)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListUpcoming(_ context.Context, date, timeOfDay string) ([]*model.Appointment, error) {
	cutoff, _ := model.MinuteOfDay(timeOfDay)
	out := []*model.Appointment{}
	for _, appointment := range f.appointments {
		if appointment.Status == model.AppointmentStatusCancelled {
			continue
		}
		start, _ := appointment.StartMinute()
		if appointment.Date > date || (appointment.Date == date && start >= cutoff) {
			out = append(out, appointment)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) CurrentForPatient(_ context.Context, patientID uuid.UUID, date, timeOfDay string) (*model.Appointment, error) {
	cutoff, _ := model.MinuteOfDay(timeOfDay)
	var current *model.Appointment
	currentStart := -1
	for _, appointment := range f.appointments {
		if appointment.PatientID != patientID || appointment.Date != date {
			continue
		}
		if appointment.Status == model.AppointmentStatusCancelled {
			continue
		}
		start, _ := appointment.StartMinute()
		if start <= cutoff && start > currentStart {
			current = appointment
			currentStart = start
		}
	}
	return current, nil
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func newFakePatientRepo(patients ...*model.Patient) *fakePatientRepo {
	repo := &fakePatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
	for _, p := range patients {
		repo.patients[p.ID] = p
	}
	return repo
}

func (f *fakePatientRepo) Create(_ context.Context, patient *model.Patient) error {
	patient.ID = uuid.New()
	f.patients[patient.ID] = patient
	return nil
}

func (f *fakePatientRepo) CreateWithAppointment(_ context.Context, patient *model.Patient, appointment *model.Appointment) error {
	patient.ID = uuid.New()
	appointment.ID = uuid.New()
	appointment.PatientID = patient.ID
	f.patients[patient.ID] = patient
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
	return &model.PatientSummary{
		ID:       patient.ID,
		FullName: patient.FullName,
		Age:      patient.Age,
		Gender:   patient.Gender,
		Phone:    patient.Phone,
		Email:    patient.Email,
	}, nil
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

func testPatient() *model.Patient {
	p := &model.Patient{
		FullName: "Asha Verma",
		Age:      34,
		Gender:   "female",
		Phone:    "5550100",
		Email:    "asha@example.com",
	}
	p.ID = uuid.New()
	return p
}

func newTestService(repo *fakeAppointmentRepo, patients *fakePatientRepo, now time.Time) *Service {
	return NewService(repo, patients, email.NewService(config.EmailConfig{}), clock.Fixed{Time: now})
}

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func TestCreateAppointment(t *testing.T) {
	patient := testPatient()
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, newFakePatientRepo(patient), testNow)

	created, err := svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:       patient.ID,
		Date:            "2025-03-11",
		Time:            "10:00",
		AppointmentType: "in_person",
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, created.Status)
	assert.Equal(t, "10:00", created.StartTime)
	require.NotNil(t, created.PatientName)
	assert.Equal(t, patient.FullName, *created.PatientName)
}

func TestCreateAppointment_PatientNotFound(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo(), newFakePatientRepo(), testNow)

	_, err := svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:       uuid.New(),
		Date:            "2025-03-11",
		Time:            "10:00",
		AppointmentType: "in_person",
		DurationMinutes: 30,
	})
	assert.True(t, errors.IsNotFound(err))
}

func TestCreateAppointment_PastDate(t *testing.T) {
	patient := testPatient()
	svc := newTestService(newFakeAppointmentRepo(), newFakePatientRepo(patient), testNow)

	_, err := svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:       patient.ID,
		Date:            "2025-03-09",
		Time:            "10:00",
		AppointmentType: "in_person",
		DurationMinutes: 30,
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "date")
}

func TestCreateAppointment_Overlap(t *testing.T) {
	patient := testPatient()
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, newFakePatientRepo(patient), testNow)

	book := func(timeOfDay string, duration int) error {
		_, err := svc.Create(context.Background(), &model.CreateAppointmentRequest{
			PatientID:       patient.ID,
			Date:            "2025-03-11",
			Time:            timeOfDay,
			AppointmentType: "in_person",
			DurationMinutes: duration,
		})
		return err
	}

	require.NoError(t, book("10:00", 30))

	// Overlapping the middle of the slot conflicts.
	assert.True(t, errors.IsConflict(book("10:15", 30)))

	// Intervals are half-open: back-to-back bookings are fine.
	assert.NoError(t, book("10:30", 30))
	assert.NoError(t, book("09:30", 30))
}

func TestCreateAppointment_CancelledSlotIsFree(t *testing.T) {
	patient := testPatient()
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, newFakePatientRepo(patient), testNow)

	created, err := svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:       patient.ID,
		Date:            "2025-03-11",
		Time:            "10:00",
		AppointmentType: "in_person",
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:       patient.ID,
		Date:            "2025-03-11",
		Time:            "10:00",
		AppointmentType: "in_person",
		DurationMinutes: 30,
	})
	assert.NoError(t, err)
}

func TestUpdateAppointment_ExcludesItself(t *testing.T) {
	patient := testPatient()
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, newFakePatientRepo(patient), testNow)

	created, err := svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:       patient.ID,
		Date:            "2025-03-11",
		Time:            "10:00",
		AppointmentType: "in_person",
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	// Extending the same slot must not collide with itself.
	duration := 45
	updated, err := svc.Update(context.Background(), created.ID, &model.UpdateAppointmentRequest{
		DurationMinutes: &duration,
	})
	require.NoError(t, err)
	assert.Equal(t, 45, updated.DurationMinutes)
}

func TestUpdateAppointment_ConflictOnMergedRecord(t *testing.T) {
	patient := testPatient()
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, newFakePatientRepo(patient), testNow)

	_, err := svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:       patient.ID,
		Date:            "2025-03-11",
		Time:            "10:00",
		AppointmentType: "in_person",
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:       patient.ID,
		Date:            "2025-03-11",
		Time:            "11:00",
		AppointmentType: "in_person",
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	// Moving the second into the first's slot conflicts.
	newTime := "10:15"
	_, err = svc.Update(context.Background(), second.ID, &model.UpdateAppointmentRequest{
		Time: &newTime,
	})
	assert.True(t, errors.IsConflict(err))
}

func TestUpdateAppointment_PastDateRejected(t *testing.T) {
	patient := testPatient()
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, newFakePatientRepo(patient), testNow)

	created, err := svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:       patient.ID,
		Date:            "2025-03-11",
		Time:            "10:00",
		AppointmentType: "in_person",
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	past := "2020-01-01"
	_, err = svc.Update(context.Background(), created.ID, &model.UpdateAppointmentRequest{
		Date: &past,
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "date")

	// The stored record is untouched.
	unchanged, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", unchanged.Date)
}

func TestListUpcoming(t *testing.T) {
	patient := testPatient()
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, newFakePatientRepo(patient), testNow)

	book := func(date, timeOfDay string) {
		_, err := svc.Create(context.Background(), &model.CreateAppointmentRequest{
			PatientID:       patient.ID,
			Date:            date,
			Time:            timeOfDay,
			AppointmentType: "remote",
			DurationMinutes: 30,
		})
		require.NoError(t, err)
	}

	book("2025-03-10", "11:00")
	book("2025-03-11", "09:00")

	// An earlier slot today, inserted directly to sidestep the
	// past-date guard.
	earlier := &model.Appointment{
		PatientID:       patient.ID,
		Date:            "2025-03-10",
		StartTime:       "08:00",
		DurationMinutes: 30,
		Status:          model.AppointmentStatusScheduled,
	}
	earlier.ID = uuid.New()
	repo.appointments[earlier.ID] = earlier

	upcoming, err := svc.ListUpcoming(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testNow, upcoming.CurrentDatetime)
	assert.Len(t, upcoming.Appointments, 2)
	for _, appointment := range upcoming.Appointments {
		assert.NotEqual(t, "08:00", appointment.StartTime)
	}
}

func TestCurrentAppointment(t *testing.T) {
	patient := testPatient()
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, newFakePatientRepo(patient), testNow)

	started := &model.Appointment{
		PatientID:       patient.ID,
		Date:            "2025-03-10",
		StartTime:       "09:00",
		DurationMinutes: 60,
		Status:          model.AppointmentStatusScheduled,
	}
	started.ID = uuid.New()
	repo.appointments[started.ID] = started

	current, err := svc.CurrentAppointment(context.Background(), patient.ID)
	require.NoError(t, err)
	assert.Equal(t, started.ID, current.ID)
}

func TestCurrentAppointment_NoneUnderway(t *testing.T) {
	patient := testPatient()
	svc := newTestService(newFakeAppointmentRepo(), newFakePatientRepo(patient), testNow)

	// No appointment underway is a null answer, not an error.
	current, err := svc.CurrentAppointment(context.Background(), patient.ID)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestCurrentAppointment_UnknownPatient(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo(), newFakePatientRepo(), testNow)

	_, err := svc.CurrentAppointment(context.Background(), uuid.New())
	assert.True(t, errors.IsNotFound(err))
}
