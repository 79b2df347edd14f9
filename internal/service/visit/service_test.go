package visit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
	apperr "github.com/lmezzz/hms-api/pkg/errors"
)

type fakeAppointmentRepo struct {
	appointments map[int64]*model.Appointment
}

func (f *fakeAppointmentRepo) ClaimSlotAndCreate(ctx context.Context, appt *model.Appointment) error {
	return nil
}

func (f *fakeAppointmentRepo) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	appt, ok := f.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *appt
	return &copied, nil
}

func (f *fakeAppointmentRepo) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) UpdateStatus(ctx context.Context, id int64, from, to model.AppointmentStatus) error {
	appt, ok := f.appointments[id]
	if !ok || appt.Status != from {
		return repository.ErrStaleState
	}
	appt.Status = to
	return nil
}

func (f *fakeAppointmentRepo) CancelAndFreeSlot(ctx context.Context, id int64) error {
	return nil
}

type fakeVisitRepo struct {
	appts  *fakeAppointmentRepo
	visits map[int64]*model.Visit
	nextID int64
}

func (f *fakeVisitRepo) StartForAppointment(ctx context.Context, visit *model.Visit) error {
	err := f.appts.UpdateStatus(ctx, visit.AppointmentID,
		model.AppointmentStatusScheduled, model.AppointmentStatusInProgress)
	if err != nil {
		return err
	}
	f.nextID++
	visit.ID = f.nextID
	f.visits[visit.ID] = visit
	return nil
}

func (f *fakeVisitRepo) Get(ctx context.Context, id int64) (*model.Visit, error) {
	visit, ok := f.visits[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *visit
	return &copied, nil
}

func (f *fakeVisitRepo) Complete(ctx context.Context, visit *model.Visit) error {
	err := f.appts.UpdateStatus(ctx, visit.AppointmentID,
		model.AppointmentStatusInProgress, model.AppointmentStatusCompleted)
	if err != nil {
		return err
	}
	f.visits[visit.ID] = visit
	return nil
}

func (f *fakeVisitRepo) ListByPatient(ctx context.Context, patientID int64) ([]*model.Visit, error) {
	return nil, nil
}

func (f *fakeVisitRepo) ListByDoctor(ctx context.Context, doctorID int64, from, to time.Time) ([]*model.Visit, error) {
	return nil, nil
}

func newTestService(status model.AppointmentStatus) (*Service, *fakeAppointmentRepo) {
	appts := &fakeAppointmentRepo{appointments: map[int64]*model.Appointment{
		1: {ID: 1, PatientID: 10, DoctorID: 5, Status: status},
	}}
	visits := &fakeVisitRepo{appts: appts, visits: make(map[int64]*model.Visit)}
	return NewService(visits, appts), appts
}

func TestStartVisit(t *testing.T) {
	svc, appts := newTestService(model.AppointmentStatusScheduled)

	visit, err := svc.StartVisit(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(10), visit.PatientID)
	assert.Equal(t, int64(5), visit.DoctorID)
	assert.Equal(t, model.AppointmentStatusInProgress, appts.appointments[1].Status)
}

func TestStartVisitWrongDoctor(t *testing.T) {
	svc, _ := newTestService(model.AppointmentStatusScheduled)

	_, err := svc.StartVisit(context.Background(), 1, 99)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.ErrForbidden))
}

func TestStartVisitRejectsNonScheduled(t *testing.T) {
	for _, status := range []model.AppointmentStatus{
		model.AppointmentStatusInProgress,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
	} {
		svc, _ := newTestService(status)
		_, err := svc.StartVisit(context.Background(), 1, 5)
		require.Error(t, err, "status %s", status)
		assert.True(t, apperr.IsCode(err, apperr.ErrConflict))
	}
}

func TestStartVisitUnknownAppointment(t *testing.T) {
	svc, _ := newTestService(model.AppointmentStatusScheduled)

	_, err := svc.StartVisit(context.Background(), 42, 5)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.ErrNotFound))
}

func TestCompleteVisit(t *testing.T) {
	svc, appts := newTestService(model.AppointmentStatusScheduled)

	started, err := svc.StartVisit(context.Background(), 1, 5)
	require.NoError(t, err)

	done, err := svc.CompleteVisit(context.Background(), started.ID, 5, &model.CompleteVisitRequest{
		Symptoms:  "persistent cough",
		Diagnosis: "bronchitis",
		Notes:     "follow up in two weeks",
	})
	require.NoError(t, err)
	assert.Equal(t, "bronchitis", done.Diagnosis)
	assert.Equal(t, model.AppointmentStatusCompleted, appts.appointments[1].Status)

	// Completing twice fails against the closed appointment.
	_, err = svc.CompleteVisit(context.Background(), started.ID, 5, &model.CompleteVisitRequest{
		Diagnosis: "bronchitis",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.ErrConflict))
}

func TestCompleteVisitWrongDoctor(t *testing.T) {
	svc, _ := newTestService(model.AppointmentStatusScheduled)

	started, err := svc.StartVisit(context.Background(), 1, 5)
	require.NoError(t, err)

	_, err = svc.CompleteVisit(context.Background(), started.ID, 99, &model.CompleteVisitRequest{
		Diagnosis: "bronchitis",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.ErrForbidden))
}
