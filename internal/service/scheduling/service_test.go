package scheduling

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
	"github.com/lmezzz/hms-api/internal/service/event"
	apperr "github.com/lmezzz/hms-api/pkg/errors"
	"github.com/lmezzz/hms-api/pkg/logger"
)

type fakeScheduleRepo struct {
	slots  map[int64]*model.ScheduleSlot
	byKey  map[string]int64
	nextID int64
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{
		slots: make(map[int64]*model.ScheduleSlot),
		byKey: make(map[string]int64),
	}
}

func slotKey(doctorID int64, date time.Time, start string) string {
	return fmt.Sprintf("%d|%s|%s", doctorID, date.Format("2006-01-02"), start)
}

func (f *fakeScheduleRepo) InsertSlots(ctx context.Context, slots []*model.ScheduleSlot) (int64, error) {
	var inserted int64
	for _, slot := range slots {
		key := slotKey(slot.DoctorID, slot.SlotDate, slot.StartTime)
		if _, exists := f.byKey[key]; exists {
			continue
		}
		f.nextID++
		slot.ID = f.nextID
		f.slots[slot.ID] = slot
		f.byKey[key] = slot.ID
		inserted++
	}
	return inserted, nil
}

func (f *fakeScheduleRepo) CreateSlot(ctx context.Context, slot *model.ScheduleSlot) error {
	key := slotKey(slot.DoctorID, slot.SlotDate, slot.StartTime)
	if _, exists := f.byKey[key]; exists {
		return repository.ErrDuplicate
	}
	f.nextID++
	slot.ID = f.nextID
	f.slots[slot.ID] = slot
	f.byKey[key] = slot.ID
	return nil
}

func (f *fakeScheduleRepo) Get(ctx context.Context, id int64) (*model.ScheduleSlot, error) {
	slot, ok := f.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *slot
	return &copied, nil
}

func (f *fakeScheduleRepo) ListAvailable(ctx context.Context, doctorID int64, date time.Time) ([]*model.ScheduleSlot, error) {
	var out []*model.ScheduleSlot
	for _, slot := range f.slots {
		if slot.DoctorID == doctorID && slot.SlotDate.Format("2006-01-02") == date.Format("2006-01-02") && slot.IsAvailable {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) ListForDay(ctx context.Context, doctorID int64, date time.Time) ([]*model.ScheduleSlotView, error) {
	var out []*model.ScheduleSlotView
	for _, slot := range f.slots {
		if slot.DoctorID == doctorID && slot.SlotDate.Format("2006-01-02") == date.Format("2006-01-02") {
			out = append(out, &model.ScheduleSlotView{ScheduleSlot: *slot})
		}
	}
	return out, nil
}

type fakeAppointmentRepo struct {
	slots        *fakeScheduleRepo
	appointments map[int64]*model.Appointment
	nextID       int64
}

func newFakeAppointmentRepo(slots *fakeScheduleRepo) *fakeAppointmentRepo {
	return &fakeAppointmentRepo{
		slots:        slots,
		appointments: make(map[int64]*model.Appointment),
	}
}

func (f *fakeAppointmentRepo) ClaimSlotAndCreate(ctx context.Context, appt *model.Appointment) error {
	slot, ok := f.slots.slots[appt.ScheduleID]
	if !ok || !slot.IsAvailable || slot.DoctorID != appt.DoctorID {
		return repository.ErrSlotTaken
	}
	slot.IsAvailable = false
	f.nextID++
	appt.ID = f.nextID
	appt.Status = model.AppointmentStatusScheduled
	f.appointments[appt.ID] = appt
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
	var out []*model.Appointment
	for _, appt := range f.appointments {
		out = append(out, appt)
	}
	return out, nil
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
	appt, ok := f.appointments[id]
	if !ok || appt.Status.Terminal() {
		return repository.ErrStaleState
	}
	appt.Status = model.AppointmentStatusCancelled
	if slot, ok := f.slots.slots[appt.ScheduleID]; ok {
		slot.IsAvailable = true
	}
	return nil
}

type fakeUserRepo struct {
	users map[int64]*model.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (f *fakeUserRepo) Get(ctx context.Context, id int64) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error { return nil }

func (f *fakeUserRepo) Deactivate(ctx context.Context, id int64) error { return nil }

func (f *fakeUserRepo) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) ListRoles(ctx context.Context) ([]*model.Role, error) { return nil, nil }

func (f *fakeUserRepo) GetRole(ctx context.Context, id int64) (*model.Role, error) {
	return nil, repository.ErrNotFound
}

type fakeOutboxRepo struct {
	events []*model.OutboxEvent
}

func (f *fakeOutboxRepo) Create(ctx context.Context, evt *model.OutboxEvent) error {
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeOutboxRepo) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeOutboxRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	return nil
}

func (f *fakeOutboxRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type fixture struct {
	svc    *Service
	slots  *fakeScheduleRepo
	appts  *fakeAppointmentRepo
	outbox *fakeOutboxRepo
}

func newFixture() *fixture {
	slots := newFakeScheduleRepo()
	appts := newFakeAppointmentRepo(slots)
	users := &fakeUserRepo{users: map[int64]*model.User{
		1: {ID: 1, Username: "drsmith", RoleName: model.RoleDoctor, IsActive: true},
		2: {ID: 2, Username: "frontdesk", RoleName: model.RoleReceptionist, IsActive: true},
	}}
	outbox := &fakeOutboxRepo{}
	log := logger.NewLogger(nil)
	events := event.NewService(outbox, log)
	return &fixture{
		svc:    NewService(slots, appts, users, events, log),
		slots:  slots,
		appts:  appts,
		outbox: outbox,
	}
}

func TestDefaultSlotsGrid(t *testing.T) {
	date := time.Date(2026, 3, 10, 14, 22, 0, 0, time.UTC)
	slots := defaultSlots(1, date)

	require.Len(t, slots, SlotsPerDay)
	assert.Equal(t, 16, SlotsPerDay)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "09:30", slots[0].EndTime)
	assert.Equal(t, "16:30", slots[len(slots)-1].StartTime)
	assert.Equal(t, "17:00", slots[len(slots)-1].EndTime)

	for _, slot := range slots {
		assert.True(t, slot.IsAvailable)
		assert.Equal(t, "2026-03-10", slot.SlotDate.Format("2006-01-02"))
	}
}

func TestEnsureDefaultSlotsIdempotent(t *testing.T) {
	f := newFixture()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	inserted, err := f.svc.EnsureDefaultSlots(context.Background(), 1, date)
	require.NoError(t, err)
	assert.Equal(t, int64(SlotsPerDay), inserted)

	inserted, err = f.svc.EnsureDefaultSlots(context.Background(), 1, date)
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Len(t, f.slots.slots, SlotsPerDay)
}

func TestEnsureDefaultSlotsRejectsNonDoctor(t *testing.T) {
	f := newFixture()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.EnsureDefaultSlots(context.Background(), 2, date)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.ErrValidation))

	_, err = f.svc.EnsureDefaultSlots(context.Background(), 99, date)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.ErrNotFound))
}

func TestGetAvailableSlotsMaterializesDay(t *testing.T) {
	f := newFixture()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	available, err := f.svc.GetAvailableSlots(context.Background(), 1, date)
	require.NoError(t, err)
	assert.Len(t, available, SlotsPerDay)
}

func TestBookSlot(t *testing.T) {
	f := newFixture()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	available, err := f.svc.GetAvailableSlots(context.Background(), 1, date)
	require.NoError(t, err)
	require.NotEmpty(t, available)
	slot := available[0]

	appt, err := f.svc.BookSlot(context.Background(), &model.BookSlotRequest{
		ScheduleID: slot.ID,
		DoctorID:   1,
		PatientID:  10,
		Reason:     "annual checkup",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, appt.Status)

	start, err := time.Parse("15:04", slot.StartTime)
	require.NoError(t, err)
	assert.Equal(t, start.Hour(), appt.ScheduledTime.Hour())
	assert.Equal(t, start.Minute(), appt.ScheduledTime.Minute())

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, model.EventAppointmentBooked, f.outbox.events[0].EventType)

	remaining, err := f.svc.GetAvailableSlots(context.Background(), 1, date)
	require.NoError(t, err)
	assert.Len(t, remaining, SlotsPerDay-1)
}

func TestBookSlotSecondClaimLoses(t *testing.T) {
	f := newFixture()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	available, err := f.svc.GetAvailableSlots(context.Background(), 1, date)
	require.NoError(t, err)
	slot := available[0]

	req := &model.BookSlotRequest{ScheduleID: slot.ID, DoctorID: 1, PatientID: 10}
	_, err = f.svc.BookSlot(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.BookSlot(context.Background(), &model.BookSlotRequest{
		ScheduleID: slot.ID, DoctorID: 1, PatientID: 11,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.ErrConflict))
	assert.Len(t, f.appts.appointments, 1)
}

func TestBookSlotDoctorMismatch(t *testing.T) {
	f := newFixture()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	available, err := f.svc.GetAvailableSlots(context.Background(), 1, date)
	require.NoError(t, err)

	_, err = f.svc.BookSlot(context.Background(), &model.BookSlotRequest{
		ScheduleID: available[0].ID, DoctorID: 2, PatientID: 10,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.ErrValidation))
}

func TestCancelAppointmentFreesSlot(t *testing.T) {
	f := newFixture()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	available, err := f.svc.GetAvailableSlots(context.Background(), 1, date)
	require.NoError(t, err)
	slot := available[0]

	appt, err := f.svc.BookSlot(context.Background(), &model.BookSlotRequest{
		ScheduleID: slot.ID, DoctorID: 1, PatientID: 10,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelAppointment(context.Background(), appt.ID))

	stored, err := f.svc.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, stored.Status)

	remaining, err := f.svc.GetAvailableSlots(context.Background(), 1, date)
	require.NoError(t, err)
	assert.Len(t, remaining, SlotsPerDay)
}

func TestCancelAppointmentTerminalGuard(t *testing.T) {
	f := newFixture()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	available, err := f.svc.GetAvailableSlots(context.Background(), 1, date)
	require.NoError(t, err)

	appt, err := f.svc.BookSlot(context.Background(), &model.BookSlotRequest{
		ScheduleID: available[0].ID, DoctorID: 1, PatientID: 10,
	})
	require.NoError(t, err)

	f.appts.appointments[appt.ID].Status = model.AppointmentStatusCompleted

	err = f.svc.CancelAppointment(context.Background(), appt.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.ErrConflict))
}

func TestCreateSlotValidation(t *testing.T) {
	f := newFixture()

	slot, err := f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		DoctorID: 1, SlotDate: "2026-03-10", StartTime: "18:00", EndTime: "18:30",
	})
	require.NoError(t, err)
	assert.True(t, slot.IsAvailable)

	_, err = f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		DoctorID: 1, SlotDate: "2026-03-10", StartTime: "18:00", EndTime: "18:30",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.ErrConflict))

	_, err = f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		DoctorID: 1, SlotDate: "2026-03-10", StartTime: "19:00", EndTime: "18:30",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.ErrValidation))
}
