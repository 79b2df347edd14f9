package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
	"github.com/lmezzz/hms-api/internal/service/event"
	apperr "github.com/lmezzz/hms-api/pkg/errors"
	"github.com/lmezzz/hms-api/pkg/logger"
)

// Working day grid: half-hour slots from 09:00 to 17:00, 16 per doctor per day.
const (
	dayStartHour = 9
	dayEndHour   = 17
	slotDuration = 30 * time.Minute
)

// SlotsPerDay is the size of the full daily grid.
const SlotsPerDay = (dayEndHour - dayStartHour) * int(time.Hour/slotDuration)

type Service struct {
	slots        repository.ScheduleRepository
	appointments repository.AppointmentRepository
	users        repository.UserRepository
	events       *event.Service
	logger       *logger.Logger
}

func NewService(slots repository.ScheduleRepository, appointments repository.AppointmentRepository, users repository.UserRepository, events *event.Service, logger *logger.Logger) *Service {
	return &Service{
		slots:        slots,
		appointments: appointments,
		users:        users,
		events:       events,
		logger:       logger,
	}
}

// defaultSlots builds the full grid for one doctor-day. Times are wall-clock
// strings so the grid is identical regardless of server timezone.
func defaultSlots(doctorID int64, date time.Time) []*model.ScheduleSlot {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	start := day.Add(dayStartHour * time.Hour)
	end := day.Add(dayEndHour * time.Hour)

	slots := make([]*model.ScheduleSlot, 0, SlotsPerDay)
	for t := start; t.Before(end); t = t.Add(slotDuration) {
		slots = append(slots, &model.ScheduleSlot{
			DoctorID:    doctorID,
			SlotDate:    day,
			StartTime:   t.Format("15:04"),
			EndTime:     t.Add(slotDuration).Format("15:04"),
			IsAvailable: true,
		})
	}
	return slots
}

// EnsureDefaultSlots lazily materializes the daily grid for a doctor. Slots
// already present are skipped by the insert, so calling twice (or from two
// requests at once) never produces duplicates. Returns the number of slots
// actually inserted.
func (s *Service) EnsureDefaultSlots(ctx context.Context, doctorID int64, date time.Time) (int64, error) {
	if err := s.requireDoctor(ctx, doctorID); err != nil {
		return 0, err
	}

	inserted, err := s.slots.InsertSlots(ctx, defaultSlots(doctorID, date))
	if err != nil {
		return 0, apperr.Storage(fmt.Errorf("failed to ensure slots: %w", err))
	}
	return inserted, nil
}

// GetAvailableSlots returns the open slots for a doctor-day, materializing the
// default grid first so a never-scheduled day still shows its 16 slots.
func (s *Service) GetAvailableSlots(ctx context.Context, doctorID int64, date time.Time) ([]*model.ScheduleSlot, error) {
	if _, err := s.EnsureDefaultSlots(ctx, doctorID, date); err != nil {
		return nil, err
	}

	available, err := s.slots.ListAvailable(ctx, doctorID, date)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to list available slots: %w", err))
	}
	return available, nil
}

// ListDoctorSchedule returns every slot of the doctor's day with its booking
// state, for the doctor dashboard.
func (s *Service) ListDoctorSchedule(ctx context.Context, doctorID int64, date time.Time) ([]*model.ScheduleSlotView, error) {
	if _, err := s.EnsureDefaultSlots(ctx, doctorID, date); err != nil {
		return nil, err
	}

	views, err := s.slots.ListForDay(ctx, doctorID, date)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to list schedule: %w", err))
	}
	return views, nil
}

// CreateSlot adds a single slot outside the default grid, e.g. an evening
// extension. The (doctor, date, start) pair stays unique.
func (s *Service) CreateSlot(ctx context.Context, req *model.CreateSlotRequest) (*model.ScheduleSlot, error) {
	if err := s.requireDoctor(ctx, req.DoctorID); err != nil {
		return nil, err
	}

	date, err := time.Parse("2006-01-02", req.SlotDate)
	if err != nil {
		return nil, apperr.Validation("invalid slot date", err)
	}
	start, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		return nil, apperr.Validation("invalid start time", err)
	}
	end, err := time.Parse("15:04", req.EndTime)
	if err != nil {
		return nil, apperr.Validation("invalid end time", err)
	}
	if !start.Before(end) {
		return nil, apperr.Validation("start time must be before end time", nil)
	}

	slot := &model.ScheduleSlot{
		DoctorID:    req.DoctorID,
		SlotDate:    date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsAvailable: true,
	}
	if err := s.slots.CreateSlot(ctx, slot); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("a slot already exists at this time", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to create slot: %w", err))
	}
	return slot, nil
}

// BookSlot claims a slot for a patient. The claim is a single conditional
// update, so when two requests race for the same slot exactly one wins; the
// loser gets a conflict error.
func (s *Service) BookSlot(ctx context.Context, req *model.BookSlotRequest) (*model.Appointment, error) {
	slot, err := s.slots.Get(ctx, req.ScheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("slot", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to get slot: %w", err))
	}
	if slot.DoctorID != req.DoctorID {
		return nil, apperr.Validation("slot does not belong to the given doctor", nil)
	}

	start, err := time.Parse("15:04", slot.StartTime)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("malformed slot start time %q: %w", slot.StartTime, err))
	}

	appt := &model.Appointment{
		PatientID:  req.PatientID,
		DoctorID:   req.DoctorID,
		ScheduleID: req.ScheduleID,
		ScheduledTime: time.Date(
			slot.SlotDate.Year(), slot.SlotDate.Month(), slot.SlotDate.Day(),
			start.Hour(), start.Minute(), 0, 0, time.UTC,
		),
		Reason: req.Reason,
	}

	if err := s.appointments.ClaimSlotAndCreate(ctx, appt); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, apperr.Conflict("slot is no longer available", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to book slot: %w", err))
	}

	s.events.Emit(ctx, model.EventAppointmentBooked, appt)
	return appt, nil
}

// CancelAppointment cancels a Scheduled or InProgress appointment and reopens
// its slot. Completed and Cancelled appointments stay untouched.
func (s *Service) CancelAppointment(ctx context.Context, id int64) error {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("appointment", err)
		}
		return apperr.Storage(fmt.Errorf("failed to get appointment: %w", err))
	}
	if !appt.Status.CanTransitionTo(model.AppointmentStatusCancelled) {
		return apperr.Conflict(fmt.Sprintf("appointment is %s and cannot be cancelled", appt.Status), nil)
	}

	if err := s.appointments.CancelAndFreeSlot(ctx, id); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return apperr.Conflict("appointment was updated concurrently", err)
		}
		return apperr.Storage(fmt.Errorf("failed to cancel appointment: %w", err))
	}

	s.events.Emit(ctx, model.EventAppointmentCancelled, appt)
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id int64) (*model.Appointment, error) {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("appointment", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to get appointment: %w", err))
	}
	return appt, nil
}

func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appts, err := s.appointments.List(ctx, filters)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to list appointments: %w", err))
	}
	return appts, nil
}

func (s *Service) requireDoctor(ctx context.Context, doctorID int64) error {
	user, err := s.users.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("doctor", err)
		}
		return apperr.Storage(fmt.Errorf("failed to get doctor: %w", err))
	}
	if user.RoleName != model.RoleDoctor {
		return apperr.Validation("user is not a doctor", nil)
	}
	return nil
}
