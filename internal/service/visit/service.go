package visit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
	apperr "github.com/lmezzz/hms-api/pkg/errors"
)

type Service struct {
	visits       repository.VisitRepository
	appointments repository.AppointmentRepository
}

func NewService(visits repository.VisitRepository, appointments repository.AppointmentRepository) *Service {
	return &Service{visits: visits, appointments: appointments}
}

// StartVisit opens the clinical encounter for a Scheduled appointment. The
// visit insert and the appointment transition commit together, so a visit can
// never exist for an appointment that is still Scheduled.
func (s *Service) StartVisit(ctx context.Context, appointmentID, doctorID int64) (*model.Visit, error) {
	appt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("appointment", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to get appointment: %w", err))
	}
	if appt.DoctorID != doctorID {
		return nil, apperr.Forbidden("appointment belongs to another doctor")
	}
	if !appt.Status.CanTransitionTo(model.AppointmentStatusInProgress) {
		return nil, apperr.Conflict(fmt.Sprintf("appointment is %s and cannot be started", appt.Status), nil)
	}

	visit := &model.Visit{
		AppointmentID: appointmentID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		VisitTime:     time.Now(),
	}
	if err := s.visits.StartForAppointment(ctx, visit); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, apperr.Conflict("appointment was updated concurrently", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to start visit: %w", err))
	}
	return visit, nil
}

// CompleteVisit stores the clinical record and closes the appointment.
func (s *Service) CompleteVisit(ctx context.Context, visitID, doctorID int64, req *model.CompleteVisitRequest) (*model.Visit, error) {
	visit, err := s.GetVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if visit.DoctorID != doctorID {
		return nil, apperr.Forbidden("visit belongs to another doctor")
	}

	visit.Symptoms = req.Symptoms
	visit.Diagnosis = req.Diagnosis
	visit.Notes = req.Notes

	if err := s.visits.Complete(ctx, visit); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, apperr.Conflict("visit is not in progress", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to complete visit: %w", err))
	}
	return visit, nil
}

func (s *Service) GetVisit(ctx context.Context, id int64) (*model.Visit, error) {
	visit, err := s.visits.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("visit", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to get visit: %w", err))
	}
	return visit, nil
}

// ListPatientHistory returns the patient's visits newest first.
func (s *Service) ListPatientHistory(ctx context.Context, patientID int64) ([]*model.Visit, error) {
	visits, err := s.visits.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to list visits: %w", err))
	}
	return visits, nil
}

func (s *Service) ListDoctorVisits(ctx context.Context, doctorID int64, from, to time.Time) ([]*model.Visit, error) {
	visits, err := s.visits.ListByDoctor(ctx, doctorID, from, to)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to list visits: %w", err))
	}
	return visits, nil
}
