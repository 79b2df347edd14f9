package patient

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
	repo repository.PatientRepository
}

func NewService(repo repository.PatientRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	patient := &model.Patient{
		UserID:            req.UserID,
		FullName:          req.FullName,
		CNIC:              req.CNIC,
		Gender:            req.Gender,
		Phone:             req.Phone,
		Address:           req.Address,
		EmergencyContact:  req.EmergencyContact,
		Allergies:         req.Allergies,
		ChronicConditions: req.ChronicConditions,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, apperr.Validation("invalid date of birth", err)
		}
		patient.DateOfBirth = &dob
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("patient with this CNIC already exists", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to create patient: %w", err))
	}
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id int64) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("patient", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to get patient: %w", err))
	}
	return patient, nil
}

// GetPatientForUser resolves the patient record owned by an account, used by
// the patient dashboard to scope queries to the caller.
func (s *Service) GetPatientForUser(ctx context.Context, userID int64) (*model.Patient, error) {
	patient, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("patient", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to get patient: %w", err))
	}
	return patient, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id int64, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		patient.FullName = *req.FullName
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if req.EmergencyContact != nil {
		patient.EmergencyContact = *req.EmergencyContact
	}
	if req.Allergies != nil {
		patient.Allergies = *req.Allergies
	}
	if req.ChronicConditions != nil {
		patient.ChronicConditions = *req.ChronicConditions
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to update patient: %w", err))
	}
	return patient, nil
}

func (s *Service) ListPatients(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to list patients: %w", err))
	}
	return patients, nil
}
