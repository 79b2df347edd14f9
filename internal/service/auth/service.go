package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
	pkgauth "github.com/lmezzz/hms-api/pkg/auth"
	apperr "github.com/lmezzz/hms-api/pkg/errors"
	"github.com/lmezzz/hms-api/pkg/security"
)

type Service struct {
	users    repository.UserRepository
	patients repository.PatientRepository
	hasher   security.PasswordHasher
	jwt      pkgauth.JWTService
	expiry   time.Duration
}

func NewService(users repository.UserRepository, patients repository.PatientRepository, hasher security.PasswordHasher, jwt pkgauth.JWTService, expiry time.Duration) *Service {
	return &Service{
		users:    users,
		patients: patients,
		hasher:   hasher,
		jwt:      jwt,
		expiry:   expiry,
	}
}

// Login checks credentials against the stored bcrypt hash and issues an
// access token. Bad username and bad password return the same error so the
// response does not leak which usernames exist.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized(errors.New("invalid credentials"))
		}
		return nil, apperr.Storage(fmt.Errorf("failed to get user: %w", err))
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized(errors.New("account is deactivated"))
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperr.Unauthorized(errors.New("invalid credentials"))
	}

	token, err := s.jwt.GenerateAccessToken(user.ID, user.Username, user.RoleName)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to generate token: %w", err))
	}

	return &model.TokenResponse{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.expiry),
		User:        user,
	}, nil
}

// RegisterPatientRequest is the self-service signup payload: an account plus
// the patient demographics it owns.
type RegisterPatientRequest struct {
	Username string                     `json:"username" binding:"required,min=3,max=100"`
	Email    string                     `json:"email" binding:"required,email"`
	Password string                     `json:"password" binding:"required,min=8"`
	Patient  model.CreatePatientRequest `json:"patient" binding:"required"`
}

// RegisterPatient creates a Patient-role account and its patient record.
func (s *Service) RegisterPatient(ctx context.Context, req *RegisterPatientRequest) (*model.Patient, error) {
	role, err := s.patientRole(ctx)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.Validation("invalid password", err)
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.Patient.FullName,
		PasswordHash: hash,
		RoleID:       role.ID,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("username or email already taken", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to create user: %w", err))
	}

	patient := &model.Patient{
		UserID:            &user.ID,
		FullName:          req.Patient.FullName,
		CNIC:              req.Patient.CNIC,
		Gender:            req.Patient.Gender,
		Phone:             req.Patient.Phone,
		Address:           req.Patient.Address,
		EmergencyContact:  req.Patient.EmergencyContact,
		Allergies:         req.Patient.Allergies,
		ChronicConditions: req.Patient.ChronicConditions,
	}
	if req.Patient.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.Patient.DateOfBirth)
		if err != nil {
			return nil, apperr.Validation("invalid date of birth", err)
		}
		patient.DateOfBirth = &dob
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("patient record already exists", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to create patient: %w", err))
	}
	return patient, nil
}

func (s *Service) patientRole(ctx context.Context) (*model.Role, error) {
	roles, err := s.users.ListRoles(ctx)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to list roles: %w", err))
	}
	for _, r := range roles {
		if r.Name == model.RolePatient {
			return r, nil
		}
	}
	return nil, apperr.Storage(errors.New("patient role is not seeded"))
}
