package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
	apperr "github.com/lmezzz/hms-api/pkg/errors"
	"github.com/lmezzz/hms-api/pkg/security"
)

type Service struct {
	repo   repository.UserRepository
	hasher security.PasswordHasher
}

func NewService(repo repository.UserRepository, hasher security.PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

func (s *Service) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	role, err := s.repo.GetRole(ctx, req.RoleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Validation("unknown role", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to get role: %w", err))
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.Validation("invalid password", err)
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		RoleID:       role.ID,
		RoleName:     role.Name,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("username or email already taken", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to create user: %w", err))
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to get user: %w", err))
	}
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, id int64, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.RoleID != nil {
		role, err := s.repo.GetRole(ctx, *req.RoleID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperr.Validation("unknown role", err)
			}
			return nil, apperr.Storage(fmt.Errorf("failed to get role: %w", err))
		}
		user.RoleID = role.ID
		user.RoleName = role.Name
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("email already taken", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to update user: %w", err))
	}
	return user, nil
}

// DeactivateUser soft-deletes the account; history rows keep pointing at it.
func (s *Service) DeactivateUser(ctx context.Context, id int64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("user", err)
		}
		return apperr.Storage(fmt.Errorf("failed to deactivate user: %w", err))
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	users, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to list users: %w", err))
	}
	return users, nil
}

func (s *Service) ListRoles(ctx context.Context) ([]*model.Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to list roles: %w", err))
	}
	return roles, nil
}
