package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO app_users (username, email, full_name, password_hash, role_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING user_id
	`
	user.IsActive = true
	user.CreatedAt = time.Now()

	err := r.db.GetContext(ctx, &user.ID, query,
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.RoleID,
		user.IsActive,
		user.CreatedAt,
	)
	if err != nil {
		if err = translateErr(err); err == repository.ErrDuplicate {
			return err
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT u.user_id, u.username, u.email, u.full_name, u.password_hash,
		       u.role_id, r.role_name, u.is_active, u.created_at
		FROM app_users u
		JOIN roles r ON r.role_id = u.role_id
		WHERE u.user_id = $1
	`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `
		SELECT u.user_id, u.username, u.email, u.full_name, u.password_hash,
		       u.role_id, r.role_name, u.is_active, u.created_at
		FROM app_users u
		JOIN roles r ON r.role_id = u.role_id
		WHERE u.username = $1
	`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE app_users
		SET email = $1, full_name = $2, role_id = $3, is_active = $4
		WHERE user_id = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.FullName,
		user.RoleID,
		user.IsActive,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes; user rows are never removed.
func (r *userRepository) Deactivate(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE app_users SET is_active = false WHERE user_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	query := `
		SELECT u.user_id, u.username, u.email, u.full_name, u.password_hash,
		       u.role_id, r.role_name, u.is_active, u.created_at
		FROM app_users u
		JOIN roles r ON r.role_id = u.role_id
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil && filters.RoleID != nil {
		query += fmt.Sprintf(" AND u.role_id = $%d", argCount)
		args = append(args, *filters.RoleID)
		argCount++
	}
	if filters != nil && filters.ActiveOnly {
		query += " AND u.is_active = true"
	}

	query += " ORDER BY u.full_name ASC"

	var users []*model.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) ListRoles(ctx context.Context) ([]*model.Role, error) {
	var roles []*model.Role
	if err := r.db.SelectContext(ctx, &roles, `SELECT role_id, role_name FROM roles ORDER BY role_id`); err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (r *userRepository) GetRole(ctx context.Context, id int64) (*model.Role, error) {
	var role model.Role
	if err := r.db.GetContext(ctx, &role, `SELECT role_id, role_name FROM roles WHERE role_id = $1`, id); err != nil {
		return nil, translateErr(err)
	}
	return &role, nil
}
