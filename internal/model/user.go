package model

import (
	"time"
)

// Role names are a fixed catalog; the roles table seeds them.
const (
	RoleAdmin        = "Admin"
	RoleDoctor       = "Doctor"
	RolePatient      = "Patient"
	RolePharmacist   = "Pharmacist"
	RoleLabTech      = "LabTech"
	RoleReceptionist = "Receptionist"
	RoleBilling      = "Billing"
)

type Role struct {
	ID   int64  `db:"role_id" json:"id"`
	Name string `db:"role_name" json:"name"`
}

type User struct {
	ID           int64     `db:"user_id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"full_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	RoleID       int64     `db:"role_id" json:"role_id"`
	RoleName     string    `db:"role_name" json:"role,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required,max=150"`
	Password string `json:"password" binding:"required,min=8"`
	RoleID   int64  `json:"role_id" binding:"required"`
}

type UpdateUserRequest struct {
	Email    *string `json:"email" binding:"omitempty,email"`
	FullName *string `json:"full_name" binding:"omitempty,max=150"`
	RoleID   *int64  `json:"role_id"`
	IsActive *bool   `json:"is_active"`
}

type UserFilters struct {
	RoleID     *int64
	ActiveOnly bool
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}
