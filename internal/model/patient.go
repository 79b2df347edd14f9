package model

import (
	"time"
)

type Patient struct {
	ID                int64      `db:"patient_id" json:"id"`
	UserID            *int64     `db:"user_id" json:"user_id,omitempty"`
	FullName          string     `db:"full_name" json:"full_name"`
	CNIC              string     `db:"cnic" json:"cnic,omitempty"`
	Gender            string     `db:"gender" json:"gender,omitempty"`
	DateOfBirth       *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Phone             string     `db:"phone" json:"phone,omitempty"`
	Address           string     `db:"address" json:"address,omitempty"`
	EmergencyContact  string     `db:"emergency_contact" json:"emergency_contact,omitempty"`
	Allergies         string     `db:"allergies" json:"allergies,omitempty"`
	ChronicConditions string     `db:"chronic_conditions" json:"chronic_conditions,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

type CreatePatientRequest struct {
	UserID            *int64 `json:"user_id"`
	FullName          string `json:"full_name" binding:"required,max=150"`
	CNIC              string `json:"cnic" binding:"omitempty,cnic"`
	Gender            string `json:"gender" binding:"omitempty,oneof=Male Female Other"`
	DateOfBirth       string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Phone             string `json:"phone" binding:"max=30"`
	Address           string `json:"address"`
	EmergencyContact  string `json:"emergency_contact" binding:"max=150"`
	Allergies         string `json:"allergies"`
	ChronicConditions string `json:"chronic_conditions"`
}

type UpdatePatientRequest struct {
	FullName          *string `json:"full_name" binding:"omitempty,max=150"`
	Phone             *string `json:"phone" binding:"omitempty,max=30"`
	Address           *string `json:"address"`
	EmergencyContact  *string `json:"emergency_contact" binding:"omitempty,max=150"`
	Allergies         *string `json:"allergies"`
	ChronicConditions *string `json:"chronic_conditions"`
}

// PatientFilters narrows patient listings; Search matches name, phone or CNIC.
type PatientFilters struct {
	Search string
	UserID *int64
}
