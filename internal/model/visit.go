package model

import (
	"time"
)

type Visit struct {
	ID            int64     `db:"visit_id" json:"id"`
	AppointmentID int64     `db:"appointment_id" json:"appointment_id"`
	PatientID     int64     `db:"patient_id" json:"patient_id"`
	DoctorID      int64     `db:"doctor_id" json:"doctor_id"`
	VisitTime     time.Time `db:"visit_time" json:"visit_time"`
	Symptoms      string    `db:"symptoms" json:"symptoms,omitempty"`
	Diagnosis     string    `db:"diagnosis" json:"diagnosis,omitempty"`
	Notes         string    `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type CompleteVisitRequest struct {
	Symptoms  string `json:"symptoms"`
	Diagnosis string `json:"diagnosis" binding:"required"`
	Notes     string `json:"notes"`
}
