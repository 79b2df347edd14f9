package model

import (
	"time"
)

type PrescriptionStatus string

const (
	PrescriptionStatusPending   PrescriptionStatus = "Pending"
	PrescriptionStatusDispensed PrescriptionStatus = "Dispensed"
)

type Prescription struct {
	ID        int64               `db:"prescription_id" json:"id"`
	VisitID   int64               `db:"visit_id" json:"visit_id"`
	DoctorID  int64               `db:"doctor_id" json:"doctor_id"`
	Status    PrescriptionStatus  `db:"status" json:"status"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
	Items     []*PrescriptionItem `json:"items,omitempty"`
}

type PrescriptionItem struct {
	ID             int64  `db:"prescription_item_id" json:"id"`
	PrescriptionID int64  `db:"prescription_id" json:"prescription_id"`
	MedicationID   int64  `db:"medication_id" json:"medication_id"`
	Dosage         string `db:"dosage" json:"dosage,omitempty"`
	Frequency      string `db:"frequency" json:"frequency,omitempty"`
	Duration       string `db:"duration" json:"duration,omitempty"`
	Quantity       int    `db:"quantity" json:"quantity"`

	MedicationName string `db:"medication_name" json:"medication_name,omitempty"`
}

type CreatePrescriptionRequest struct {
	VisitID int64                           `json:"visit_id" binding:"required"`
	Items   []CreatePrescriptionItemRequest `json:"items" binding:"required,min=1,dive"`
}

type CreatePrescriptionItemRequest struct {
	MedicationID int64  `json:"medication_id" binding:"required"`
	Dosage       string `json:"dosage" binding:"max=100"`
	Frequency    string `json:"frequency" binding:"max=100"`
	Duration     string `json:"duration" binding:"max=100"`
	Quantity     int    `json:"quantity" binding:"required,gt=0"`
}
