package model

import (
	"time"
)

type LabOrderStatus string

const (
	LabOrderStatusPending    LabOrderStatus = "Pending"
	LabOrderStatusInProgress LabOrderStatus = "InProgress"
	LabOrderStatusCompleted  LabOrderStatus = "Completed"
)

type LabTest struct {
	ID          int64   `db:"lab_test_id" json:"id"`
	TestName    string  `db:"test_name" json:"test_name"`
	Category    string  `db:"category" json:"category,omitempty"`
	Cost        float64 `db:"cost" json:"cost"`
	Description string  `db:"description" json:"description,omitempty"`
}

type LabOrder struct {
	ID            int64          `db:"lab_order_id" json:"id"`
	VisitID       int64          `db:"visit_id" json:"visit_id"`
	PatientID     int64          `db:"patient_id" json:"patient_id"`
	DoctorID      int64          `db:"doctor_id" json:"doctor_id"`
	LabTestID     int64          `db:"lab_test_id" json:"lab_test_id"`
	Priority      string         `db:"priority" json:"priority,omitempty"`
	Status        LabOrderStatus `db:"status" json:"status"`
	OrderTime     time.Time      `db:"order_time" json:"order_time"`
	SampleTime    *time.Time     `db:"sample_time" json:"sample_time,omitempty"`
	CompletedTime *time.Time     `db:"completed_time" json:"completed_time,omitempty"`

	TestName string `db:"test_name" json:"test_name,omitempty"`
}

type LabResult struct {
	ID         int64     `db:"lab_result_id" json:"id"`
	LabOrderID int64     `db:"lab_order_id" json:"lab_order_id"`
	ResultText string    `db:"result_text" json:"result_text,omitempty"`
	FilePath   string    `db:"file_path" json:"file_path,omitempty"`
	UploadedBy int64     `db:"uploaded_by" json:"uploaded_by"`
	UploadedAt time.Time `db:"uploaded_at" json:"uploaded_at"`
}

type CreateLabOrderRequest struct {
	VisitID   int64  `json:"visit_id" binding:"required"`
	LabTestID int64  `json:"lab_test_id" binding:"required"`
	Priority  string `json:"priority" binding:"omitempty,oneof=Routine Urgent Stat"`
}

type UploadLabResultRequest struct {
	ResultText string `json:"result_text"`
	FilePath   string `json:"file_path"`
}

type CreateLabTestRequest struct {
	TestName    string  `json:"test_name" binding:"required,max=200"`
	Category    string  `json:"category" binding:"max=100"`
	Cost        float64 `json:"cost" binding:"gte=0"`
	Description string  `json:"description"`
}
