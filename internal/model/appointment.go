package model

import (
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "Scheduled"
	AppointmentStatusInProgress AppointmentStatus = "InProgress"
	AppointmentStatusCompleted  AppointmentStatus = "Completed"
	AppointmentStatusCancelled  AppointmentStatus = "Cancelled"
)

// appointmentTransitions is the single source of truth for lifecycle moves.
// Completed and Cancelled are terminal.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled:  {AppointmentStatusInProgress, AppointmentStatusCancelled},
	AppointmentStatusInProgress: {AppointmentStatusCompleted, AppointmentStatusCancelled},
	AppointmentStatusCompleted:  nil,
	AppointmentStatusCancelled:  nil,
}

// CanTransitionTo reports whether the lifecycle permits moving to the given
// status.
func (s AppointmentStatus) CanTransitionTo(to AppointmentStatus) bool {
	for _, next := range appointmentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s AppointmentStatus) Terminal() bool {
	next, known := appointmentTransitions[s]
	return known && len(next) == 0
}

type Appointment struct {
	ID            int64             `db:"appointment_id" json:"id"`
	PatientID     int64             `db:"patient_id" json:"patient_id"`
	DoctorID      int64             `db:"doctor_id" json:"doctor_id"`
	ScheduleID    int64             `db:"schedule_id" json:"schedule_id"`
	ScheduledTime time.Time         `db:"scheduled_time" json:"scheduled_time"`
	Reason        string            `db:"reason" json:"reason,omitempty"`
	Status        AppointmentStatus `db:"status" json:"status"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`

	PatientName string `db:"patient_name" json:"patient_name,omitempty"`
	DoctorName  string `db:"doctor_name" json:"doctor_name,omitempty"`
}

type BookSlotRequest struct {
	ScheduleID int64  `json:"schedule_id" binding:"required"`
	DoctorID   int64  `json:"doctor_id" binding:"required"`
	PatientID  int64  `json:"patient_id" binding:"required"`
	Reason     string `json:"reason" binding:"max=1000"`
}

type AppointmentFilters struct {
	PatientID *int64
	DoctorID  *int64
	Status    AppointmentStatus
	StartDate time.Time
	EndDate   time.Time
}
