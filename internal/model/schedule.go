package model

import (
	"time"
)

// Slot times are wall-clock strings in HH:MM form (the slot grid is fixed,
// half-hour aligned, and never crosses midnight).
type ScheduleSlot struct {
	ID          int64     `db:"schedule_id" json:"id"`
	DoctorID    int64     `db:"doctor_id" json:"doctor_id"`
	SlotDate    time.Time `db:"slot_date" json:"slot_date"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
}

// ScheduleSlotView is a slot decorated with its booking state, for the
// doctor's day view.
type ScheduleSlotView struct {
	ScheduleSlot
	HasAppointment bool `db:"has_appointment" json:"has_appointment"`
}

type CreateSlotRequest struct {
	DoctorID  int64  `json:"doctor_id" binding:"required"`
	SlotDate  string `json:"slot_date" binding:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" binding:"required,datetime=15:04"`
	EndTime   string `json:"end_time" binding:"required,datetime=15:04"`
}
