package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

// ClaimSlotAndCreate performs the booking as a single conditional update plus
// insert. Two concurrent bookers both reach the UPDATE; only one affects a row,
// the other gets ErrSlotTaken. No read-then-write window.
func (r *appointmentRepository) ClaimSlotAndCreate(ctx context.Context, appointment *model.Appointment) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		claim := `
			UPDATE schedule_slots
			SET is_available = false
			WHERE schedule_id = $1
			AND doctor_id = $2
			AND is_available = true
			AND NOT EXISTS (
				SELECT 1 FROM appointments a
				WHERE a.schedule_id = schedule_slots.schedule_id
				AND a.status != 'Cancelled'
			)
		`
		result, err := tx.ExecContext(ctx, claim, appointment.ScheduleID, appointment.DoctorID)
		if err != nil {
			return fmt.Errorf("failed to claim slot: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrSlotTaken
		}

		insert := `
			INSERT INTO appointments (patient_id, doctor_id, schedule_id, scheduled_time, reason, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING appointment_id
		`
		appointment.Status = model.AppointmentStatusScheduled
		appointment.CreatedAt = time.Now()

		if err := tx.GetContext(ctx, &appointment.ID, insert,
			appointment.PatientID,
			appointment.DoctorID,
			appointment.ScheduleID,
			appointment.ScheduledTime,
			appointment.Reason,
			appointment.Status,
			appointment.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return nil
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	query := `
		SELECT a.appointment_id, a.patient_id, a.doctor_id, a.schedule_id,
		       a.scheduled_time, a.reason, a.status, a.created_at,
		       p.full_name AS patient_name, u.full_name AS doctor_name
		FROM appointments a
		JOIN patients p ON p.patient_id = a.patient_id
		JOIN app_users u ON u.user_id = a.doctor_id
		WHERE a.appointment_id = $1
	`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, translateErr(err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT a.appointment_id, a.patient_id, a.doctor_id, a.schedule_id,
		       a.scheduled_time, a.reason, a.status, a.created_at,
		       p.full_name AS patient_name, u.full_name AS doctor_name
		FROM appointments a
		JOIN patients p ON p.patient_id = a.patient_id
		JOIN app_users u ON u.user_id = a.doctor_id
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.PatientID != nil {
			query += fmt.Sprintf(" AND a.patient_id = $%d", argCount)
			args = append(args, *filters.PatientID)
			argCount++
		}
		if filters.DoctorID != nil {
			query += fmt.Sprintf(" AND a.doctor_id = $%d", argCount)
			args = append(args, *filters.DoctorID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND a.status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if !filters.StartDate.IsZero() {
			query += fmt.Sprintf(" AND a.scheduled_time >= $%d", argCount)
			args = append(args, filters.StartDate)
			argCount++
		}
		if !filters.EndDate.IsZero() {
			query += fmt.Sprintf(" AND a.scheduled_time <= $%d", argCount)
			args = append(args, filters.EndDate)
			argCount++
		}
	}

	query += " ORDER BY a.scheduled_time DESC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id int64, from, to model.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1
		WHERE appointment_id = $2
		AND status = $3
	`
	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrStaleState
	}
	return nil
}

func (r *appointmentRepository) CancelAndFreeSlot(ctx context.Context, id int64) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var scheduleID int64
		cancel := `
			UPDATE appointments
			SET status = $1
			WHERE appointment_id = $2
			AND status IN ($3, $4)
			RETURNING schedule_id
		`
		err := tx.GetContext(ctx, &scheduleID, cancel,
			model.AppointmentStatusCancelled,
			id,
			model.AppointmentStatusScheduled,
			model.AppointmentStatusInProgress,
		)
		if err != nil {
			if translateErr(err) == repository.ErrNotFound {
				return repository.ErrStaleState
			}
			return fmt.Errorf("failed to cancel appointment: %w", err)
		}

		free := `UPDATE schedule_slots SET is_available = true WHERE schedule_id = $1`
		if _, err := tx.ExecContext(ctx, free, scheduleID); err != nil {
			return fmt.Errorf("failed to free slot: %w", err)
		}
		return nil
	})
}
