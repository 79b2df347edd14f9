package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
)

type scheduleRepository struct {
	BaseRepository
}

func NewScheduleRepository(base BaseRepository) repository.ScheduleRepository {
	return &scheduleRepository{base}
}

// InsertSlots relies on the unique index on (doctor_id, slot_date, start_time):
// concurrent first-of-day callers race harmlessly, each slot lands exactly once.
func (r *scheduleRepository) InsertSlots(ctx context.Context, slots []*model.ScheduleSlot) (int64, error) {
	query := `
		INSERT INTO schedule_slots (doctor_id, slot_date, start_time, end_time, is_available)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (doctor_id, slot_date, start_time) DO NOTHING
	`

	var inserted int64
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, slot := range slots {
			result, err := tx.ExecContext(ctx, query,
				slot.DoctorID,
				slot.SlotDate,
				slot.StartTime,
				slot.EndTime,
				slot.IsAvailable,
			)
			if err != nil {
				return fmt.Errorf("failed to insert slot: %w", err)
			}
			rows, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			inserted += rows
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *scheduleRepository) CreateSlot(ctx context.Context, slot *model.ScheduleSlot) error {
	query := `
		INSERT INTO schedule_slots (doctor_id, slot_date, start_time, end_time, is_available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING schedule_id
	`
	err := r.db.GetContext(ctx, &slot.ID, query,
		slot.DoctorID,
		slot.SlotDate,
		slot.StartTime,
		slot.EndTime,
		slot.IsAvailable,
	)
	if err != nil {
		if err = translateErr(err); err == repository.ErrDuplicate {
			return err
		}
		return fmt.Errorf("failed to create slot: %w", err)
	}
	return nil
}

func (r *scheduleRepository) Get(ctx context.Context, id int64) (*model.ScheduleSlot, error) {
	query := `
		SELECT schedule_id, doctor_id, slot_date, start_time, end_time, is_available
		FROM schedule_slots
		WHERE schedule_id = $1
	`
	var slot model.ScheduleSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, translateErr(err)
	}
	return &slot, nil
}

// ListAvailable excludes slots referenced by a live appointment even when the
// availability flag disagrees (older booking paths did not keep it in sync).
func (r *scheduleRepository) ListAvailable(ctx context.Context, doctorID int64, date time.Time) ([]*model.ScheduleSlot, error) {
	query := `
		SELECT s.schedule_id, s.doctor_id, s.slot_date, s.start_time, s.end_time, s.is_available
		FROM schedule_slots s
		WHERE s.doctor_id = $1
		AND s.slot_date = $2
		AND s.is_available = true
		AND NOT EXISTS (
			SELECT 1 FROM appointments a
			WHERE a.schedule_id = s.schedule_id
			AND a.status != 'Cancelled'
		)
		ORDER BY s.start_time ASC
	`
	var slots []*model.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to list available slots: %w", err)
	}
	return slots, nil
}

func (r *scheduleRepository) ListForDay(ctx context.Context, doctorID int64, date time.Time) ([]*model.ScheduleSlotView, error) {
	query := `
		SELECT s.schedule_id, s.doctor_id, s.slot_date, s.start_time, s.end_time, s.is_available,
		       EXISTS (
		           SELECT 1 FROM appointments a
		           WHERE a.schedule_id = s.schedule_id
		           AND a.status != 'Cancelled'
		       ) AS has_appointment
		FROM schedule_slots s
		WHERE s.doctor_id = $1
		AND s.slot_date = $2
		ORDER BY s.start_time ASC
	`
	var slots []*model.ScheduleSlotView
	if err := r.db.SelectContext(ctx, &slots, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to list day schedule: %w", err)
	}
	return slots, nil
}
