package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
)

type visitRepository struct {
	BaseRepository
}

func NewVisitRepository(base BaseRepository) repository.VisitRepository {
	return &visitRepository{base}
}

func (r *visitRepository) StartForAppointment(ctx context.Context, visit *model.Visit) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		claim := `
			UPDATE appointments
			SET status = $1
			WHERE appointment_id = $2
			AND status = $3
		`
		result, err := tx.ExecContext(ctx, claim,
			model.AppointmentStatusInProgress,
			visit.AppointmentID,
			model.AppointmentStatusScheduled,
		)
		if err != nil {
			return fmt.Errorf("failed to start appointment: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrStaleState
		}

		insert := `
			INSERT INTO visits (appointment_id, patient_id, doctor_id, visit_time, symptoms, diagnosis, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING visit_id
		`
		visit.VisitTime = time.Now()
		visit.CreatedAt = time.Now()

		if err := tx.GetContext(ctx, &visit.ID, insert,
			visit.AppointmentID,
			visit.PatientID,
			visit.DoctorID,
			visit.VisitTime,
			visit.Symptoms,
			visit.Diagnosis,
			visit.Notes,
			visit.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to create visit: %w", err)
		}
		return nil
	})
}

func (r *visitRepository) Get(ctx context.Context, id int64) (*model.Visit, error) {
	query := `
		SELECT visit_id, appointment_id, patient_id, doctor_id, visit_time,
		       symptoms, diagnosis, notes, created_at
		FROM visits
		WHERE visit_id = $1
	`
	var visit model.Visit
	if err := r.db.GetContext(ctx, &visit, query, id); err != nil {
		return nil, translateErr(err)
	}
	return &visit, nil
}

func (r *visitRepository) Complete(ctx context.Context, visit *model.Visit) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		update := `
			UPDATE visits
			SET symptoms = $1, diagnosis = $2, notes = $3
			WHERE visit_id = $4
		`
		result, err := tx.ExecContext(ctx, update,
			visit.Symptoms,
			visit.Diagnosis,
			visit.Notes,
			visit.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update visit: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}

		finish := `
			UPDATE appointments
			SET status = $1
			WHERE appointment_id = $2
			AND status = $3
		`
		result, err = tx.ExecContext(ctx, finish,
			model.AppointmentStatusCompleted,
			visit.AppointmentID,
			model.AppointmentStatusInProgress,
		)
		if err != nil {
			return fmt.Errorf("failed to complete appointment: %w", err)
		}
		rows, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrStaleState
		}
		return nil
	})
}

func (r *visitRepository) ListByPatient(ctx context.Context, patientID int64) ([]*model.Visit, error) {
	query := `
		SELECT visit_id, appointment_id, patient_id, doctor_id, visit_time,
		       symptoms, diagnosis, notes, created_at
		FROM visits
		WHERE patient_id = $1
		ORDER BY visit_time DESC
	`
	var visits []*model.Visit
	if err := r.db.SelectContext(ctx, &visits, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	return visits, nil
}

func (r *visitRepository) ListByDoctor(ctx context.Context, doctorID int64, from, to time.Time) ([]*model.Visit, error) {
	query := `
		SELECT visit_id, appointment_id, patient_id, doctor_id, visit_time,
		       symptoms, diagnosis, notes, created_at
		FROM visits
		WHERE doctor_id = $1
		AND visit_time >= $2
		AND visit_time <= $3
		ORDER BY visit_time DESC
	`
	var visits []*model.Visit
	if err := r.db.SelectContext(ctx, &visits, query, doctorID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	return visits, nil
}
