package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
)

type prescriptionRepository struct {
	BaseRepository
}

func NewPrescriptionRepository(base BaseRepository) repository.PrescriptionRepository {
	return &prescriptionRepository{base}
}

func (r *prescriptionRepository) Create(ctx context.Context, prescription *model.Prescription) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		insert := `
			INSERT INTO prescriptions (visit_id, doctor_id, status, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING prescription_id
		`
		prescription.Status = model.PrescriptionStatusPending
		prescription.CreatedAt = time.Now()

		if err := tx.GetContext(ctx, &prescription.ID, insert,
			prescription.VisitID,
			prescription.DoctorID,
			prescription.Status,
			prescription.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to create prescription: %w", err)
		}

		itemInsert := `
			INSERT INTO prescription_items (prescription_id, medication_id, dosage, frequency, duration, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING prescription_item_id
		`
		for _, item := range prescription.Items {
			item.PrescriptionID = prescription.ID
			if err := tx.GetContext(ctx, &item.ID, itemInsert,
				item.PrescriptionID,
				item.MedicationID,
				item.Dosage,
				item.Frequency,
				item.Duration,
				item.Quantity,
			); err != nil {
				return fmt.Errorf("failed to create prescription item: %w", err)
			}
		}
		return nil
	})
}

func (r *prescriptionRepository) Get(ctx context.Context, id int64) (*model.Prescription, error) {
	query := `
		SELECT prescription_id, visit_id, doctor_id, status, created_at
		FROM prescriptions
		WHERE prescription_id = $1
	`
	var prescription model.Prescription
	if err := r.db.GetContext(ctx, &prescription, query, id); err != nil {
		return nil, translateErr(err)
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	prescription.Items = items
	return &prescription, nil
}

func (r *prescriptionRepository) listItems(ctx context.Context, prescriptionID int64) ([]*model.PrescriptionItem, error) {
	query := `
		SELECT i.prescription_item_id, i.prescription_id, i.medication_id,
		       i.dosage, i.frequency, i.duration, i.quantity,
		       m.name AS medication_name
		FROM prescription_items i
		JOIN medications m ON m.medication_id = i.medication_id
		WHERE i.prescription_id = $1
		ORDER BY i.prescription_item_id
	`
	var items []*model.PrescriptionItem
	if err := r.db.SelectContext(ctx, &items, query, prescriptionID); err != nil {
		return nil, fmt.Errorf("failed to list prescription items: %w", err)
	}
	return items, nil
}

func (r *prescriptionRepository) ListByVisit(ctx context.Context, visitID int64) ([]*model.Prescription, error) {
	query := `
		SELECT prescription_id, visit_id, doctor_id, status, created_at
		FROM prescriptions
		WHERE visit_id = $1
		ORDER BY created_at DESC
	`
	var prescriptions []*model.Prescription
	if err := r.db.SelectContext(ctx, &prescriptions, query, visitID); err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}

	for _, p := range prescriptions {
		items, err := r.listItems(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Items = items
	}
	return prescriptions, nil
}

// Delete hard-deletes; only pending prescriptions may be removed, items go
// with the parent.
func (r *prescriptionRepository) Delete(ctx context.Context, id int64) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM prescription_items WHERE prescription_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete prescription items: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM prescriptions WHERE prescription_id = $1 AND status = $2`,
			id, model.PrescriptionStatusPending)
		if err != nil {
			return fmt.Errorf("failed to delete prescription: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrStaleState
		}
		return nil
	})
}

func (r *prescriptionRepository) MarkDispensed(ctx context.Context, id int64) error {
	query := `
		UPDATE prescriptions
		SET status = $1
		WHERE prescription_id = $2
		AND status = $3
	`
	result, err := r.db.ExecContext(ctx, query,
		model.PrescriptionStatusDispensed,
		id,
		model.PrescriptionStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to mark prescription dispensed: %w", err)
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
