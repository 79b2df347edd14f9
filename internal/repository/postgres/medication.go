package postgres

import (
	"context"
	"fmt"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
)

type medicationRepository struct {
	BaseRepository
}

func NewMedicationRepository(base BaseRepository) repository.MedicationRepository {
	return &medicationRepository{base}
}

func (r *medicationRepository) Create(ctx context.Context, medication *model.Medication) error {
	query := `
		INSERT INTO medications (name, description, unit_price, stock_quantity, low_stock_threshold)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING medication_id
	`
	err := r.db.GetContext(ctx, &medication.ID, query,
		medication.Name,
		medication.Description,
		medication.UnitPrice,
		medication.StockQuantity,
		medication.LowStockThreshold,
	)
	if err != nil {
		if err = translateErr(err); err == repository.ErrDuplicate {
			return err
		}
		return fmt.Errorf("failed to create medication: %w", err)
	}
	return nil
}

func (r *medicationRepository) Get(ctx context.Context, id int64) (*model.Medication, error) {
	query := `
		SELECT medication_id, name, description, unit_price, stock_quantity, low_stock_threshold
		FROM medications
		WHERE medication_id = $1
	`
	var medication model.Medication
	if err := r.db.GetContext(ctx, &medication, query, id); err != nil {
		return nil, translateErr(err)
	}
	return &medication, nil
}

func (r *medicationRepository) Update(ctx context.Context, medication *model.Medication) error {
	query := `
		UPDATE medications
		SET name = $1, description = $2, unit_price = $3, low_stock_threshold = $4
		WHERE medication_id = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		medication.Name,
		medication.Description,
		medication.UnitPrice,
		medication.LowStockThreshold,
		medication.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update medication: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *medicationRepository) List(ctx context.Context, search string) ([]*model.Medication, error) {
	query := `
		SELECT medication_id, name, description, unit_price, stock_quantity, low_stock_threshold
		FROM medications
	`
	args := []interface{}{}
	if search != "" {
		query += " WHERE name ILIKE $1"
		args = append(args, "%"+search+"%")
	}
	query += " ORDER BY name ASC"

	var medications []*model.Medication
	if err := r.db.SelectContext(ctx, &medications, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	return medications, nil
}

func (r *medicationRepository) ListLowStock(ctx context.Context) ([]*model.Medication, error) {
	query := `
		SELECT medication_id, name, description, unit_price, stock_quantity, low_stock_threshold
		FROM medications
		WHERE stock_quantity <= low_stock_threshold
		ORDER BY stock_quantity ASC
	`
	var medications []*model.Medication
	if err := r.db.SelectContext(ctx, &medications, query); err != nil {
		return nil, fmt.Errorf("failed to list low stock medications: %w", err)
	}
	return medications, nil
}

// AdjustStock is a single conditional update; it never lets stock go negative.
func (r *medicationRepository) AdjustStock(ctx context.Context, id int64, delta int) (int, error) {
	query := `
		UPDATE medications
		SET stock_quantity = stock_quantity + $1
		WHERE medication_id = $2
		AND stock_quantity + $1 >= 0
		RETURNING stock_quantity
	`
	var quantity int
	err := r.db.GetContext(ctx, &quantity, query, delta, id)
	if err != nil {
		if translateErr(err) == repository.ErrNotFound {
			// Either the row is missing or stock cannot cover the delta.
			if _, getErr := r.Get(ctx, id); getErr != nil {
				return 0, getErr
			}
			return 0, repository.ErrInsufficient
		}
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}
	return quantity, nil
}
