package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
)

type labRepository struct {
	BaseRepository
}

func NewLabRepository(base BaseRepository) repository.LabRepository {
	return &labRepository{base}
}

func (r *labRepository) CreateTest(ctx context.Context, test *model.LabTest) error {
	query := `
		INSERT INTO lab_tests (test_name, category, cost, description)
		VALUES ($1, $2, $3, $4)
		RETURNING lab_test_id
	`
	err := r.db.GetContext(ctx, &test.ID, query,
		test.TestName,
		test.Category,
		test.Cost,
		test.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to create lab test: %w", err)
	}
	return nil
}

func (r *labRepository) GetTest(ctx context.Context, id int64) (*model.LabTest, error) {
	query := `
		SELECT lab_test_id, test_name, category, cost, description
		FROM lab_tests
		WHERE lab_test_id = $1
	`
	var test model.LabTest
	if err := r.db.GetContext(ctx, &test, query, id); err != nil {
		return nil, translateErr(err)
	}
	return &test, nil
}

func (r *labRepository) ListTests(ctx context.Context) ([]*model.LabTest, error) {
	query := `
		SELECT lab_test_id, test_name, category, cost, description
		FROM lab_tests
		ORDER BY test_name ASC
	`
	var tests []*model.LabTest
	if err := r.db.SelectContext(ctx, &tests, query); err != nil {
		return nil, fmt.Errorf("failed to list lab tests: %w", err)
	}
	return tests, nil
}

func (r *labRepository) CreateOrder(ctx context.Context, order *model.LabOrder) error {
	query := `
		INSERT INTO lab_orders (visit_id, patient_id, doctor_id, lab_test_id, priority, status, order_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING lab_order_id
	`
	order.Status = model.LabOrderStatusPending
	order.OrderTime = time.Now()

	err := r.db.GetContext(ctx, &order.ID, query,
		order.VisitID,
		order.PatientID,
		order.DoctorID,
		order.LabTestID,
		order.Priority,
		order.Status,
		order.OrderTime,
	)
	if err != nil {
		return fmt.Errorf("failed to create lab order: %w", err)
	}
	return nil
}

func (r *labRepository) GetOrder(ctx context.Context, id int64) (*model.LabOrder, error) {
	query := `
		SELECT o.lab_order_id, o.visit_id, o.patient_id, o.doctor_id, o.lab_test_id,
		       o.priority, o.status, o.order_time, o.sample_time, o.completed_time,
		       t.test_name
		FROM lab_orders o
		JOIN lab_tests t ON t.lab_test_id = o.lab_test_id
		WHERE o.lab_order_id = $1
	`
	var order model.LabOrder
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		return nil, translateErr(err)
	}
	return &order, nil
}

func (r *labRepository) ListOrders(ctx context.Context, status model.LabOrderStatus, patientID *int64) ([]*model.LabOrder, error) {
	query := `
		SELECT o.lab_order_id, o.visit_id, o.patient_id, o.doctor_id, o.lab_test_id,
		       o.priority, o.status, o.order_time, o.sample_time, o.completed_time,
		       t.test_name
		FROM lab_orders o
		JOIN lab_tests t ON t.lab_test_id = o.lab_test_id
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if status != "" {
		query += fmt.Sprintf(" AND o.status = $%d", argCount)
		args = append(args, status)
		argCount++
	}
	if patientID != nil {
		query += fmt.Sprintf(" AND o.patient_id = $%d", argCount)
		args = append(args, *patientID)
		argCount++
	}

	query += " ORDER BY o.order_time DESC"

	var orders []*model.LabOrder
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list lab orders: %w", err)
	}
	return orders, nil
}

func (r *labRepository) UpdateOrderStatus(ctx context.Context, id int64, from, to model.LabOrderStatus) error {
	query := `
		UPDATE lab_orders
		SET status = $1, sample_time = CASE WHEN $1 = 'InProgress' THEN now() ELSE sample_time END
		WHERE lab_order_id = $2
		AND status = $3
	`
	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update lab order status: %w", err)
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

func (r *labRepository) AddResult(ctx context.Context, labResult *model.LabResult) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		complete := `
			UPDATE lab_orders
			SET status = $1, completed_time = now()
			WHERE lab_order_id = $2
			AND status = $3
		`
		result, err := tx.ExecContext(ctx, complete,
			model.LabOrderStatusCompleted,
			labResult.LabOrderID,
			model.LabOrderStatusInProgress,
		)
		if err != nil {
			return fmt.Errorf("failed to complete lab order: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrStaleState
		}

		insert := `
			INSERT INTO lab_results (lab_order_id, result_text, file_path, uploaded_by, uploaded_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING lab_result_id
		`
		labResult.UploadedAt = time.Now()

		if err := tx.GetContext(ctx, &labResult.ID, insert,
			labResult.LabOrderID,
			labResult.ResultText,
			labResult.FilePath,
			labResult.UploadedBy,
			labResult.UploadedAt,
		); err != nil {
			return fmt.Errorf("failed to create lab result: %w", err)
		}
		return nil
	})
}
