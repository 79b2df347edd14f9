package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
)

type billingRepository struct {
	BaseRepository
}

func NewBillingRepository(base BaseRepository) repository.BillingRepository {
	return &billingRepository{base}
}

func (r *billingRepository) CreateBill(ctx context.Context, bill *model.Bill, items []*model.BillItem) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		insert := `
			INSERT INTO bills (patient_id, total_amount, status, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING bill_id
		`
		bill.Status = model.BillStatusUnpaid
		bill.CreatedAt = time.Now()

		if err := tx.GetContext(ctx, &bill.ID, insert,
			bill.PatientID,
			bill.TotalAmount,
			bill.Status,
			bill.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to create bill: %w", err)
		}

		itemInsert := `
			INSERT INTO bill_items (bill_id, item_type, reference_id, description, quantity, amount)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING bill_item_id
		`
		for _, item := range items {
			item.BillID = bill.ID
			if err := tx.GetContext(ctx, &item.ID, itemInsert,
				item.BillID,
				item.ItemType,
				item.ReferenceID,
				item.Description,
				item.Quantity,
				item.Amount,
			); err != nil {
				return fmt.Errorf("failed to create bill item: %w", err)
			}
		}
		return nil
	})
}

func (r *billingRepository) GetBill(ctx context.Context, id int64) (*model.Bill, error) {
	query := `
		SELECT b.bill_id, b.patient_id, b.total_amount, b.status, b.created_at,
		       p.full_name AS patient_name
		FROM bills b
		JOIN patients p ON p.patient_id = b.patient_id
		WHERE b.bill_id = $1
	`
	var bill model.Bill
	if err := r.db.GetContext(ctx, &bill, query, id); err != nil {
		return nil, translateErr(err)
	}
	return &bill, nil
}

func (r *billingRepository) ListBills(ctx context.Context, filters *model.BillFilters) ([]*model.Bill, error) {
	query := `
		SELECT b.bill_id, b.patient_id, b.total_amount, b.status, b.created_at,
		       p.full_name AS patient_name
		FROM bills b
		JOIN patients p ON p.patient_id = b.patient_id
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.PatientID != nil {
			query += fmt.Sprintf(" AND b.patient_id = $%d", argCount)
			args = append(args, *filters.PatientID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND b.status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
	}

	query += " ORDER BY b.created_at DESC"

	var bills []*model.Bill
	if err := r.db.SelectContext(ctx, &bills, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	return bills, nil
}

func (r *billingRepository) ListItems(ctx context.Context, billID int64) ([]*model.BillItem, error) {
	query := `
		SELECT bill_item_id, bill_id, item_type, reference_id, description, quantity, amount
		FROM bill_items
		WHERE bill_id = $1
		ORDER BY bill_item_id
	`
	var items []*model.BillItem
	if err := r.db.SelectContext(ctx, &items, query, billID); err != nil {
		return nil, fmt.Errorf("failed to list bill items: %w", err)
	}
	return items, nil
}

func (r *billingRepository) ListPayments(ctx context.Context, billID int64) ([]*model.Payment, error) {
	query := `
		SELECT payment_id, bill_id, amount_paid, payment_method, reference, payment_time
		FROM payments
		WHERE bill_id = $1
		ORDER BY payment_time ASC
	`
	var payments []*model.Payment
	if err := r.db.SelectContext(ctx, &payments, query, billID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// AddPayment keeps the payment insert, the payment re-sum, and the status
// write in one transaction. The FOR UPDATE lock serializes concurrent
// payments on the same bill, so each one derives its status from a sum that
// includes every committed payment; a later payment against a Paid bill
// fails and rolls back its insert.
func (r *billingRepository) AddPayment(ctx context.Context, payment *model.Payment) (model.BillStatus, float64, error) {
	var status model.BillStatus
	var paid float64

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var bill struct {
			TotalAmount float64          `db:"total_amount"`
			Status      model.BillStatus `db:"status"`
		}
		lock := `SELECT total_amount, status FROM bills WHERE bill_id = $1 FOR UPDATE`
		if err := tx.GetContext(ctx, &bill, lock, payment.BillID); err != nil {
			return translateErr(err)
		}
		if bill.Status == model.BillStatusPaid {
			return repository.ErrStaleState
		}

		insert := `
			INSERT INTO payments (bill_id, amount_paid, payment_method, reference, payment_time)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING payment_id
		`
		payment.PaymentTime = time.Now()

		if err := tx.GetContext(ctx, &payment.ID, insert,
			payment.BillID,
			payment.AmountPaid,
			payment.PaymentMethod,
			payment.Reference,
			payment.PaymentTime,
		); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		sum := `SELECT COALESCE(SUM(amount_paid), 0) FROM payments WHERE bill_id = $1`
		if err := tx.GetContext(ctx, &paid, sum, payment.BillID); err != nil {
			return fmt.Errorf("failed to sum payments: %w", err)
		}
		status = model.BillStatusFor(bill.TotalAmount, paid)

		update := `UPDATE bills SET status = $1 WHERE bill_id = $2`
		if _, err := tx.ExecContext(ctx, update, status, payment.BillID); err != nil {
			return fmt.Errorf("failed to update bill status: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", 0, err
	}
	return status, paid, nil
}

// DeductPrescriptionStock decrements stock medication by medication with a
// conditional update; a row whose stock cannot cover the prescribed quantity
// is skipped and reported, never driven negative.
func (r *billingRepository) DeductPrescriptionStock(ctx context.Context, billID int64) ([]model.StockWarning, []*model.Medication, error) {
	type deduction struct {
		MedicationID int64  `db:"medication_id"`
		Name         string `db:"name"`
		Quantity     int    `db:"quantity"`
		InStock      int    `db:"stock_quantity"`
		Threshold    int    `db:"low_stock_threshold"`
	}

	var warnings []model.StockWarning
	var low []*model.Medication

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		lookup := `
			SELECT pi.medication_id, m.name, pi.quantity, m.stock_quantity, m.low_stock_threshold
			FROM bill_items bi
			JOIN prescriptions p ON p.prescription_id = bi.reference_id
			JOIN prescription_items pi ON pi.prescription_id = p.prescription_id
			JOIN medications m ON m.medication_id = pi.medication_id
			WHERE bi.bill_id = $1
			AND bi.item_type = $2
			ORDER BY pi.prescription_item_id
		`
		var deductions []deduction
		if err := tx.SelectContext(ctx, &deductions, lookup, billID, model.BillItemPrescription); err != nil {
			return fmt.Errorf("failed to resolve prescription items: %w", err)
		}

		deduct := `
			UPDATE medications
			SET stock_quantity = stock_quantity - $1
			WHERE medication_id = $2
			AND stock_quantity >= $1
			RETURNING stock_quantity
		`
		for _, d := range deductions {
			var remaining int
			err := tx.GetContext(ctx, &remaining, deduct, d.Quantity, d.MedicationID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					warnings = append(warnings, model.StockWarning{
						MedicationID:   d.MedicationID,
						MedicationName: d.Name,
						Requested:      d.Quantity,
						InStock:        d.InStock,
					})
					continue
				}
				return fmt.Errorf("failed to deduct stock: %w", err)
			}
			if remaining <= d.Threshold {
				low = append(low, &model.Medication{
					ID:                d.MedicationID,
					Name:              d.Name,
					StockQuantity:     remaining,
					LowStockThreshold: d.Threshold,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return warnings, low, nil
}
