package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
	"github.com/lmezzz/hms-api/internal/service/event"
	apperr "github.com/lmezzz/hms-api/pkg/errors"
	"github.com/lmezzz/hms-api/pkg/logger"
)

type Service struct {
	bills  repository.BillingRepository
	events *event.Service
	logger *logger.Logger

	// stockPolicy decides when prescription stock is deducted:
	// model.StockDeductionOnPayment or model.StockDeductionOnDispense.
	stockPolicy string
}

func NewService(bills repository.BillingRepository, events *event.Service, logger *logger.Logger, stockPolicy string) *Service {
	if stockPolicy != model.StockDeductionOnDispense {
		stockPolicy = model.StockDeductionOnPayment
	}
	return &Service{
		bills:       bills,
		events:      events,
		logger:      logger,
		stockPolicy: stockPolicy,
	}
}

// ComputeBalance returns the outstanding amount on a bill. Overpayment drives
// the balance negative rather than clamping, so refunds stay visible.
func ComputeBalance(total float64, payments []*model.Payment) float64 {
	return total - TotalPaid(payments)
}

// TotalPaid sums the payments recorded against a bill.
func TotalPaid(payments []*model.Payment) float64 {
	var paid float64
	for _, p := range payments {
		paid += p.AmountPaid
	}
	return paid
}

// StatusFor derives a bill's status from its total and the amount paid so
// far. A zero-total bill counts as Paid from the start.
func StatusFor(total, paid float64) model.BillStatus {
	return model.BillStatusFor(total, paid)
}

// CreateBill opens a bill for a patient. The total is the sum of the line
// amounts; the bill starts Unpaid.
func (s *Service) CreateBill(ctx context.Context, req *model.CreateBillRequest) (*model.Bill, error) {
	items := make([]*model.BillItem, 0, len(req.Items))
	var total float64
	for _, it := range req.Items {
		if it.ItemType == model.BillItemPrescription && it.ReferenceID == nil {
			return nil, apperr.Validation("prescription bill items require a reference_id", nil)
		}
		items = append(items, &model.BillItem{
			ItemType:    it.ItemType,
			ReferenceID: it.ReferenceID,
			Description: it.Description,
			Quantity:    it.Quantity,
			Amount:      it.Amount,
		})
		total += it.Amount
	}

	bill := &model.Bill{
		PatientID:   req.PatientID,
		TotalAmount: total,
	}
	if err := s.bills.CreateBill(ctx, bill, items); err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to create bill: %w", err))
	}
	return bill, nil
}

// GetBillSummary returns the bill with its items, payments, and derived
// financials.
func (s *Service) GetBillSummary(ctx context.Context, id int64) (*model.BillSummary, error) {
	bill, err := s.bills.GetBill(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("bill", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to get bill: %w", err))
	}

	items, err := s.bills.ListItems(ctx, id)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to list bill items: %w", err))
	}
	payments, err := s.bills.ListPayments(ctx, id)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to list payments: %w", err))
	}

	paid := TotalPaid(payments)
	return &model.BillSummary{
		Bill:      *bill,
		Items:     items,
		Payments:  payments,
		TotalPaid: paid,
		Balance:   bill.TotalAmount - paid,
	}, nil
}

func (s *Service) ListBills(ctx context.Context, filters *model.BillFilters) ([]*model.Bill, error) {
	bills, err := s.bills.ListBills(ctx, filters)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to list bills: %w", err))
	}
	return bills, nil
}

// RecordPayment applies a payment to a bill. The payment row and the derived
// status land in one transaction. When the bill crosses into Paid and the
// deduction policy is payment-time, prescription stock is deducted once;
// medications that cannot cover their quantity come back as warnings, never
// as a silent skip.
func (s *Service) RecordPayment(ctx context.Context, billID int64, req *model.RecordPaymentRequest) (*model.PaymentResult, error) {
	bill, err := s.bills.GetBill(ctx, billID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("bill", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to get bill: %w", err))
	}
	if bill.Status == model.BillStatusPaid {
		return nil, apperr.Conflict("bill is already paid", nil)
	}

	payment := &model.Payment{
		BillID:        billID,
		AmountPaid:    req.Amount,
		PaymentMethod: req.Method,
		Reference:     uuid.NewString(),
	}
	// The repository re-sums payments and derives the status inside the
	// payment transaction, so a payment committed by a concurrent request
	// is always counted here.
	status, paid, err := s.bills.AddPayment(ctx, payment)
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, apperr.Conflict("bill is already paid", err)
		}
		return nil, apperr.Storage(fmt.Errorf("failed to record payment: %w", err))
	}

	result := &model.PaymentResult{
		Payment:   payment,
		Status:    status,
		TotalPaid: paid,
		Balance:   bill.TotalAmount - paid,
	}

	// Only the payment whose transaction moved the bill into Paid gets
	// here with that status, so the deduction runs once.
	if status == model.BillStatusPaid && s.stockPolicy == model.StockDeductionOnPayment {
		warnings, low, err := s.bills.DeductPrescriptionStock(ctx, billID)
		if err != nil {
			return nil, apperr.Storage(fmt.Errorf("failed to deduct prescription stock: %w", err))
		}
		result.Warnings = warnings
		for _, w := range warnings {
			s.logger.Warn(fmt.Sprintf("insufficient stock for medication %d (%s): requested %d, in stock %d",
				w.MedicationID, w.MedicationName, w.Requested, w.InStock))
		}
		for _, med := range low {
			s.events.Emit(ctx, model.EventMedicationLowStock, med)
		}
	}

	if status == model.BillStatusPaid {
		s.events.Emit(ctx, model.EventBillPaid, result)
	}
	return result, nil
}
