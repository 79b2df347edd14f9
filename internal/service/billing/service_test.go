package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
	"github.com/lmezzz/hms-api/internal/service/event"
	apperr "github.com/lmezzz/hms-api/pkg/errors"
	"github.com/lmezzz/hms-api/pkg/logger"
)

type fakeBillingRepo struct {
	bills      map[int64]*model.Bill
	items      map[int64][]*model.BillItem
	payments   map[int64][]*model.Payment
	warnings   []model.StockWarning
	low        []*model.Medication
	deductions int
	nextID     int64
}

func newFakeBillingRepo() *fakeBillingRepo {
	return &fakeBillingRepo{
		bills:    make(map[int64]*model.Bill),
		items:    make(map[int64][]*model.BillItem),
		payments: make(map[int64][]*model.Payment),
	}
}

func (f *fakeBillingRepo) CreateBill(ctx context.Context, bill *model.Bill, items []*model.BillItem) error {
	f.nextID++
	bill.ID = f.nextID
	bill.Status = model.BillStatusUnpaid
	bill.CreatedAt = time.Now()
	f.bills[bill.ID] = bill
	for _, item := range items {
		item.BillID = bill.ID
	}
	f.items[bill.ID] = items
	return nil
}

func (f *fakeBillingRepo) GetBill(ctx context.Context, id int64) (*model.Bill, error) {
	bill, ok := f.bills[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *bill
	return &copied, nil
}

func (f *fakeBillingRepo) ListBills(ctx context.Context, filters *model.BillFilters) ([]*model.Bill, error) {
	var out []*model.Bill
	for _, b := range f.bills {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBillingRepo) ListItems(ctx context.Context, billID int64) ([]*model.BillItem, error) {
	return f.items[billID], nil
}

func (f *fakeBillingRepo) ListPayments(ctx context.Context, billID int64) ([]*model.Payment, error) {
	return f.payments[billID], nil
}

// AddPayment mirrors the transactional contract: the sum and the derived
// status come from the committed payment rows at write time, never from
// state the caller read earlier.
func (f *fakeBillingRepo) AddPayment(ctx context.Context, payment *model.Payment) (model.BillStatus, float64, error) {
	bill, ok := f.bills[payment.BillID]
	if !ok {
		return "", 0, repository.ErrNotFound
	}
	if bill.Status == model.BillStatusPaid {
		return "", 0, repository.ErrStaleState
	}
	payment.PaymentTime = time.Now()
	f.payments[payment.BillID] = append(f.payments[payment.BillID], payment)

	var paid float64
	for _, p := range f.payments[payment.BillID] {
		paid += p.AmountPaid
	}
	status := model.BillStatusFor(bill.TotalAmount, paid)
	bill.Status = status
	return status, paid, nil
}

func (f *fakeBillingRepo) DeductPrescriptionStock(ctx context.Context, billID int64) ([]model.StockWarning, []*model.Medication, error) {
	f.deductions++
	return f.warnings, f.low, nil
}

type fakeOutboxRepo struct {
	events []*model.OutboxEvent
}

func (f *fakeOutboxRepo) Create(ctx context.Context, evt *model.OutboxEvent) error {
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeOutboxRepo) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeOutboxRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	return nil
}

func (f *fakeOutboxRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func ref(id int64) *int64 {
	return &id
}

func newTestService(repo *fakeBillingRepo, policy string) (*Service, *fakeOutboxRepo) {
	outbox := &fakeOutboxRepo{}
	log := logger.NewLogger(nil)
	events := event.NewService(outbox, log)
	return NewService(repo, events, log, policy), outbox
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name  string
		total float64
		paid  float64
		want  model.BillStatus
	}{
		{"zero total is paid from the start", 0, 0, model.BillStatusPaid},
		{"nothing paid", 100, 0, model.BillStatusUnpaid},
		{"partially paid", 100, 50, model.BillStatusPartial},
		{"exactly paid", 100, 100, model.BillStatusPaid},
		{"overpaid", 100, 150, model.BillStatusPaid},
		{"tiny payment is partial", 100, 0.01, model.BillStatusPartial},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusFor(tc.total, tc.paid))
		})
	}
}

func TestComputeBalance(t *testing.T) {
	payments := []*model.Payment{
		{AmountPaid: 400},
		{AmountPaid: 100},
	}

	assert.Equal(t, 500.0, ComputeBalance(1000, payments))
	assert.Equal(t, 0.0, ComputeBalance(500, payments))
	assert.Equal(t, -100.0, ComputeBalance(400, payments))
	assert.Equal(t, 250.0, ComputeBalance(250, nil))

	// Total always equals paid plus balance.
	assert.Equal(t, 1000.0, TotalPaid(payments)+ComputeBalance(1000, payments))
}

func TestCreateBillSumsItems(t *testing.T) {
	repo := newFakeBillingRepo()
	svc, _ := newTestService(repo, model.StockDeductionOnPayment)

	bill, err := svc.CreateBill(context.Background(), &model.CreateBillRequest{
		PatientID: 1,
		Items: []model.CreateBillItemRequest{
			{ItemType: model.BillItemConsultation, Quantity: 1, Amount: 500},
			{ItemType: model.BillItemLabTest, Quantity: 1, Amount: 300},
			{ItemType: model.BillItemPrescription, ReferenceID: ref(1), Quantity: 2, Amount: 200},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1000.0, bill.TotalAmount)
	assert.Equal(t, model.BillStatusUnpaid, bill.Status)
	assert.Len(t, repo.items[bill.ID], 3)
}

func TestCreateBillRejectsUnreferencedPrescriptionItem(t *testing.T) {
	repo := newFakeBillingRepo()
	svc, _ := newTestService(repo, model.StockDeductionOnPayment)

	_, err := svc.CreateBill(context.Background(), &model.CreateBillRequest{
		PatientID: 1,
		Items: []model.CreateBillItemRequest{
			{ItemType: model.BillItemPrescription, Quantity: 1, Amount: 200},
		},
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.ErrValidation))
	assert.Empty(t, repo.bills)
}

func TestRecordPaymentLifecycle(t *testing.T) {
	repo := newFakeBillingRepo()
	svc, outbox := newTestService(repo, model.StockDeductionOnPayment)

	bill, err := svc.CreateBill(context.Background(), &model.CreateBillRequest{
		PatientID: 1,
		Items: []model.CreateBillItemRequest{
			{ItemType: model.BillItemConsultation, Quantity: 1, Amount: 1000},
		},
	})
	require.NoError(t, err)

	// First payment covers part of the bill.
	partial, err := svc.RecordPayment(context.Background(), bill.ID, &model.RecordPaymentRequest{
		Amount: 400, Method: "Cash",
	})
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusPartial, partial.Status)
	assert.Equal(t, 400.0, partial.TotalPaid)
	assert.Equal(t, 600.0, partial.Balance)
	assert.Zero(t, repo.deductions, "stock must not move before the bill is fully paid")
	assert.Empty(t, outbox.events)

	// Second payment settles it; stock is deducted exactly once.
	final, err := svc.RecordPayment(context.Background(), bill.ID, &model.RecordPaymentRequest{
		Amount: 600, Method: "Card",
	})
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusPaid, final.Status)
	assert.Equal(t, 1000.0, final.TotalPaid)
	assert.Equal(t, 0.0, final.Balance)
	assert.Equal(t, 1, repo.deductions)
	require.Len(t, outbox.events, 1)
	assert.Equal(t, model.EventBillPaid, outbox.events[0].EventType)

	// A paid bill rejects further payments, so deduction cannot repeat.
	_, err = svc.RecordPayment(context.Background(), bill.ID, &model.RecordPaymentRequest{
		Amount: 50, Method: "Cash",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.ErrConflict))
	assert.Equal(t, 1, repo.deductions)
}

func TestRecordPaymentCountsConcurrentlyCommittedPayments(t *testing.T) {
	repo := newFakeBillingRepo()
	svc, _ := newTestService(repo, model.StockDeductionOnPayment)

	bill, err := svc.CreateBill(context.Background(), &model.CreateBillRequest{
		PatientID: 1,
		Items: []model.CreateBillItemRequest{
			{ItemType: model.BillItemConsultation, Quantity: 1, Amount: 1000},
		},
	})
	require.NoError(t, err)

	// A payment from another request commits after this bill was read but
	// before this payment lands. The in-transaction sum must still see it.
	repo.payments[bill.ID] = append(repo.payments[bill.ID], &model.Payment{
		BillID: bill.ID, AmountPaid: 600, PaymentTime: time.Now(),
	})
	repo.bills[bill.ID].Status = model.BillStatusPartial

	result, err := svc.RecordPayment(context.Background(), bill.ID, &model.RecordPaymentRequest{
		Amount: 600, Method: "Card",
	})
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusPaid, result.Status)
	assert.Equal(t, 1200.0, result.TotalPaid)
	assert.Equal(t, -200.0, result.Balance)
	assert.Equal(t, 1, repo.deductions, "the payment that crossed the total must trigger the deduction")
}

func TestRecordPaymentOverpayment(t *testing.T) {
	repo := newFakeBillingRepo()
	svc, _ := newTestService(repo, model.StockDeductionOnPayment)

	bill, err := svc.CreateBill(context.Background(), &model.CreateBillRequest{
		PatientID: 1,
		Items: []model.CreateBillItemRequest{
			{ItemType: model.BillItemConsultation, Quantity: 1, Amount: 100},
		},
	})
	require.NoError(t, err)

	result, err := svc.RecordPayment(context.Background(), bill.ID, &model.RecordPaymentRequest{
		Amount: 150, Method: "Online",
	})
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusPaid, result.Status)
	assert.Equal(t, -50.0, result.Balance)
}

func TestRecordPaymentSurfacesStockWarnings(t *testing.T) {
	repo := newFakeBillingRepo()
	repo.warnings = []model.StockWarning{
		{MedicationID: 7, MedicationName: "Amoxicillin", Requested: 20, InStock: 5},
	}
	svc, _ := newTestService(repo, model.StockDeductionOnPayment)

	bill, err := svc.CreateBill(context.Background(), &model.CreateBillRequest{
		PatientID: 1,
		Items: []model.CreateBillItemRequest{
			{ItemType: model.BillItemPrescription, ReferenceID: ref(1), Quantity: 1, Amount: 200},
		},
	})
	require.NoError(t, err)

	result, err := svc.RecordPayment(context.Background(), bill.ID, &model.RecordPaymentRequest{
		Amount: 200, Method: "Cash",
	})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "Amoxicillin", result.Warnings[0].MedicationName)
	assert.Equal(t, 20, result.Warnings[0].Requested)
	assert.Equal(t, 5, result.Warnings[0].InStock)
}

func TestRecordPaymentEmitsLowStockEvents(t *testing.T) {
	repo := newFakeBillingRepo()
	repo.low = []*model.Medication{
		{ID: 3, Name: "Insulin", StockQuantity: 2, LowStockThreshold: 10},
	}
	svc, outbox := newTestService(repo, model.StockDeductionOnPayment)

	bill, err := svc.CreateBill(context.Background(), &model.CreateBillRequest{
		PatientID: 1,
		Items: []model.CreateBillItemRequest{
			{ItemType: model.BillItemPrescription, ReferenceID: ref(1), Quantity: 1, Amount: 200},
		},
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), bill.ID, &model.RecordPaymentRequest{
		Amount: 200, Method: "Cash",
	})
	require.NoError(t, err)

	var types []string
	for _, evt := range outbox.events {
		types = append(types, evt.EventType)
	}
	assert.Contains(t, types, model.EventMedicationLowStock)
	assert.Contains(t, types, model.EventBillPaid)
}

func TestRecordPaymentDispensePolicySkipsDeduction(t *testing.T) {
	repo := newFakeBillingRepo()
	svc, _ := newTestService(repo, model.StockDeductionOnDispense)

	bill, err := svc.CreateBill(context.Background(), &model.CreateBillRequest{
		PatientID: 1,
		Items: []model.CreateBillItemRequest{
			{ItemType: model.BillItemPrescription, ReferenceID: ref(1), Quantity: 1, Amount: 300},
		},
	})
	require.NoError(t, err)

	result, err := svc.RecordPayment(context.Background(), bill.ID, &model.RecordPaymentRequest{
		Amount: 300, Method: "Cash",
	})
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusPaid, result.Status)
	assert.Zero(t, repo.deductions, "dispense-time policy defers deduction to the pharmacy")
}

func TestRecordPaymentUnknownBill(t *testing.T) {
	repo := newFakeBillingRepo()
	svc, _ := newTestService(repo, model.StockDeductionOnPayment)

	_, err := svc.RecordPayment(context.Background(), 42, &model.RecordPaymentRequest{
		Amount: 10, Method: "Cash",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.ErrNotFound))
}

func TestGetBillSummary(t *testing.T) {
	repo := newFakeBillingRepo()
	svc, _ := newTestService(repo, model.StockDeductionOnPayment)

	bill, err := svc.CreateBill(context.Background(), &model.CreateBillRequest{
		PatientID: 1,
		Items: []model.CreateBillItemRequest{
			{ItemType: model.BillItemConsultation, Quantity: 1, Amount: 800},
		},
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), bill.ID, &model.RecordPaymentRequest{
		Amount: 300, Method: "Cash",
	})
	require.NoError(t, err)

	summary, err := svc.GetBillSummary(context.Background(), bill.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, summary.TotalPaid)
	assert.Equal(t, 500.0, summary.Balance)
	assert.Equal(t, model.BillStatusPartial, summary.Status)
	assert.Len(t, summary.Payments, 1)
}
