package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lmezzz/hms-api/internal/model"
)

// Sentinel errors returned by implementations; services translate them into
// user-facing error codes.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("duplicate record")
	ErrSlotTaken    = errors.New("slot unavailable")
	ErrStaleState   = errors.New("state changed concurrently")
	ErrInsufficient = errors.New("insufficient stock")
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id int64) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Deactivate(ctx context.Context, id int64) error
		List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error)
		ListRoles(ctx context.Context) ([]*model.Role, error)
		GetRole(ctx context.Context, id int64) (*model.Role, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id int64) (*model.Patient, error)
		GetByUserID(ctx context.Context, userID int64) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	}

	ScheduleRepository interface {
		// InsertSlots inserts the given slots, silently skipping any that
		// collide on (doctor, date, start time). Returns the number inserted.
		InsertSlots(ctx context.Context, slots []*model.ScheduleSlot) (int64, error)
		CreateSlot(ctx context.Context, slot *model.ScheduleSlot) error
		Get(ctx context.Context, id int64) (*model.ScheduleSlot, error)
		ListAvailable(ctx context.Context, doctorID int64, date time.Time) ([]*model.ScheduleSlot, error)
		ListForDay(ctx context.Context, doctorID int64, date time.Time) ([]*model.ScheduleSlotView, error)
	}

	AppointmentRepository interface {
		// ClaimSlotAndCreate atomically marks the slot unavailable and inserts
		// the appointment. Returns ErrSlotTaken when the conditional slot
		// update affects no row (already claimed, wrong doctor, or missing).
		ClaimSlotAndCreate(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id int64) (*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// UpdateStatus transitions status conditionally; ErrStaleState when the
		// row is no longer in the expected state.
		UpdateStatus(ctx context.Context, id int64, from, to model.AppointmentStatus) error
		// CancelAndFreeSlot sets the appointment Cancelled and re-opens its
		// slot in one transaction.
		CancelAndFreeSlot(ctx context.Context, id int64) error
	}

	VisitRepository interface {
		// StartForAppointment inserts the visit and moves the appointment
		// Scheduled -> InProgress in one transaction.
		StartForAppointment(ctx context.Context, visit *model.Visit) error
		Get(ctx context.Context, id int64) (*model.Visit, error)
		// Complete stores the clinical record and moves the appointment
		// InProgress -> Completed in one transaction.
		Complete(ctx context.Context, visit *model.Visit) error
		ListByPatient(ctx context.Context, patientID int64) ([]*model.Visit, error)
		ListByDoctor(ctx context.Context, doctorID int64, from, to time.Time) ([]*model.Visit, error)
	}

	PrescriptionRepository interface {
		Create(ctx context.Context, prescription *model.Prescription) error
		Get(ctx context.Context, id int64) (*model.Prescription, error)
		ListByVisit(ctx context.Context, visitID int64) ([]*model.Prescription, error)
		Delete(ctx context.Context, id int64) error
		// MarkDispensed flips Pending -> Dispensed; ErrStaleState if already
		// dispensed.
		MarkDispensed(ctx context.Context, id int64) error
	}

	MedicationRepository interface {
		Create(ctx context.Context, medication *model.Medication) error
		Get(ctx context.Context, id int64) (*model.Medication, error)
		Update(ctx context.Context, medication *model.Medication) error
		List(ctx context.Context, search string) ([]*model.Medication, error)
		ListLowStock(ctx context.Context) ([]*model.Medication, error)
		// AdjustStock applies delta if the result stays non-negative;
		// ErrInsufficient otherwise. Returns the new quantity.
		AdjustStock(ctx context.Context, id int64, delta int) (int, error)
	}

	LabRepository interface {
		CreateTest(ctx context.Context, test *model.LabTest) error
		GetTest(ctx context.Context, id int64) (*model.LabTest, error)
		ListTests(ctx context.Context) ([]*model.LabTest, error)
		CreateOrder(ctx context.Context, order *model.LabOrder) error
		GetOrder(ctx context.Context, id int64) (*model.LabOrder, error)
		ListOrders(ctx context.Context, status model.LabOrderStatus, patientID *int64) ([]*model.LabOrder, error)
		UpdateOrderStatus(ctx context.Context, id int64, from, to model.LabOrderStatus) error
		// AddResult stores the result and completes the order in one
		// transaction.
		AddResult(ctx context.Context, result *model.LabResult) error
	}

	BillingRepository interface {
		CreateBill(ctx context.Context, bill *model.Bill, items []*model.BillItem) error
		GetBill(ctx context.Context, id int64) (*model.Bill, error)
		ListBills(ctx context.Context, filters *model.BillFilters) ([]*model.Bill, error)
		ListItems(ctx context.Context, billID int64) ([]*model.BillItem, error)
		ListPayments(ctx context.Context, billID int64) ([]*model.Payment, error)
		// AddPayment inserts the payment, re-sums the bill's payments, and
		// derives the new status, all in one transaction with the bill row
		// locked. Returns the derived status and the summed amount paid.
		// ErrStaleState when the bill is already Paid, so exactly one
		// payment can move a bill into Paid.
		AddPayment(ctx context.Context, payment *model.Payment) (model.BillStatus, float64, error)
		// DeductPrescriptionStock walks the bill's Prescription items and
		// decrements medication stock per prescribed quantity; rows whose
		// stock cannot cover the quantity are left untouched and reported.
		// The second slice holds medications whose stock landed at or below
		// their low-stock threshold.
		DeductPrescriptionStock(ctx context.Context, billID int64) ([]model.StockWarning, []*model.Medication, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMessage *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
