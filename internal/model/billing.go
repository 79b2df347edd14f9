package model

import (
	"time"
)

type BillStatus string

const (
	BillStatusUnpaid  BillStatus = "Unpaid"
	BillStatusPartial BillStatus = "Partial"
	BillStatusPaid    BillStatus = "Paid"
)

// Stock deduction policies: deduct medication stock when the bill is fully
// paid, or when the pharmacist dispenses the prescription.
const (
	StockDeductionOnPayment  = "payment"
	StockDeductionOnDispense = "dispense"
)

// BillStatusFor derives a bill's status from its total and the amount paid
// so far. A zero-total bill counts as Paid from the start.
func BillStatusFor(total, paid float64) BillStatus {
	switch {
	case paid >= total:
		return BillStatusPaid
	case paid > 0:
		return BillStatusPartial
	default:
		return BillStatusUnpaid
	}
}

type BillItemType string

const (
	BillItemConsultation BillItemType = "Consultation"
	BillItemPrescription BillItemType = "Prescription"
	BillItemLabTest      BillItemType = "LabTest"
)

type Bill struct {
	ID          int64      `db:"bill_id" json:"id"`
	PatientID   int64      `db:"patient_id" json:"patient_id"`
	TotalAmount float64    `db:"total_amount" json:"total_amount"`
	Status      BillStatus `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`

	PatientName string `db:"patient_name" json:"patient_name,omitempty"`
}

type BillItem struct {
	ID          int64        `db:"bill_item_id" json:"id"`
	BillID      int64        `db:"bill_id" json:"bill_id"`
	ItemType    BillItemType `db:"item_type" json:"item_type"`
	ReferenceID *int64       `db:"reference_id" json:"reference_id,omitempty"`
	Description string       `db:"description" json:"description,omitempty"`
	Quantity    int          `db:"quantity" json:"quantity"`
	Amount      float64      `db:"amount" json:"amount"`
}

type Payment struct {
	ID            int64     `db:"payment_id" json:"id"`
	BillID        int64     `db:"bill_id" json:"bill_id"`
	AmountPaid    float64   `db:"amount_paid" json:"amount_paid"`
	PaymentMethod string    `db:"payment_method" json:"payment_method"`
	Reference     string    `db:"reference" json:"reference"`
	PaymentTime   time.Time `db:"payment_time" json:"payment_time"`
}

// BillSummary is a bill with its derived financials. Status is recomputed from
// payments in one place (the billing service), never inline.
type BillSummary struct {
	Bill
	Items     []*BillItem `json:"items"`
	Payments  []*Payment  `json:"payments"`
	TotalPaid float64     `json:"total_paid"`
	Balance   float64     `json:"balance"`
}

type CreateBillRequest struct {
	PatientID int64                   `json:"patient_id" binding:"required"`
	Items     []CreateBillItemRequest `json:"items" binding:"required,min=1,dive"`
}

type CreateBillItemRequest struct {
	ItemType BillItemType `json:"item_type" binding:"required,oneof=Consultation Prescription LabTest"`
	// Prescription items must reference the prescription they bill for;
	// stock deduction resolves medications through it.
	ReferenceID *int64  `json:"reference_id" binding:"required_if=ItemType Prescription"`
	Description string  `json:"description" binding:"max=200"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
}

type RecordPaymentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Method string  `json:"method" binding:"required,oneof=Cash Card Online Insurance"`
}

// PaymentResult reports the outcome of a recorded payment, including any
// medications whose stock could not cover the prescribed quantity.
type PaymentResult struct {
	Payment   *Payment       `json:"payment"`
	Status    BillStatus     `json:"status"`
	TotalPaid float64        `json:"total_paid"`
	Balance   float64        `json:"balance"`
	Warnings  []StockWarning `json:"warnings,omitempty"`
}

type StockWarning struct {
	MedicationID   int64  `json:"medication_id"`
	MedicationName string `json:"medication_name"`
	Requested      int    `json:"requested"`
	InStock        int    `json:"in_stock"`
}

type BillFilters struct {
	PatientID *int64
	Status    BillStatus
}
