package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates the accepted ways of paying for a course.
type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentPayPal       PaymentMethod = "PAYPAL"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentDebitCard, PaymentPayPal, PaymentBankTransfer:
		return true
	}
	return false
}

// PaymentStatus is the processing state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// Payment records money paid by a student for a course.  Amount is the
// course fee at the time of payment and is not affected by later fee
// changes.
//
// Fields:
//  ID            – primary key identifier.
//  StudentID     – paying student.
//  CourseID      – course paid for.
//  Amount        – amount paid, copied from the course fee.
//  PaidAt        – payment timestamp (UTC).
//  Method        – payment method.
//  Status        – payment status.
//  TransactionID – external or generated transaction reference.
type Payment struct {
	ID            uint64          `json:"id"`             // payments.id
	StudentID     uint64          `json:"student_id"`     // payments.student_id
	CourseID      uint64          `json:"course_id"`      // payments.course_id
	Amount        decimal.Decimal `json:"amount"`         // payments.amount DECIMAL(10,2)
	PaidAt        time.Time       `json:"paid_at"`        // payments.paid_at
	Method        PaymentMethod   `json:"method"`         // payments.method
	Status        PaymentStatus   `json:"status"`         // payments.status
	TransactionID string          `json:"transaction_id"` // payments.transaction_id
}
