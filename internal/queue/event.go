// Package queue defines the domain events exchanged over the message
// broker, the publisher used by the service layer and the audit consumer.
package queue

// Event kinds, carried in the AMQP message type property.
const (
	KindEnrolled        = "enrollment.created"
	KindCancelled       = "enrollment.cancelled"
	KindCompleted       = "enrollment.completed"
	KindPaymentRecorded = "payment.recorded"
)

// EnrollmentEvent is published after an enrollment unit of work commits.
// EnrolledCount and Capacity are the course values as of that commit so
// consumers can track seat usage without querying the record store.
type EnrollmentEvent struct {
	Kind          string `json:"kind"`
	EnrollmentID  uint64 `json:"enrollment_id"`
	StudentID     uint64 `json:"student_id"`
	CourseID      uint64 `json:"course_id"`
	CourseName    string `json:"course_name"`
	Status        string `json:"status"`
	EnrolledCount int    `json:"enrolled_count"`
	Capacity      int    `json:"capacity"`
	OccurredAt    string `json:"occurred_at"`
}

// PaymentRecordedEvent is published after a payment is stored.
type PaymentRecordedEvent struct {
	PaymentID     uint64 `json:"payment_id"`
	StudentID     uint64 `json:"student_id"`
	CourseID      uint64 `json:"course_id"`
	Amount        string `json:"amount"`
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
	PaidAt        string `json:"paid_at"`
}
