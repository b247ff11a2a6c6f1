package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/queue"
	"github.com/iliyamo/course-enrollment/internal/repository"
)

// PaymentRecorder stores payments for courses.  The amount is always the
// course fee read inside the same unit of work.  Whether the student is
// enrolled is not checked.
type PaymentRecorder struct {
	store repository.TxRunner
	deps
}

// NewPaymentRecorder builds a recorder over store.
func NewPaymentRecorder(store repository.TxRunner, opts ...Option) *PaymentRecorder {
	return &PaymentRecorder{store: store, deps: newDeps(opts)}
}

// Record stores a COMPLETED payment.  An empty transactionID is replaced
// by a generated TXN-<unix millis>-<8 hex> reference.
func (r *PaymentRecorder) Record(ctx context.Context, studentID, courseID uint64, method model.PaymentMethod, transactionID string) (model.Payment, error) {
	if !method.Valid() {
		return model.Payment{}, invalid("unknown payment method %q", method)
	}
	transactionID = strings.TrimSpace(transactionID)
	if len(transactionID) > 100 {
		return model.Payment{}, invalid("transaction id longer than 100 characters")
	}

	var p model.Payment
	err := r.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.GetStudent(ctx, studentID); err != nil {
			return lookup("get student", "student", studentID, err)
		}
		course, err := tx.GetCourse(ctx, courseID)
		if err != nil {
			return lookup("get course", "course", courseID, err)
		}
		now := r.clock()
		p = model.Payment{
			StudentID:     studentID,
			CourseID:      courseID,
			Amount:        course.Fee,
			PaidAt:        now,
			Method:        method,
			Status:        model.PaymentCompleted,
			TransactionID: transactionID,
		}
		if p.TransactionID == "" {
			p.TransactionID = NewTransactionID(now)
		}
		if err := tx.InsertPayment(ctx, &p); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return invalid("transaction id %q already recorded", p.TransactionID)
			}
			return storageErr("insert payment", err)
		}
		return nil
	})
	if err != nil {
		return model.Payment{}, storageErr("record payment", err)
	}
	r.metrics.IncrementPayment(string(p.Method))
	r.publishPayment(ctx, queue.PaymentRecordedEvent{
		PaymentID:     p.ID,
		StudentID:     p.StudentID,
		CourseID:      p.CourseID,
		Amount:        p.Amount.StringFixed(2),
		Method:        string(p.Method),
		TransactionID: p.TransactionID,
		PaidAt:        p.PaidAt.Format(time.RFC3339),
	})
	return p, nil
}

// Get returns a single payment.
func (r *PaymentRecorder) Get(ctx context.Context, id uint64) (model.Payment, error) {
	var p model.Payment
	err := r.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		p, err = tx.GetPayment(ctx, id)
		if err != nil {
			return lookup("get payment", "payment", id, err)
		}
		return nil
	})
	if err != nil {
		return model.Payment{}, storageErr("get payment", err)
	}
	return p, nil
}

// List returns payments matching f, newest first.
func (r *PaymentRecorder) List(ctx context.Context, f model.PaymentFilter) ([]model.Payment, error) {
	var out []model.Payment
	err := r.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.ListPayments(ctx, f)
		return err
	})
	if err != nil {
		return nil, storageErr("list payments", err)
	}
	return out, nil
}

// NewTransactionID returns TXN-<unix millis>-<first 8 hex digits of a
// random UUID>.
func NewTransactionID(at time.Time) string {
	return fmt.Sprintf("TXN-%d-%s", at.UnixMilli(), uuid.NewString()[:8])
}
