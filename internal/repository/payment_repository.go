package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/course-enrollment/internal/model"
)

// PaymentRepo stores payment records.  Payments are append-only.
type PaymentRepo struct{}

func NewPaymentRepo() *PaymentRepo { return &PaymentRepo{} }

const paymentColumns = `id, student_id, course_id, amount, paid_at, method, status, transaction_id`

func scanPayment(row interface{ Scan(...any) error }) (model.Payment, error) {
	var p model.Payment
	var method, status string
	if err := row.Scan(&p.ID, &p.StudentID, &p.CourseID, &p.Amount, &p.PaidAt, &method, &status, &p.TransactionID); err != nil {
		return model.Payment{}, err
	}
	p.Method = model.PaymentMethod(method)
	p.Status = model.PaymentStatus(status)
	p.PaidAt = p.PaidAt.UTC()
	return p, nil
}

// InsertTx stores a payment and sets its ID.
func (r *PaymentRepo) InsertTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO payments (student_id, course_id, amount, paid_at, method, status, transaction_id)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.StudentID, p.CourseID, p.Amount.StringFixed(2), p.PaidAt.UTC(), string(p.Method), string(p.Status), p.TransactionID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByIDTx returns a single payment.
func (r *PaymentRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Payment, error) {
	p, err := scanPayment(tx.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id))
	return p, notFound(err)
}

// ListTx returns payments newest first, optionally filtered by student
// and/or course.
func (r *PaymentRepo) ListTx(ctx context.Context, tx *sql.Tx, f model.PaymentFilter) ([]model.Payment, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + paymentColumns + ` FROM payments WHERE 1=1`)
	args := make([]any, 0, 2)
	if f.StudentID != 0 {
		sb.WriteString(` AND student_id = ?`)
		args = append(args, f.StudentID)
	}
	if f.CourseID != 0 {
		sb.WriteString(` AND course_id = ?`)
		args = append(args, f.CourseID)
	}
	sb.WriteString(` ORDER BY paid_at DESC, id DESC`)
	rows, err := tx.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
