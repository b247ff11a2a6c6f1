package service_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/service"
)

var txnPattern = regexp.MustCompile(`^TXN-\d+-[0-9a-f]{8}$`)

func TestRecordPaymentCopiesFee(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	events := &recordingPublisher{}
	rec := service.NewPaymentRecorder(fx.store, service.WithClock(clock), service.WithEvents(events))

	c, err := fx.course(ctx, "Databases", 10, "249.99")
	require.NoError(t, err)
	st, err := fx.student(ctx, "payer@example.com")
	require.NoError(t, err)

	p, err := rec.Record(ctx, st.ID, c.ID, model.PaymentCreditCard, "")
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("249.99")))
	assert.Equal(t, model.PaymentCompleted, p.Status)
	assert.Equal(t, fixedNow, p.PaidAt)
	assert.Regexp(t, txnPattern, p.TransactionID)
	assert.Contains(t, p.TransactionID, "TXN-1772357400000-")

	require.Len(t, events.payments, 1)
	assert.Equal(t, "249.99", events.payments[0].Amount)
	assert.Equal(t, p.TransactionID, events.payments[0].TransactionID)

	// Later fee changes do not touch recorded amounts.
	c.Fee = decimal.RequireFromString("10.00")
	_, err = fx.courses.Update(ctx, c)
	require.NoError(t, err)
	got, err := rec.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("249.99")))
}

func TestRecordPaymentKeepsGivenTransactionID(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	rec := service.NewPaymentRecorder(fx.store)
	c, err := fx.course(ctx, "Networks", 10, "50")
	require.NoError(t, err)
	st, err := fx.student(ctx, "given@example.com")
	require.NoError(t, err)

	p, err := rec.Record(ctx, st.ID, c.ID, model.PaymentPayPal, "  PP-123  ")
	require.NoError(t, err)
	assert.Equal(t, "PP-123", p.TransactionID)

	_, err = rec.Record(ctx, st.ID, c.ID, model.PaymentPayPal, "PP-123")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestRecordPaymentDoesNotRequireEnrollment(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	rec := service.NewPaymentRecorder(fx.store)
	c, err := fx.course(ctx, "Compilers", 1, "75.00")
	require.NoError(t, err)
	st, err := fx.student(ctx, "noenroll@example.com")
	require.NoError(t, err)

	_, err = rec.Record(ctx, st.ID, c.ID, model.PaymentBankTransfer, "")
	require.NoError(t, err)

	stored, live, err := activeCount(ctx, fx.store, c.ID)
	require.NoError(t, err)
	assert.Zero(t, stored)
	assert.Zero(t, live)

	mine, err := rec.List(ctx, model.PaymentFilter{StudentID: st.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestRecordPaymentErrors(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	rec := service.NewPaymentRecorder(fx.store)
	c, err := fx.course(ctx, "Security", 10, "10")
	require.NoError(t, err)
	st, err := fx.student(ctx, "err@example.com")
	require.NoError(t, err)

	_, err = rec.Record(ctx, st.ID, c.ID, "CASH", "")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = rec.Record(ctx, 999, c.ID, model.PaymentDebitCard, "")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = rec.Record(ctx, st.ID, 999, model.PaymentDebitCard, "")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = rec.Get(ctx, 12345)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestNewTransactionID(t *testing.T) {
	a := service.NewTransactionID(fixedNow)
	b := service.NewTransactionID(fixedNow)
	assert.Regexp(t, txnPattern, a)
	assert.NotEqual(t, a, b)
}
