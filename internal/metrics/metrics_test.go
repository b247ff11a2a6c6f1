package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementEnrollOutcome(OutcomeEnrolled)
	m.IncrementEnrollOutcome(OutcomeEnrolled)
	m.IncrementEnrollOutcome(OutcomeCourseFull)
	m.IncrementCancelled()
	m.IncrementPayment("PAYPAL")
	m.ObserveEnroll(time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EnrollAttempts.WithLabelValues(OutcomeEnrolled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EnrollAttempts.WithLabelValues(OutcomeCourseFull)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cancellations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PaymentsRecorded.WithLabelValues("PAYPAL")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementEnrollOutcome(OutcomeError)
		m.IncrementCancelled()
		m.IncrementCompleted()
		m.IncrementPayment("X")
		m.IncrementPublishError()
		m.ObserveEnroll(time.Now())
	})
}
