package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Enrollment outcomes used as the "outcome" label.
const (
	OutcomeEnrolled        = "enrolled"
	OutcomeAlreadyEnrolled = "already_enrolled"
	OutcomeCourseFull      = "course_full"
	OutcomeNotFound        = "not_found"
	OutcomeError           = "error"
)

// Metrics provides observability for the enrollment subsystem.
type Metrics struct {
	EnrollAttempts   *prometheus.CounterVec
	Cancellations    prometheus.Counter
	Completions      prometheus.Counter
	PaymentsRecorded *prometheus.CounterVec
	EnrollDuration   prometheus.Histogram
	EventPublishErrs prometheus.Counter
}

// New registers all metrics with reg.  Passing a fresh registry keeps
// tests isolated from the process-wide default one.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EnrollAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_attempts_total",
			Help: "Enrollment attempts by outcome",
		}, []string{"outcome"}),
		Cancellations: f.NewCounter(prometheus.CounterOpts{
			Name: "enrollment_cancellations_total",
			Help: "Enrollments moved to CANCELLED",
		}),
		Completions: f.NewCounter(prometheus.CounterOpts{
			Name: "enrollment_completions_total",
			Help: "Enrollments moved to COMPLETED",
		}),
		PaymentsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_recorded_total",
			Help: "Payments recorded by method",
		}, []string{"method"}),
		EnrollDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "enrollment_enroll_duration_seconds",
			Help:    "Duration of the enroll unit of work",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		EventPublishErrs: f.NewCounter(prometheus.CounterOpts{
			Name: "enrollment_event_publish_errors_total",
			Help: "Domain events that could not be handed to the broker",
		}),
	}
}

// IncrementEnrollOutcome records one enrollment attempt.
func (m *Metrics) IncrementEnrollOutcome(outcome string) {
	if m == nil {
		return
	}
	m.EnrollAttempts.WithLabelValues(outcome).Inc()
}

// IncrementCancelled records a cancellation.
func (m *Metrics) IncrementCancelled() {
	if m == nil {
		return
	}
	m.Cancellations.Inc()
}

// IncrementCompleted records a completion.
func (m *Metrics) IncrementCompleted() {
	if m == nil {
		return
	}
	m.Completions.Inc()
}

// IncrementPayment records a stored payment.
func (m *Metrics) IncrementPayment(method string) {
	if m == nil {
		return
	}
	m.PaymentsRecorded.WithLabelValues(method).Inc()
}

// IncrementPublishError records a failed event publish.
func (m *Metrics) IncrementPublishError() {
	if m == nil {
		return
	}
	m.EventPublishErrs.Inc()
}

// ObserveEnroll records the duration of an Enroll call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveEnroll(start time.Time) {
	if m == nil {
		return
	}
	m.EnrollDuration.Observe(time.Since(start).Seconds())
}
