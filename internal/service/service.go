// Package service holds the enrollment core: the capacity guard, the
// enrollment ledger and the services that run each operation as a single
// unit of work against a repository.TxRunner.
package service

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/course-enrollment/internal/metrics"
	"github.com/iliyamo/course-enrollment/internal/queue"
)

// EventPublisher hands committed domain events to the broker.
type EventPublisher interface {
	PublishEnrollment(ctx context.Context, ev queue.EnrollmentEvent) error
	PublishPayment(ctx context.Context, ev queue.PaymentRecordedEvent) error
}

const publishTimeout = 3 * time.Second

type deps struct {
	events  EventPublisher
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a service.
type Option func(*deps)

// WithEvents publishes domain events after each successful commit.
func WithEvents(p EventPublisher) Option {
	return func(d *deps) { d.events = p }
}

// WithMetrics records operation outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

func newDeps(opts []Option) deps {
	d := deps{now: time.Now}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func (d deps) clock() time.Time { return d.now().UTC() }

// publishEnrollment runs after commit.  The request context may already be
// cancelled by then, so the publish gets its own deadline.  Failures are
// logged and counted but never undo the committed work.
func (d deps) publishEnrollment(ctx context.Context, ev queue.EnrollmentEvent) {
	if d.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := d.events.PublishEnrollment(ctx, ev); err != nil {
		log.Printf("events: %s for enrollment %d not published: %v", ev.Kind, ev.EnrollmentID, err)
		d.metrics.IncrementPublishError()
	}
}

func (d deps) publishPayment(ctx context.Context, ev queue.PaymentRecordedEvent) {
	if d.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := d.events.PublishPayment(ctx, ev); err != nil {
		log.Printf("events: payment %d not published: %v", ev.PaymentID, err)
		d.metrics.IncrementPublishError()
	}
}
