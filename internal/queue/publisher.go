package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueue is the durable queue all domain events are routed to.
const DefaultQueue = "enrollment.events"

// DefaultDialTimeout bounds connecting plus the AMQP handshake.
const DefaultDialTimeout = 3 * time.Second

// Publisher sends domain events to RabbitMQ.  Each publish dials its own
// connection, so a broker outage only fails that one publish.  Errors
// are logged and returned; callers treat them as non-fatal.
type Publisher struct {
	URL   string
	Queue string

	// DialTimeout caps the dial; a shorter ctx deadline wins.
	DialTimeout time.Duration
}

// NewPublisher returns a Publisher for url using DefaultQueue.
func NewPublisher(url string) *Publisher {
	return &Publisher{URL: url, Queue: DefaultQueue, DialTimeout: DefaultDialTimeout}
}

// PublishEnrollment publishes an enrollment lifecycle event.
func (p *Publisher) PublishEnrollment(ctx context.Context, ev EnrollmentEvent) error {
	return p.publish(ctx, ev.Kind, ev)
}

// PublishPayment publishes a PaymentRecordedEvent.
func (p *Publisher) PublishPayment(ctx context.Context, ev PaymentRecordedEvent) error {
	return p.publish(ctx, KindPaymentRecorded, ev)
}

func (p *Publisher) publish(ctx context.Context, kind string, event any) error {
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout(ctx)),
	})
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal %s failed: %v", kind, err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         kind,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish %s failed: %v", kind, err)
		return err
	}
	return nil
}

func (p *Publisher) dialTimeout(ctx context.Context) time.Duration {
	d := p.DialTimeout
	if d <= 0 {
		d = DefaultDialTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < d {
			d = left
		}
	}
	if d <= 0 {
		d = time.Millisecond
	}
	return d
}
