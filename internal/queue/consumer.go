package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer drains the event queue and appends one line per event to an
// audit log file.
type Consumer struct {
	URL     string
	Queue   string
	LogPath string
}

// NewConsumer returns a Consumer for url writing to logPath.
func NewConsumer(url, logPath string) *Consumer {
	return &Consumer{URL: url, Queue: DefaultQueue, LogPath: logPath}
}

// Run connects, consumes and reconnects with exponential backoff until
// ctx is cancelled.  Broken messages are rejected without requeue so the
// loop never spins on them.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return nil
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			log.Printf("event-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		log.Printf("event-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("event-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleMessage(d.Type, d.Body, c.LogPath); err != nil {
				log.Printf("event-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event and appends its audit line to logPath.
func HandleMessage(kind string, body []byte, logPath string) error {
	line, err := formatLine(kind, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(kind string, body []byte) (string, error) {
	switch kind {
	case KindEnrolled, KindCancelled, KindCompleted:
		var ev EnrollmentEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] %s | enrollment_id=%d | student_id=%d | course_id=%d | course=%q | status=%s | seats=%d/%d\n",
			ev.OccurredAt, kind, ev.EnrollmentID, ev.StudentID, ev.CourseID, ev.CourseName, ev.Status, ev.EnrolledCount, ev.Capacity), nil
	case KindPaymentRecorded:
		var ev PaymentRecordedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] %s | payment_id=%d | student_id=%d | course_id=%d | amount=%s | method=%s | txn=%s\n",
			ev.PaidAt, kind, ev.PaymentID, ev.StudentID, ev.CourseID, ev.Amount, ev.Method, ev.TransactionID), nil
	default:
		return "", fmt.Errorf("unknown event kind %q", kind)
	}
}
