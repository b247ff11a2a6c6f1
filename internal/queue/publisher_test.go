package queue

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentBroker accepts TCP connections and never speaks AMQP.
func silentBroker(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan struct{})
	t.Cleanup(func() {
		close(done)
		_ = ln.Close()
	})
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				<-done
				_ = conn.Close()
			}()
		}
	}()
	return "amqp://guest:guest@" + ln.Addr().String() + "/"
}

func TestPublishGivesUpOnSilentBroker(t *testing.T) {
	p := NewPublisher(silentBroker(t))
	p.DialTimeout = 200 * time.Millisecond

	start := time.Now()
	err := p.PublishEnrollment(context.Background(), EnrollmentEvent{Kind: KindEnrolled, EnrollmentID: 1})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPublishHonoursContextDeadline(t *testing.T) {
	p := NewPublisher(silentBroker(t))
	p.DialTimeout = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := p.PublishPayment(ctx, PaymentRecordedEvent{PaymentID: 1})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDialTimeout(t *testing.T) {
	p := &Publisher{}
	assert.Equal(t, DefaultDialTimeout, p.dialTimeout(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.LessOrEqual(t, p.dialTimeout(ctx), time.Second)

	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()
	assert.Equal(t, time.Millisecond, p.dialTimeout(expired))
}
