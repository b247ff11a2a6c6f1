package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageAppendsAuditLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "enrollment.log")

	enrolled, err := json.Marshal(EnrollmentEvent{
		Kind: KindEnrolled, EnrollmentID: 7, StudentID: 3, CourseID: 2, CourseName: "Go 101",
		Status: "ACTIVE", EnrolledCount: 1, Capacity: 30, OccurredAt: "2026-01-02T10:00:00Z",
	})
	require.NoError(t, err)
	paid, err := json.Marshal(PaymentRecordedEvent{
		PaymentID: 9, StudentID: 3, CourseID: 2, Amount: "99.50", Method: "PAYPAL",
		TransactionID: "TXN-1-abcdef12", PaidAt: "2026-01-02T10:05:00Z",
	})
	require.NoError(t, err)

	require.NoError(t, HandleMessage(KindEnrolled, enrolled, logPath))
	require.NoError(t, HandleMessage(KindPaymentRecorded, paid, logPath))

	raw, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "enrollment.created | enrollment_id=7")
	assert.Contains(t, lines[0], `course="Go 101"`)
	assert.Contains(t, lines[0], "seats=1/30")
	assert.Contains(t, lines[1], "payment.recorded | payment_id=9")
	assert.Contains(t, lines[1], "amount=99.50")
}

func TestHandleMessageRejectsBadInput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.log")

	assert.Error(t, HandleMessage("something.else", []byte(`{}`), logPath))
	assert.Error(t, HandleMessage(KindCancelled, []byte(`{not json`), logPath))

	_, err := os.Stat(logPath)
	assert.True(t, os.IsNotExist(err), "nothing should be written for rejected messages")
}
