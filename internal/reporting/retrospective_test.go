package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRetrospective_Empty(t *testing.T) {
	report := GenerateRetrospective(nil)
	require.NotNil(t, report)
	assert.Zero(t, report.TotalSessions)
	assert.NotNil(t, report.ServiceUsage)
	assert.NotNil(t, report.FailureReasons)
	assert.True(t, report.DateFrom.IsZero())
}

func TestGenerateRetrospective_Aggregates(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []LogEntry{
		{Timestamp: base.Add(2 * time.Minute), RequestID: "r1", ServiceID: "dstv", Status: StatusSuccess, Attempts: 2, Amount: 10500},
		{Timestamp: base, RequestID: "r2", ServiceID: "ikeja-electric", Status: StatusSuccess, Attempts: 0, Amount: 5000},
		{Timestamp: base.Add(5 * time.Minute), RequestID: "r3", ServiceID: "dstv", Status: StatusFailure, Attempts: 1, ErrorMessage: "INSUFFICIENT BALANCE"},
		{Timestamp: base.Add(time.Minute), RequestID: "r4", ServiceID: "waec", Status: StatusExhausted, Attempts: 10},
		{Timestamp: base.Add(3 * time.Minute), RequestID: "r5", ServiceID: "waec", Status: StatusCancelled, Attempts: 3},
	}

	report := GenerateRetrospective(entries)

	assert.Equal(t, 5, report.TotalSessions)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Exhausted)
	assert.Equal(t, 1, report.Cancelled)
	assert.Equal(t, 16, report.TotalAttempts)
	assert.Equal(t, int64(15500), report.AmountDelivered)
	assert.Equal(t, map[string]int{"dstv": 2, "ikeja-electric": 1, "waec": 2}, report.ServiceUsage)
	assert.Equal(t, 1, report.FailureReasons["INSUFFICIENT BALANCE"])
	assert.Equal(t, 10, report.AttemptsPerStatus[StatusExhausted])

	// Range covers the earliest and latest entries regardless of order.
	assert.Equal(t, base, report.DateFrom)
	assert.Equal(t, base.Add(5*time.Minute), report.DateTo)
}

func TestRecorder_RecordAndGenerate(t *testing.T) {
	rec := NewRecorder()
	rec.Record(LogEntry{Timestamp: time.Now(), RequestID: "r1", ServiceID: "dstv", Status: StatusSuccess, Attempts: 1})
	rec.Record(LogEntry{Timestamp: time.Now(), RequestID: "r2", ServiceID: "dstv", Status: StatusFailure, Attempts: 2, ErrorMessage: "failed"})

	entries := rec.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "r1", entries[0].RequestID)

	// Mutating the copy must not affect the recorder.
	entries[0].RequestID = "mutated"
	assert.Equal(t, "r1", rec.Entries()[0].RequestID)

	report := rec.GenerateRetrospective()
	assert.Equal(t, 2, report.TotalSessions)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
}
