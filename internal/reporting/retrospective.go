// Package reporting aggregates finished reconciliation sessions into a
// retrospective report for support and operations review.
package reporting

import (
	"sort"
	"sync"
	"time"
)

// Session end statuses recorded by the engine.
const (
	StatusSuccess   = "SUCCESS"
	StatusFailure   = "FAILURE"
	StatusExhausted = "EXHAUSTED"
	StatusCancelled = "CANCELLED"
)

// LogEntry records one finished (or cancelled) reconciliation session.
type LogEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"requestId"`
	ServiceID    string    `json:"serviceId"`
	Status       string    `json:"status"`
	Attempts     int       `json:"attempts"`
	Amount       int64     `json:"amount,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// RetrospectiveReport summarizes reconciliation activity over a set of
// log entries.
type RetrospectiveReport struct {
	TotalSessions     int            `json:"totalSessions"`
	Succeeded         int            `json:"succeeded"`
	Failed            int            `json:"failed"`
	Exhausted         int            `json:"exhausted"`
	Cancelled         int            `json:"cancelled"`
	TotalAttempts     int            `json:"totalAttempts"`
	AttemptsPerStatus map[string]int `json:"attemptsPerStatus"`
	ServiceUsage      map[string]int `json:"serviceUsage"`
	FailureReasons    map[string]int `json:"failureReasons"`
	AmountDelivered   int64          `json:"amountDelivered"` // sum of amounts for SUCCESS entries
	DateFrom          time.Time      `json:"dateFrom"`
	DateTo            time.Time      `json:"dateTo"`
}

// Recorder collects log entries in memory. Safe for concurrent use; the
// engine records entries from timer callbacks.
type Recorder struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends one entry.
func (r *Recorder) Record(entry LogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

// Entries returns a copy of the recorded entries in insertion order.
func (r *Recorder) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// GenerateRetrospective analyzes the recorded entries.
func (r *Recorder) GenerateRetrospective() *RetrospectiveReport {
	return GenerateRetrospective(r.Entries())
}

// GenerateRetrospective produces a report from a slice of log entries.
func GenerateRetrospective(entries []LogEntry) *RetrospectiveReport {
	report := &RetrospectiveReport{
		AttemptsPerStatus: make(map[string]int),
		ServiceUsage:      make(map[string]int),
		FailureReasons:    make(map[string]int),
	}
	if len(entries) == 0 {
		return report
	}

	timestamps := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		report.TotalSessions++
		report.TotalAttempts += entry.Attempts
		report.AttemptsPerStatus[entry.Status] += entry.Attempts
		if entry.ServiceID != "" {
			report.ServiceUsage[entry.ServiceID]++
		}
		timestamps = append(timestamps, entry.Timestamp)

		switch entry.Status {
		case StatusSuccess:
			report.Succeeded++
			report.AmountDelivered += entry.Amount
		case StatusFailure:
			report.Failed++
			if entry.ErrorMessage != "" {
				report.FailureReasons[entry.ErrorMessage]++
			}
		case StatusExhausted:
			report.Exhausted++
		case StatusCancelled:
			report.Cancelled++
		}
	}

	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })
	report.DateFrom = timestamps[0]
	report.DateTo = timestamps[len(timestamps)-1]
	return report
}
