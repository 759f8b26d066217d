// Package session implements the asynchronous transaction-status
// reconciliation engine. A Session owns one in-flight purchase: it issues
// the purchase call, classifies the immediate response, and if the provider
// has not settled, drives a bounded polling loop against the status-query
// endpoint until a terminal outcome, exhaustion of the backoff schedule, or
// cancellation.
package session

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/yourorg/vending-reconciler/internal/backoff"
	"github.com/yourorg/vending-reconciler/internal/outcome"
	"github.com/yourorg/vending-reconciler/internal/reporting"
	"github.com/yourorg/vending-reconciler/internal/vending"
)

var tracer = otel.Tracer("vending-reconciler/session")

// State is the lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateAwaitingInitial
	StatePolling
	StateSucceeded
	StateFailed
	StateExhausted
)

// String returns the state name used in snapshots and logs.
func (s State) String() string {
	switch s {
	case StateAwaitingInitial:
		return "awaiting_initial"
	case StatePolling:
		return "polling"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateExhausted:
		return "exhausted"
	default:
		return "idle"
	}
}

// Terminal reports whether the session reached Success or Failure. Exhausted
// is quasi-terminal: no automatic queries are scheduled, but a manual
// refresh may still move the session to a terminal state.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Snapshot is an immutable view of a session handed to the UI collaborator.
type Snapshot struct {
	RequestID    string
	ServiceID    string
	State        State
	AttemptIndex int
	Outcome      outcome.Outcome
	At           time.Time
}

// ClassifyFunc maps a provider response to an outcome for a given service.
type ClassifyFunc func(serviceID string, resp outcome.ProviderResponse) outcome.Outcome

// EntryRecorder receives one log entry per finished session.
type EntryRecorder interface {
	Record(entry reporting.LogEntry)
}

// Session drives the reconciliation of one purchase attempt. All state
// mutation happens under mu; at most one timer and one provider query are
// outstanding at any time.
type Session struct {
	mu           sync.Mutex
	requestID    string
	serviceID    string
	amount       int64
	state        State
	attemptIndex int
	outcome      outcome.Outcome
	cancelled    bool
	recorded     bool
	inFlight     bool
	timer        *time.Timer
	stream       chan Snapshot
	streamOpen   bool

	client   vending.Client
	schedule backoff.Schedule
	classify ClassifyFunc
	recorder EntryRecorder
}

func newSession(requestID string, req vending.PurchaseRequest, client vending.Client, schedule backoff.Schedule, classify ClassifyFunc, recorder EntryRecorder) *Session {
	// Worst case the stream sees one snapshot per scheduled attempt plus
	// the initial and final ones; double that leaves room for manual
	// refreshes without ever blocking a timer callback.
	buf := schedule.Len()*2 + 4
	return &Session{
		requestID:  requestID,
		serviceID:  req.ServiceID,
		amount:     req.Amount,
		state:      StateAwaitingInitial,
		outcome:    outcome.Indeterminate(),
		stream:     make(chan Snapshot, buf),
		streamOpen: true,
		client:     client,
		schedule:   schedule,
		classify:   classify,
		recorder:   recorder,
	}
}

// start issues the purchase call and classifies its response. Run on its own
// goroutine; the session outlives the caller's request context.
func (s *Session) start(ctx context.Context, req vending.PurchaseRequest) {
	ctx, span := tracer.Start(context.WithoutCancel(ctx), "Session.purchase")
	defer span.End()

	resp, err := s.client.Purchase(ctx, req)
	s.applyInitial(resp, err)
}

// applyInitial handles the purchase call's own response. A terminal
// classification ends the session with no polling; anything else, including
// a transport error, enters the polling loop. A transport failure on the
// purchase carries no information about whether the provider accepted it,
// so the status-query loop is the only way to find out.
func (s *Session) applyInitial(resp outcome.ProviderResponse, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled {
		return
	}
	if err != nil {
		log.Printf("session %s: purchase transport error, reconciling via status queries: %v", s.requestID, err)
		s.outcome = outcome.Indeterminate()
	} else {
		out := s.classify(s.serviceID, resp)
		if out.Terminal() {
			s.finishLocked(out)
			return
		}
		s.outcome = out
	}
	s.scheduleNextLocked()
}

// pollScheduled is the timer callback for one scheduled status query.
func (s *Session) pollScheduled() {
	s.mu.Lock()
	if s.cancelled || s.state != StatePolling || s.inFlight {
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	s.mu.Unlock()

	resp, err := s.query(context.Background())
	s.applyResult(resp, err, true)
}

// query runs one status query with tracing and latency observation.
func (s *Session) query(ctx context.Context) (outcome.ProviderResponse, error) {
	ctx, span := tracer.Start(ctx, "Session.statusQuery")
	defer span.End()

	begin := time.Now()
	resp, err := s.client.QueryStatus(ctx, s.requestID)
	queryDurationSeconds.Observe(time.Since(begin).Seconds())
	return resp, err
}

// applyResult folds a status-query result into the session. Scheduled
// queries consume one attempt whether they succeeded, classified terminal,
// or failed at the transport level; manual refreshes bypass the attempt
// budget. A result arriving after cancellation is discarded.
func (s *Session) applyResult(resp outcome.ProviderResponse, err error, fromScheduler bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight = false
	if s.cancelled || s.state.Terminal() {
		return
	}
	if fromScheduler {
		s.attemptIndex++
		statusQueriesTotal.WithLabelValues(s.serviceID).Inc()
	}

	if err != nil {
		// Transport failure tells us nothing about settlement; keep the
		// previous Pending/Indeterminate outcome and let the loop go on.
		log.Printf("session %s: status query transport error (attempt %d): %v", s.requestID, s.attemptIndex, err)
	} else {
		out := s.classify(s.serviceID, resp)
		if out.Terminal() {
			s.finishLocked(out)
			return
		}
		s.outcome = out
	}
	s.scheduleNextLocked()
}

// scheduleNextLocked arms the next scheduled query or exhausts the session.
// Exhaustion is deliberately not a failure: the transaction may still settle
// outside our observation window.
func (s *Session) scheduleNextLocked() {
	if delay, ok := s.schedule.DelayForAttempt(s.attemptIndex); ok {
		s.state = StatePolling
		s.armLocked(delay)
		s.emitLocked()
		return
	}
	s.state = StateExhausted
	s.disarmLocked()
	s.emitLocked()
	s.recordLocked(reporting.StatusExhausted)
	s.closeStreamLocked()
}

// finishLocked moves the session to its terminal state.
func (s *Session) finishLocked(out outcome.Outcome) {
	s.outcome = out
	if out.Kind == outcome.KindSuccess {
		s.state = StateSucceeded
	} else {
		s.state = StateFailed
	}
	s.disarmLocked()
	s.emitLocked()
	if s.state == StateSucceeded {
		s.recordLocked(reporting.StatusSuccess)
	} else {
		s.recordLocked(reporting.StatusFailure)
	}
	s.closeStreamLocked()
}

// cancel tears the session down. Idempotent; a no-op for sessions that
// already ended. Any in-flight query result is discarded by the cancelled
// check in applyResult.
func (s *Session) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled {
		return
	}
	s.cancelled = true
	s.disarmLocked()
	s.recordLocked(reporting.StatusCancelled)
	s.closeStreamLocked()
}

// armLocked starts the single outstanding timer. disarm-before-arm keeps
// the one-timer-per-session invariant even if callers misbehave.
func (s *Session) armLocked(delay time.Duration) {
	s.disarmLocked()
	s.timer = time.AfterFunc(delay, s.pollScheduled)
}

func (s *Session) disarmLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// recordLocked records the session's end exactly once: metrics, gauge and
// the retrospective log entry.
func (s *Session) recordLocked(status string) {
	if s.recorded {
		return
	}
	s.recorded = true
	sessionOutcomesTotal.WithLabelValues(strings.ToLower(status)).Inc()
	activeSessions.Dec()
	if s.recorder != nil {
		s.recorder.Record(reporting.LogEntry{
			Timestamp:    time.Now(),
			RequestID:    s.requestID,
			ServiceID:    s.serviceID,
			Status:       status,
			Attempts:     s.attemptIndex,
			Amount:       s.amount,
			ErrorMessage: s.outcome.Reason,
		})
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		RequestID:    s.requestID,
		ServiceID:    s.serviceID,
		State:        s.state,
		AttemptIndex: s.attemptIndex,
		Outcome:      s.outcome,
		At:           time.Now(),
	}
}

// emitLocked pushes the current snapshot to the stream. The buffer is sized
// for the worst case, but a slow consumer must never stall a timer
// callback, so the send does not block.
func (s *Session) emitLocked() {
	if !s.streamOpen {
		return
	}
	select {
	case s.stream <- s.snapshotLocked():
	default:
		log.Printf("session %s: snapshot dropped, stream buffer full", s.requestID)
	}
}

func (s *Session) closeStreamLocked() {
	if s.streamOpen {
		s.streamOpen = false
		close(s.stream)
	}
}

// CurrentSnapshot returns the session's current state.
func (s *Session) CurrentSnapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}
