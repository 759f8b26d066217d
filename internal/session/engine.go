package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yourorg/vending-reconciler/internal/backoff"
	"github.com/yourorg/vending-reconciler/internal/correlator"
	"github.com/yourorg/vending-reconciler/internal/outcome"
	"github.com/yourorg/vending-reconciler/internal/vending"
)

var (
	// ErrNotFound is returned for a request id with no live session.
	ErrNotFound = errors.New("session: not found")
	// ErrBadState is returned when manual refresh is requested outside the
	// Polling or Exhausted states.
	ErrBadState = errors.New("session: not refreshable in its current state")
	// ErrBusy is returned when a query is already outstanding for the
	// session; the single-outstanding-query discipline is never broken.
	ErrBusy = errors.New("session: query already in flight")
)

// StartRequest is what the UI collaborator submits to begin a purchase.
type StartRequest struct {
	ServiceID     string            `json:"serviceID" binding:"required"`
	VariationCode string            `json:"variation_code"`
	BillersCode   string            `json:"billersCode"`
	Amount        int64             `json:"amount"`
	Phone         string            `json:"phone"`
	Extra         map[string]string `json:"extra"`
}

// Config wires an Engine. Client is required; everything else has defaults.
type Config struct {
	Client       vending.Client
	Schedule     backoff.Schedule
	Classify     ClassifyFunc
	Recorder     EntryRecorder
	NewRequestID func() string
}

// Engine owns the live sessions, one per request id.
type Engine struct {
	client       vending.Client
	schedule     backoff.Schedule
	classify     ClassifyFunc
	recorder     EntryRecorder
	newRequestID func() string

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewEngine creates an Engine.
func NewEngine(cfg Config) *Engine {
	if cfg.Client == nil {
		panic("vending client cannot be nil")
	}
	if cfg.Schedule == nil {
		cfg.Schedule = backoff.DefaultSchedule()
	}
	if cfg.Classify == nil {
		cfg.Classify = func(_ string, resp outcome.ProviderResponse) outcome.Outcome {
			return outcome.Classify(resp)
		}
	}
	if cfg.NewRequestID == nil {
		cfg.NewRequestID = correlator.NewRequestID
	}
	return &Engine{
		client:       cfg.Client,
		schedule:     cfg.Schedule,
		classify:     cfg.Classify,
		recorder:     cfg.Recorder,
		newRequestID: cfg.NewRequestID,
		sessions:     make(map[string]*Session),
	}
}

// StartPurchase mints a request id, registers a session and submits the
// purchase. The returned channel is a finite stream of snapshots: the
// initial one, zero or more polling updates, then exactly one terminal or
// exhausted snapshot — unless the session is cancelled first, which closes
// the stream without a final snapshot.
func (e *Engine) StartPurchase(ctx context.Context, req StartRequest) (string, <-chan Snapshot, error) {
	if req.ServiceID == "" {
		return "", nil, fmt.Errorf("session: serviceID is required")
	}

	requestID := e.newRequestID()
	purchase := vending.PurchaseRequest{
		ServiceID:     req.ServiceID,
		VariationCode: req.VariationCode,
		BillersCode:   req.BillersCode,
		Amount:        req.Amount,
		Phone:         req.Phone,
		RequestID:     requestID,
		Extra:         req.Extra,
	}

	s := newSession(requestID, purchase, e.client, e.schedule, e.classify, e.recorder)

	e.mu.Lock()
	e.sessions[requestID] = s
	e.mu.Unlock()
	activeSessions.Inc()

	s.mu.Lock()
	s.emitLocked()
	s.mu.Unlock()

	go s.start(ctx, purchase)
	return requestID, s.stream, nil
}

// Snapshot returns the current state of a live session.
func (e *Engine) Snapshot(requestID string) (Snapshot, bool) {
	s := e.lookup(requestID)
	if s == nil {
		return Snapshot{}, false
	}
	return s.CurrentSnapshot(), true
}

// Cancel destroys a session: the timer is cleared synchronously and any
// in-flight query result will be discarded. Idempotent; cancelling an
// unknown or already-finished session is a no-op.
func (e *Engine) Cancel(requestID string) {
	e.mu.Lock()
	s, ok := e.sessions[requestID]
	if ok {
		delete(e.sessions, requestID)
	}
	e.mu.Unlock()
	if ok {
		s.cancel()
	}
}

// ManualRefresh issues exactly one immediate status query, bypassing the
// scheduler and its attempt budget. Valid only while Polling or Exhausted.
// Exhaustion is sticky: a non-terminal result leaves the session exhausted
// rather than restarting the schedule, bounding total query volume.
func (e *Engine) ManualRefresh(ctx context.Context, requestID string) (Snapshot, error) {
	s := e.lookup(requestID)
	if s == nil {
		return Snapshot{}, ErrNotFound
	}

	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return Snapshot{}, ErrNotFound
	}
	if s.state != StatePolling && s.state != StateExhausted {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrBadState
	}
	if s.inFlight {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrBusy
	}
	s.inFlight = true
	// Suspend the scheduler while the manual query runs; applyResult
	// re-arms it from the unchanged attempt index.
	s.disarmLocked()
	s.mu.Unlock()

	resp, err := s.query(ctx)
	s.applyResult(resp, err, false)
	return s.CurrentSnapshot(), nil
}

// ActiveCount reports the number of registered sessions, including dormant
// exhausted ones that have not been cancelled.
func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

func (e *Engine) lookup(requestID string) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[requestID]
}
