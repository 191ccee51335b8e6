package schedule

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Request identifies one reload attempt: a monotonically increasing token,
// a request ID for logging and observation, and the queried date range
// [Start, End). Only the most recently issued token is "current"; results
// arriving under any other token are stale and are silently discarded.
type Request struct {
	// ID identifies the request for logging and observer callbacks.
	ID uuid.UUID
	// Token orders this request among all requests of one coordinator.
	Token uint64
	// Start and End delimit the half-open queried range [Start, End).
	Start time.Time
	End   time.Time
	// Asynchronous records which reload mode issued the request.
	Asynchronous bool
}

// ApplyFunc consumes the events of a winning reload. It runs while the
// coordinator's state is locked, so at most one completion can apply per
// token and no Begin can interleave with the check-and-apply sequence.
type ApplyFunc func(req *Request, events []Event)

// ReloadCoordinator owns the reload request protocol for one manager
// instance: it issues tagged requests, tracks the single current token, and
// applies results only when their token is still current at arrival time.
// Asynchronous requests additionally appear in an in-flight set used for
// cancellation bookkeeping; Begin prunes entries superseded by the new
// token, so the set stays bounded by the single outstanding request.
//
// The coordinator never spawns goroutines; asynchronous scheduling belongs
// to the event source. Its only job is to make result application atomic
// and order-correct regardless of which goroutine delivers the result.
type ReloadCoordinator struct {
	mu       sync.Mutex
	counter  uint64
	current  uint64
	inFlight map[uint64]*Request
	logger   *slog.Logger
}

// NewReloadCoordinator creates a coordinator. A nil logger discards output.
func NewReloadCoordinator(logger *slog.Logger) *ReloadCoordinator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ReloadCoordinator{
		inFlight: make(map[uint64]*Request),
		logger:   logger,
	}
}

// Begin advances the token counter and returns the new current request,
// invalidating any previously issued token immediately, before the fetch for
// the new request even starts. Asynchronous requests are registered in the
// in-flight set; synchronous requests never enter it.
func (c *ReloadCoordinator) Begin(start, end time.Time, asynchronous bool) *Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counter++
	c.current = c.counter
	req := &Request{
		ID:           uuid.New(),
		Token:        c.counter,
		Start:        start,
		End:          end,
		Asynchronous: asynchronous,
	}

	// Superseded entries are dead weight: their completions will fail the
	// token check with or without the bookkeeping entry.
	for token := range c.inFlight {
		if token != c.current {
			delete(c.inFlight, token)
		}
	}
	if asynchronous {
		c.inFlight[req.Token] = req
	}

	c.logger.Debug("issued reload request",
		"request_id", req.ID,
		"token", req.Token,
		"start", start,
		"end", end,
		"asynchronous", asynchronous)
	return req
}

// IsCurrent reports whether the given token is still the current one.
func (c *ReloadCoordinator) IsCurrent(token uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return token != 0 && token == c.current
}

// InFlight returns the number of asynchronous requests awaiting completion.
func (c *ReloadCoordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inFlight)
}

// Cancel removes an asynchronous request from the in-flight set without
// waiting for its completion. A late completion is then dropped by the token
// check like any other stale result; cancellation never blocks.
func (c *ReloadCoordinator) Cancel(req *Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, req.Token)
	if req.Token == c.current {
		c.current = 0
	}
}

// Invalidate discards the current token so that every outstanding completion
// becomes stale. Used on manager teardown.
func (c *ReloadCoordinator) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = 0
	c.inFlight = make(map[uint64]*Request)
}

// Complete processes the outcome of a reload request. The token check and
// the apply callback run under one critical section, so two racing
// completions cannot both pass the staleness check, and no Begin can slip
// between check and apply.
//
// A stale result is not an error: it is dropped with no side effects and
// Complete returns (false, nil). A current result with a fetch error
// returns (false, err) without touching any state, leaving retry policy to
// the caller's event source. A current successful result runs apply and
// returns (true, nil).
func (c *ReloadCoordinator) Complete(req *Request, events []Event, fetchErr error, apply ApplyFunc) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.inFlight, req.Token)
	if req.Token != c.current {
		c.logger.Debug("discarding stale reload result",
			"request_id", req.ID,
			"token", req.Token,
			"current", c.current)
		return false, nil
	}
	if fetchErr != nil {
		return false, fetchErr
	}
	if apply != nil {
		apply(req, events)
	}
	return true, nil
}
