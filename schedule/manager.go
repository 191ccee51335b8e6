package schedule

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/mo"
)

// EventSource supplies the events intersecting a half-open date range
// [start, end). It is consulted synchronously; the call blocks the caller
// for the duration of the fetch.
type EventSource interface {
	Events(ctx context.Context, start, end time.Time) ([]Event, error)
}

// AsyncEventSource is implemented by event sources that can perform the
// fetch off the calling goroutine. ScheduleEvents must return promptly and
// invoke deliver exactly once, on a goroutine of the source's choosing,
// with either the fetched events or an error. The manager never spawns
// goroutines itself; asynchronous scheduling belongs entirely to the source.
type AsyncEventSource interface {
	EventSource
	ScheduleEvents(req *Request, deliver func(events []Event, err error))
}

// Options configures a new EventManager.
type Options struct {
	// Source supplies events. May be nil and set later with SetEventSource.
	Source EventSource
	// LoadsEventsAsynchronously selects the asynchronous reload mode.
	LoadsEventsAsynchronously bool
	// Start and End delimit the date range queried by ReloadData.
	Start time.Time
	End   time.Time
	// Logger receives structured reload diagnostics. Nil discards output.
	Logger *slog.Logger
}

// EventManager orchestrates the reload cycle: it issues tagged requests via
// its ReloadCoordinator, rebuilds the event holder collection from a winning
// result, runs conflict resolution over it, and signals the view. It also
// exposes the selection state and the delegate's mutation-validation hooks.
//
// The holder collection is replaced wholesale under the coordinator's
// serialization, never mutated in place, so a view iterating a snapshot
// obtained from Holders never observes a half-built layout.
type EventManager struct {
	coordinator *ReloadCoordinator
	logger      *slog.Logger

	mu        sync.RWMutex
	source    EventSource
	async     bool
	start     time.Time
	end       time.Time
	holders   []*EventHolder
	selection mo.Option[*EventHolder]
	view      View
	delegate  *Delegate
	observer  RequestObserver
	closed    bool
}

// NewEventManager creates a manager from the given options.
func NewEventManager(opts Options) *EventManager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &EventManager{
		coordinator: NewReloadCoordinator(logger),
		logger:      logger,
		source:      opts.Source,
		async:       opts.LoadsEventsAsynchronously,
		start:       opts.Start,
		end:         opts.End,
		selection:   mo.None[*EventHolder](),
	}
}

// Coordinator exposes the manager's reload coordinator, mainly for
// inspection in tests and instrumentation.
func (m *EventManager) Coordinator() *ReloadCoordinator { return m.coordinator }

// SetEventSource replaces the event source used by subsequent reloads.
func (m *EventManager) SetEventSource(src EventSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.source = src
}

// SetLoadsEventsAsynchronously switches the reload mode. Takes effect on the
// next ReloadData call.
func (m *EventManager) SetLoadsEventsAsynchronously(async bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.async = async
}

// LoadsEventsAsynchronously reports the configured reload mode.
func (m *EventManager) LoadsEventsAsynchronously() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.async
}

// SetDateRange sets the half-open date range [start, end) queried by
// subsequent reloads.
func (m *EventManager) SetDateRange(start, end time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.start, m.end = start, end
}

// DateRange returns the configured query range.
func (m *EventManager) DateRange() (start, end time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.start, m.end
}

// SetView attaches the rendering collaborator. The reference is non-owning;
// pass nil to detach. A detached view is skipped, never dereferenced.
func (m *EventManager) SetView(v View) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = v
}

// SetDelegate attaches the host callbacks. The reference is non-owning;
// pass nil to detach.
func (m *EventManager) SetDelegate(d *Delegate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delegate = d
}

// SetRequestObserver attaches the collaborator notified of reload outcomes.
func (m *EventManager) SetRequestObserver(o RequestObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = o
}

// ReloadData queries the event source for the configured date range and, if
// the request is still current when results arrive, replaces the holder
// collection, resolves conflicts and signals the view.
//
// In synchronous mode the fetch completes before ReloadData returns. In
// asynchronous mode the request is handed to the source's ScheduleEvents and
// ReloadData returns immediately; if the source does not implement
// AsyncEventSource the fetch falls back to the synchronous path. Either way
// the result is applied only if its token is still current, so issuing a new
// reload invalidates any outstanding one before it completes.
func (m *EventManager) ReloadData(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m.mu.RLock()
	src, async, start, end, closed := m.source, m.async, m.start, m.end, m.closed
	m.mu.RUnlock()
	if closed {
		return ErrManagerClosed
	}
	if src == nil {
		return ErrNoEventSource
	}

	req := m.coordinator.Begin(start, end, async)
	if async {
		if asyncSrc, ok := src.(AsyncEventSource); ok {
			asyncSrc.ScheduleEvents(req, func(events []Event, err error) {
				// Delivered on the source's goroutine. Errors are logged and
				// surfaced to the observer inside finishReload; there is no
				// caller left to return them to.
				_ = m.finishReload(req, events, err)
			})
			return nil
		}
		m.logger.Debug("event source cannot schedule asynchronously, fetching synchronously",
			"request_id", req.ID)
	}

	events, err := src.Events(ctx, start, end)
	return m.finishReload(req, events, err)
}

// finishReload runs the token-checked application of one reload outcome and
// the collaborator notifications that follow it.
func (m *EventManager) finishReload(req *Request, events []Event, fetchErr error) error {
	if fetchErr != nil {
		fetchErr = fmt.Errorf("fetch events for [%s, %s): %w",
			req.Start.Format(time.RFC3339), req.End.Format(time.RFC3339), fetchErr)
	}

	var selectionLost bool
	applied, err := m.coordinator.Complete(req, events, fetchErr, func(_ *Request, evs []Event) {
		selectionLost = m.replaceHolders(evs)
	})
	if !applied && err == nil {
		// Stale result: expected, not exceptional. No side effects.
		return nil
	}

	m.mu.RLock()
	observer, view, delegate := m.observer, m.view, m.delegate
	m.mu.RUnlock()

	if observer != nil {
		result := mo.Ok(events)
		if err != nil {
			result = mo.Err[[]Event](err)
		}
		observer.DidMakeEventRequest(req, result)
	}

	if err != nil {
		m.logger.Error("reload failed, keeping existing event holders",
			"request_id", req.ID,
			"token", req.Token,
			"error", err)
		return err
	}

	m.logger.Info("reload applied",
		"request_id", req.ID,
		"token", req.Token,
		"events", len(events))
	if selectionLost && delegate != nil && delegate.SelectionCleared != nil {
		delegate.SelectionCleared()
	}
	if view != nil {
		view.ReloadLayout()
	}
	return nil
}

// replaceHolders builds and resolves a fresh holder collection and swaps it
// in. Runs under the coordinator's critical section. Reports whether the
// swap dropped the selected event.
func (m *EventManager) replaceHolders(events []Event) (selectionLost bool) {
	holders := make([]*EventHolder, 0, len(events))
	for _, e := range events {
		holders = append(holders, NewEventHolder(e))
	}
	ResolveConflicts(holders)

	m.mu.Lock()
	defer m.mu.Unlock()
	if selected, ok := m.selection.Get(); ok {
		uid := selected.Event().UID()
		m.selection = mo.None[*EventHolder]()
		selectionLost = true
		for _, h := range holders {
			if h.Event().UID() == uid {
				m.selection = mo.Some(h)
				selectionLost = false
				break
			}
		}
	}
	m.holders = holders
	return selectionLost
}

// Holders returns a snapshot of the current holder collection.
func (m *EventManager) Holders() []*EventHolder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*EventHolder, len(m.holders))
	copy(out, m.holders)
	return out
}

// PositionInConflict returns the holder's ordinal position among its
// mutually conflicting peers and the other holders of its overlap cluster.
// Returns ErrHolderNotFound if the holder is not part of the current
// collection, e.g. because a newer reload replaced it; callers must then
// re-query rather than act on outdated layout.
func (m *EventManager) PositionInConflict(holder *EventHolder) (int, []*EventHolder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.containsLocked(holder) {
		return 0, nil, ErrHolderNotFound
	}
	position, err := holder.Position()
	if err != nil {
		return 0, nil, err
	}
	var others []*EventHolder
	for _, h := range m.holders {
		if h != holder && h.resolved && h.cluster == holder.cluster {
			others = append(others, h)
		}
	}
	return position, others, nil
}

func (m *EventManager) containsLocked(holder *EventHolder) bool {
	for _, h := range m.holders {
		if h == holder {
			return true
		}
	}
	return false
}

// SelectHolder marks the holder as selected and notifies the delegate.
// Returns ErrHolderNotFound if the holder is not in the current collection.
func (m *EventManager) SelectHolder(holder *EventHolder) error {
	m.mu.Lock()
	if !m.containsLocked(holder) {
		m.mu.Unlock()
		return ErrHolderNotFound
	}
	m.selection = mo.Some(holder)
	delegate := m.delegate
	m.mu.Unlock()

	if delegate != nil && delegate.EventSelected != nil {
		delegate.EventSelected(holder.Event())
	}
	return nil
}

// ClearSelection empties the selection and notifies the delegate if a
// selection was present.
func (m *EventManager) ClearSelection() {
	m.mu.Lock()
	hadSelection := m.selection.IsPresent()
	m.selection = mo.None[*EventHolder]()
	delegate := m.delegate
	m.mu.Unlock()

	if hadSelection && delegate != nil && delegate.SelectionCleared != nil {
		delegate.SelectionCleared()
	}
}

// SelectedEvent returns the selected event, if any.
func (m *EventManager) SelectedEvent() mo.Option[Event] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if holder, ok := m.selection.Get(); ok {
		return mo.Some(holder.Event())
	}
	return mo.None[Event]()
}

// DoubleClickHolder forwards a view double-click on an event to the
// delegate. Returns ErrHolderNotFound for holders outside the current
// collection.
func (m *EventManager) DoubleClickHolder(holder *EventHolder) error {
	m.mu.RLock()
	found := m.containsLocked(holder)
	delegate := m.delegate
	m.mu.RUnlock()
	if !found {
		return ErrHolderNotFound
	}
	if delegate != nil && delegate.EventDoubleClicked != nil {
		delegate.EventDoubleClicked(holder.Event())
	}
	return nil
}

// DoubleClickBlankDate forwards a view double-click on an empty date slot to
// the delegate.
func (m *EventManager) DoubleClickBlankDate(date time.Time) {
	m.mu.RLock()
	delegate := m.delegate
	m.mu.RUnlock()
	if delegate != nil && delegate.BlankDateDoubleClicked != nil {
		delegate.BlankDateDoubleClicked(date)
	}
}

// RequestEventLengthChange asks the delegate whether the proposed duration
// change for the event is allowed. With no delegate or no slot configured
// the change is allowed.
func (m *EventManager) RequestEventLengthChange(e Event, from, to time.Duration) bool {
	m.mu.RLock()
	delegate := m.delegate
	m.mu.RUnlock()
	if delegate == nil || delegate.ShouldChangeEventLength == nil {
		return true
	}
	return delegate.ShouldChangeEventLength(e, from, to)
}

// RequestEventDateChange asks the delegate whether the proposed start date
// change for the event is allowed. With no delegate or no slot configured
// the change is allowed.
func (m *EventManager) RequestEventDateChange(e Event, from, to time.Time) bool {
	m.mu.RLock()
	delegate := m.delegate
	m.mu.RUnlock()
	if delegate == nil || delegate.ShouldChangeEventDate == nil {
		return true
	}
	return delegate.ShouldChangeEventDate(e, from, to)
}

// Close tears the manager down: outstanding reload completions become stale
// and the holder collection is released. Subsequent ReloadData calls return
// ErrManagerClosed. Close is idempotent.
func (m *EventManager) Close() {
	m.coordinator.Invalidate()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.holders = nil
	m.selection = mo.None[*EventHolder]()
}
