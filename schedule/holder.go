package schedule

import "time"

// EventHolder wraps one event together with its computed layout state: the
// size of its overlap cluster and its ordinal position within that cluster.
// Layout state is write-once per reload cycle, set by ResolveConflicts.
// Holders are created fresh on every successful reload; the manager replaces
// the whole collection rather than mutating holders in place.
type EventHolder struct {
	event Event

	// start/end are cached at creation so that a mid-cycle mutation of the
	// underlying event cannot skew an already computed layout.
	start time.Time
	end   time.Time

	conflictCount int
	position      int
	cluster       int
	resolved      bool
}

// NewEventHolder wraps the given event, caching its start and end instants.
func NewEventHolder(e Event) *EventHolder {
	return &EventHolder{event: e, start: e.StartDate(), end: e.EndDate()}
}

// Event returns the wrapped event.
func (h *EventHolder) Event() Event { return h.event }

// StartDate returns the start instant cached at holder creation.
func (h *EventHolder) StartDate() time.Time { return h.start }

// EndDate returns the end instant cached at holder creation.
func (h *EventHolder) EndDate() time.Time { return h.end }

// Resolved reports whether a conflict resolution pass has run on this holder.
func (h *EventHolder) Resolved() bool { return h.resolved }

// ConflictCount returns the number of events in this holder's overlap
// cluster, including itself. It is always >= 1 once resolved. Returns
// ErrInvalidHolderState before resolution.
func (h *EventHolder) ConflictCount() (int, error) {
	if !h.resolved {
		return 0, ErrInvalidHolderState
	}
	return h.conflictCount, nil
}

// Position returns this holder's 0-based ordinal within its overlap cluster.
// It is always < ConflictCount once resolved. Returns ErrInvalidHolderState
// before resolution.
func (h *EventHolder) Position() (int, error) {
	if !h.resolved {
		return 0, ErrInvalidHolderState
	}
	return h.position, nil
}

// setLayout records the outcome of a resolution pass.
func (h *EventHolder) setLayout(cluster, conflictCount, position int) {
	h.cluster = cluster
	h.conflictCount = conflictCount
	h.position = position
	h.resolved = true
}
