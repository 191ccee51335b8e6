// Package schedule implements the data and event coordination layer behind an
// interactive calendar view. It computes side-by-side layout positions for
// events whose time ranges conflict, and manages reload requests against an
// external event source so that only the most recent request's results are
// ever applied, even when requests complete out of order.
package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Event is the read-only contract between an event source and the layout
// core. Implementations are owned by the event source; the core keeps
// non-owning references for the duration of one reload cycle only.
type Event interface {
	// UID returns an opaque identifier, stable across reloads of the same event.
	UID() string
	// Title returns a human-readable label for display.
	Title() string
	// StartDate returns the start instant. StartDate must not be after EndDate.
	StartDate() time.Time
	// EndDate returns the end instant. Intervals are half-open: the end
	// instant itself is not part of the event.
	EndDate() time.Time
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. An interval ending exactly when another begins
// does not overlap it. A zero-duration interval [t, t) overlaps another
// interval iff that interval strictly contains the instant t.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aStart.Equal(aEnd) {
		return !bStart.After(aStart) && aStart.Before(bEnd)
	}
	if bStart.Equal(bEnd) {
		return !aStart.After(bStart) && bStart.Before(aEnd)
	}
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// StaticEvent is a plain value implementation of Event, suitable for
// in-memory stores, tests and examples.
type StaticEvent struct {
	uid   string
	title string
	start time.Time
	end   time.Time
}

// NewStaticEvent creates a StaticEvent with a generated UID.
func NewStaticEvent(title string, start, end time.Time) StaticEvent {
	return NewStaticEventWithUID(uuid.NewString(), title, start, end)
}

// NewStaticEventWithUID creates a StaticEvent with the given UID.
func NewStaticEventWithUID(uid, title string, start, end time.Time) StaticEvent {
	return StaticEvent{uid: uid, title: title, start: start, end: end}
}

func (e StaticEvent) UID() string          { return e.uid }
func (e StaticEvent) Title() string        { return e.title }
func (e StaticEvent) StartDate() time.Time { return e.start }
func (e StaticEvent) EndDate() time.Time   { return e.end }
