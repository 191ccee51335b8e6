package schedule

import (
	"time"

	"github.com/samber/mo"
)

// View is the rendering collaborator. The manager signals it after every
// successful reload-and-resolve cycle so it can re-layout its event views.
// The manager holds the view non-owningly; a nil view is skipped.
type View interface {
	ReloadLayout()
}

// RequestObserver is notified after every reload attempt that was still
// current at completion time, with the request and its outcome. The
// notification is purely observational; nothing is consumed from it.
type RequestObserver interface {
	DidMakeEventRequest(req *Request, result mo.Result[[]Event])
}

// Delegate carries the optional host callbacks. Every slot may be left nil
// independently; a nil slot is skipped for notifications and defaults to
// permissive for the two change queries. The manager never extends the
// delegate's lifetime: clearing it with SetDelegate(nil) detaches the host.
type Delegate struct {
	// EventSelected is called after an event holder becomes selected.
	EventSelected func(Event)
	// SelectionCleared is called after the selection becomes empty, either
	// explicitly or because a reload dropped the selected event.
	SelectionCleared func()
	// EventDoubleClicked is called when the view forwards a double-click on
	// an event.
	EventDoubleClicked func(Event)
	// BlankDateDoubleClicked is called when the view forwards a double-click
	// on an empty date slot.
	BlankDateDoubleClicked func(time.Time)
	// ShouldChangeEventLength decides whether a proposed duration change is
	// allowed. Nil means allow.
	ShouldChangeEventLength func(e Event, from, to time.Duration) bool
	// ShouldChangeEventDate decides whether a proposed start date change is
	// allowed. Nil means allow.
	ShouldChangeEventDate func(e Event, from, to time.Time) bool
}
