package schedule

import "errors"

var (
	// ErrHolderNotFound is returned when a layout query names a holder that
	// is not part of the current collection, e.g. one superseded by a newer
	// reload. Callers must not act on its cached layout.
	ErrHolderNotFound = errors.New("event holder is not part of the current collection")
	// ErrInvalidHolderState is returned when a holder's layout is queried
	// before a conflict resolution pass has run on its collection.
	ErrInvalidHolderState = errors.New("event holder layout queried before conflict resolution")
	// ErrNoEventSource is returned by ReloadData when no event source is configured.
	ErrNoEventSource = errors.New("no event source configured")
	// ErrManagerClosed is returned for operations on a closed manager.
	ErrManagerClosed = errors.New("event manager is closed")
)
