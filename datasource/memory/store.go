// Package memory provides an in-memory event source for testing and for
// embedding hosts without a backing calendar store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/CommanderPho/ScheduleKit/schedule"
)

// Store implements schedule.EventSource and schedule.AsyncEventSource over
// an in-memory map keyed by event UID.
type Store struct {
	mu     sync.RWMutex
	events map[string]schedule.Event
}

// New creates an empty in-memory event store.
func New() *Store {
	return &Store{events: make(map[string]schedule.Event)}
}

// Put inserts or replaces an event by its UID.
func (s *Store) Put(e schedule.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.UID()] = e
}

// Remove deletes the event with the given UID, if present.
func (s *Store) Remove(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, uid)
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Events returns the stored events intersecting the half-open range
// [start, end), ordered by start instant then UID.
func (s *Store) Events(ctx context.Context, start, end time.Time) ([]schedule.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var out []schedule.Event
	for _, e := range s.events {
		if schedule.Overlaps(e.StartDate(), e.EndDate(), start, end) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate().Equal(out[j].StartDate()) {
			return out[i].StartDate().Before(out[j].StartDate())
		}
		return out[i].UID() < out[j].UID()
	})
	return out, nil
}

// ScheduleEvents performs the fetch on a fresh goroutine and delivers the
// result exactly once, implementing schedule.AsyncEventSource.
func (s *Store) ScheduleEvents(req *schedule.Request, deliver func(events []schedule.Event, err error)) {
	go func() {
		events, err := s.Events(context.Background(), req.Start, req.End)
		deliver(events, err)
	}()
}
