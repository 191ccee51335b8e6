package schedule

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockEventSource implements EventSource and AsyncEventSource for testing.
type MockEventSource struct {
	mock.Mock
}

// Events implements the EventSource interface.
func (m *MockEventSource) Events(ctx context.Context, start, end time.Time) ([]Event, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Event), args.Error(1)
}

// ScheduleEvents implements the AsyncEventSource interface. Tests typically
// capture deliver with a Run hook and invoke it at a chosen moment to model
// out-of-order completion.
func (m *MockEventSource) ScheduleEvents(req *Request, deliver func(events []Event, err error)) {
	m.Called(req, deliver)
}

// --- Helpers for creating test data ---

// NewMockEvents builds a slice of static events from (title, start, end)
// triples, with UIDs derived from the titles.
func NewMockEvents(day time.Time, spans ...MockSpan) []Event {
	events := make([]Event, 0, len(spans))
	for _, s := range spans {
		start := day.Add(s.Start)
		end := day.Add(s.End)
		events = append(events, NewStaticEventWithUID("uid-"+s.Title, s.Title, start, end))
	}
	return events
}

// MockSpan describes one test event as offsets from a base day.
type MockSpan struct {
	Title string
	Start time.Duration
	End   time.Duration
}
