package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CommanderPho/ScheduleKit/schedule"
)

func TestStoreEventsFiltersByRange(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	s := New()
	s.Put(schedule.NewStaticEventWithUID("a", "early", day.Add(8*time.Hour), day.Add(9*time.Hour)))
	s.Put(schedule.NewStaticEventWithUID("b", "morning", day.Add(9*time.Hour), day.Add(10*time.Hour)))
	s.Put(schedule.NewStaticEventWithUID("c", "evening", day.Add(18*time.Hour), day.Add(19*time.Hour)))
	require.Equal(t, 3, s.Len())

	// [9:00, 18:00): the 8-9 event touches the range start and is excluded by
	// half-open semantics; the 18-19 event starts exactly at the range end.
	events, err := s.Events(context.Background(), day.Add(9*time.Hour), day.Add(18*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "morning", events[0].Title())
}

func TestStoreEventsSortedByStart(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	s := New()
	s.Put(schedule.NewStaticEventWithUID("z", "late", day.Add(15*time.Hour), day.Add(16*time.Hour)))
	s.Put(schedule.NewStaticEventWithUID("m", "mid", day.Add(12*time.Hour), day.Add(13*time.Hour)))
	s.Put(schedule.NewStaticEventWithUID("a", "early", day.Add(9*time.Hour), day.Add(10*time.Hour)))

	events, err := s.Events(context.Background(), day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "early", events[0].Title())
	assert.Equal(t, "mid", events[1].Title())
	assert.Equal(t, "late", events[2].Title())
}

func TestStorePutReplacesAndRemove(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	s := New()
	s.Put(schedule.NewStaticEventWithUID("a", "v1", day.Add(9*time.Hour), day.Add(10*time.Hour)))
	s.Put(schedule.NewStaticEventWithUID("a", "v2", day.Add(9*time.Hour), day.Add(10*time.Hour)))
	assert.Equal(t, 1, s.Len())

	events, err := s.Events(context.Background(), day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "v2", events[0].Title())

	s.Remove("a")
	assert.Equal(t, 0, s.Len())
}

func TestStoreCancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Events(ctx, time.Now(), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStoreScheduleEventsDeliversAsynchronously(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	s := New()
	s.Put(schedule.NewStaticEventWithUID("a", "standup", day.Add(9*time.Hour), day.Add(10*time.Hour)))

	m := schedule.NewEventManager(schedule.Options{
		Source:                    s,
		LoadsEventsAsynchronously: true,
		Start:                     day,
		End:                       day.AddDate(0, 0, 1),
	})
	defer m.Close()

	done := make(chan struct{})
	req := m.Coordinator().Begin(day, day.AddDate(0, 0, 1), true)
	s.ScheduleEvents(req, func(events []schedule.Event, err error) {
		assert.NoError(t, err)
		assert.Len(t, events, 1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for asynchronous delivery")
	}
}
