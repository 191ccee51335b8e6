package schedule

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRange() (time.Time, time.Time) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func TestReloadCoordinatorBeginInvalidatesPreviousToken(t *testing.T) {
	c := NewReloadCoordinator(nil)
	start, end := testRange()

	first := c.Begin(start, end, false)
	assert.True(t, c.IsCurrent(first.Token))

	second := c.Begin(start, end, false)
	assert.False(t, c.IsCurrent(first.Token))
	assert.True(t, c.IsCurrent(second.Token))
	assert.Greater(t, second.Token, first.Token)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestReloadCoordinatorInFlightBookkeeping(t *testing.T) {
	c := NewReloadCoordinator(nil)
	start, end := testRange()

	// Synchronous requests never enter the in-flight set.
	c.Begin(start, end, false)
	assert.Equal(t, 0, c.InFlight())

	// Asynchronous ones do, and superseded entries are pruned on Begin.
	c.Begin(start, end, true)
	assert.Equal(t, 1, c.InFlight())
	c.Begin(start, end, true)
	assert.Equal(t, 1, c.InFlight())

	// Completion removes the entry, stale or not.
	req := c.Begin(start, end, true)
	applied, err := c.Complete(req, nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 0, c.InFlight())
}

func TestReloadCoordinatorLastRequestWins(t *testing.T) {
	c := NewReloadCoordinator(nil)
	start, end := testRange()

	slow := c.Begin(start, end, true)
	fast := c.Begin(start, end, true)

	var appliedEvents []Event
	apply := func(_ *Request, events []Event) { appliedEvents = events }

	fastEvents := NewMockEvents(start, MockSpan{Title: "fast", Start: 9 * time.Hour, End: 10 * time.Hour})
	slowEvents := NewMockEvents(start, MockSpan{Title: "slow", Start: 9 * time.Hour, End: 10 * time.Hour})

	// The fast request completes first and wins.
	applied, err := c.Complete(fast, fastEvents, nil, apply)
	require.NoError(t, err)
	assert.True(t, applied)

	// The slow request completes second but was superseded before the fast
	// one was even issued; its result must be dropped silently.
	applied, err = c.Complete(slow, slowEvents, nil, apply)
	require.NoError(t, err)
	assert.False(t, applied)

	require.Len(t, appliedEvents, 1)
	assert.Equal(t, "fast", appliedEvents[0].Title())
}

func TestReloadCoordinatorFetchErrorPropagates(t *testing.T) {
	c := NewReloadCoordinator(nil)
	start, end := testRange()
	fetchErr := errors.New("backend unavailable")

	req := c.Begin(start, end, false)
	called := false
	applied, err := c.Complete(req, nil, fetchErr, func(*Request, []Event) { called = true })

	assert.False(t, applied)
	assert.ErrorIs(t, err, fetchErr)
	assert.False(t, called)
}

func TestReloadCoordinatorStaleErrorIsSilent(t *testing.T) {
	c := NewReloadCoordinator(nil)
	start, end := testRange()

	stale := c.Begin(start, end, true)
	c.Begin(start, end, true)

	// Even a failed completion is dropped without surfacing once stale.
	applied, err := c.Complete(stale, nil, errors.New("backend unavailable"), nil)
	assert.False(t, applied)
	assert.NoError(t, err)
}

func TestReloadCoordinatorCancel(t *testing.T) {
	c := NewReloadCoordinator(nil)
	start, end := testRange()

	req := c.Begin(start, end, true)
	c.Cancel(req)
	assert.Equal(t, 0, c.InFlight())
	assert.False(t, c.IsCurrent(req.Token))

	applied, err := c.Complete(req, nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestReloadCoordinatorInvalidate(t *testing.T) {
	c := NewReloadCoordinator(nil)
	start, end := testRange()

	req := c.Begin(start, end, true)
	c.Invalidate()

	assert.Equal(t, 0, c.InFlight())
	applied, err := c.Complete(req, nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestReloadCoordinatorConcurrentCompletionsApplyOnce(t *testing.T) {
	c := NewReloadCoordinator(nil)
	start, end := testRange()

	// Many superseded requests plus one current one, all completing
	// concurrently from different goroutines. Exactly one may apply.
	const staleCount = 32
	staleReqs := make([]*Request, staleCount)
	for i := range staleReqs {
		staleReqs[i] = c.Begin(start, end, true)
	}
	current := c.Begin(start, end, true)

	var mu sync.Mutex
	applications := 0
	apply := func(req *Request, _ []Event) {
		mu.Lock()
		defer mu.Unlock()
		applications++
		assert.Equal(t, current.Token, req.Token)
	}

	var wg sync.WaitGroup
	for _, req := range staleReqs {
		wg.Add(1)
		go func(r *Request) {
			defer wg.Done()
			_, err := c.Complete(r, nil, nil, apply)
			assert.NoError(t, err)
		}(req)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		applied, err := c.Complete(current, nil, nil, apply)
		assert.NoError(t, err)
		assert.True(t, applied)
	}()
	wg.Wait()

	assert.Equal(t, 1, applications)
	assert.Equal(t, 0, c.InFlight())
}
