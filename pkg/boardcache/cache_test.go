package boardcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manual time source for TTL tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// countingFetch returns a FetchFunc that counts calls and serves the
// given snapshots in order, repeating the last one.
func countingFetch(calls *int, snaps ...*Snapshot) FetchFunc {
	return func(ctx context.Context) (*Snapshot, error) {
		*calls++
		i := *calls - 1
		if i >= len(snaps) {
			i = len(snaps) - 1
		}
		snap := *snaps[i]
		return &snap, nil
	}
}

func boardSnapshot(tasks ...Task) *Snapshot {
	return &Snapshot{BoardName: "Production Board", Tasks: tasks}
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	baseTime := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("first fetch fills the slot", func(t *testing.T) {
		calls := 0
		clock := newFakeClock(baseTime)
		c := New(countingFetch(&calls, boardSnapshot(Task{Name: "Design homepage"})), WithClock(clock.Now))

		snap, err := c.Fetch(ctx, false)
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.Equal(t, "Production Board", snap.BoardName)
		assert.Equal(t, 1, calls)
		assert.Equal(t, baseTime, snap.FetchedAt)
	})

	t.Run("fresh snapshot is served without refetching", func(t *testing.T) {
		calls := 0
		clock := newFakeClock(baseTime)
		c := New(countingFetch(&calls, boardSnapshot()), WithClock(clock.Now))

		_, err := c.Fetch(ctx, false)
		require.NoError(t, err)

		clock.Advance(4 * time.Minute)
		_, err = c.Fetch(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("expired snapshot triggers a refresh", func(t *testing.T) {
		calls := 0
		clock := newFakeClock(baseTime)
		c := New(
			countingFetch(&calls, boardSnapshot(), boardSnapshot(Task{Name: "New task"})),
			WithClock(clock.Now),
		)

		_, err := c.Fetch(ctx, false)
		require.NoError(t, err)

		clock.Advance(6 * time.Minute)
		snap, err := c.Fetch(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		require.Len(t, snap.Tasks, 1)
		assert.Equal(t, "New task", snap.Tasks[0].Name)
	})

	t.Run("force bypasses freshness", func(t *testing.T) {
		calls := 0
		clock := newFakeClock(baseTime)
		c := New(countingFetch(&calls, boardSnapshot()), WithClock(clock.Now))

		_, err := c.Fetch(ctx, false)
		require.NoError(t, err)
		_, err = c.Fetch(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("custom TTL", func(t *testing.T) {
		calls := 0
		clock := newFakeClock(baseTime)
		c := New(countingFetch(&calls, boardSnapshot()), WithClock(clock.Now), WithTTL(30*time.Second))

		_, err := c.Fetch(ctx, false)
		require.NoError(t, err)

		clock.Advance(time.Minute)
		_, err = c.Fetch(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("failed refresh returns the error and keeps the slot", func(t *testing.T) {
		calls := 0
		clock := newFakeClock(baseTime)
		fetchErr := errors.New("board API down")
		fetch := func(ctx context.Context) (*Snapshot, error) {
			calls++
			if calls > 1 {
				return nil, fetchErr
			}
			return boardSnapshot(Task{Name: "Survivor"}), nil
		}
		c := New(fetch, WithClock(clock.Now))

		_, err := c.Fetch(ctx, false)
		require.NoError(t, err)

		clock.Advance(time.Minute)
		snap, err := c.Fetch(ctx, true)
		assert.Nil(t, snap)
		assert.ErrorIs(t, err, fetchErr)

		// The failure did not evict: a later non-forced call within
		// TTL serves the original snapshot without hitting upstream.
		snap, err = c.Fetch(ctx, false)
		require.NoError(t, err)
		require.Len(t, snap.Tasks, 1)
		assert.Equal(t, "Survivor", snap.Tasks[0].Name)
		assert.Equal(t, baseTime, snap.FetchedAt)
		assert.Equal(t, 2, calls)
	})

	t.Run("expired slot with a broken upstream is an error, not stale data", func(t *testing.T) {
		calls := 0
		clock := newFakeClock(baseTime)
		fetchErr := errors.New("board API down")
		fetch := func(ctx context.Context) (*Snapshot, error) {
			calls++
			if calls > 1 {
				return nil, fetchErr
			}
			return boardSnapshot(Task{Name: "Survivor"}), nil
		}
		c := New(fetch, WithClock(clock.Now))

		_, err := c.Fetch(ctx, false)
		require.NoError(t, err)

		clock.Advance(10 * time.Minute)
		snap, err := c.Fetch(ctx, false)
		assert.Nil(t, snap)
		assert.ErrorIs(t, err, fetchErr)

		// Derived reads can still work off the retained snapshot.
		require.NotNil(t, c.Snapshot())
		assert.Equal(t, "Survivor", c.Snapshot().Tasks[0].Name)
	})

	t.Run("failure with empty slot returns the error", func(t *testing.T) {
		fetchErr := errors.New("board API down")
		c := New(func(ctx context.Context) (*Snapshot, error) { return nil, fetchErr })

		snap, err := c.Fetch(ctx, false)
		assert.Nil(t, snap)
		assert.ErrorIs(t, err, fetchErr)
	})

	t.Run("fetcher timestamp is preserved", func(t *testing.T) {
		stamped := baseTime.Add(-time.Minute)
		c := New(func(ctx context.Context) (*Snapshot, error) {
			return &Snapshot{FetchedAt: stamped}, nil
		}, WithClock(newFakeClock(baseTime).Now))

		snap, err := c.Fetch(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, stamped, snap.FetchedAt)
	})

	t.Run("concurrent fetches settle on one snapshot", func(t *testing.T) {
		var mu sync.Mutex
		calls := 0
		fetch := func(ctx context.Context) (*Snapshot, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return boardSnapshot(), nil
		}
		c := New(fetch)

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := c.Fetch(ctx, false)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		require.NotNil(t, c.Snapshot())
		mu.Lock()
		assert.GreaterOrEqual(t, calls, 1)
		mu.Unlock()
	})
}

func TestSnapshotAccessor(t *testing.T) {
	c := New(func(ctx context.Context) (*Snapshot, error) { return boardSnapshot(), nil })
	assert.Nil(t, c.Snapshot())

	_, err := c.Fetch(context.Background(), false)
	require.NoError(t, err)
	assert.NotNil(t, c.Snapshot())
}
