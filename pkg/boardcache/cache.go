package boardcache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Defaults for the cache and its derived reads.
const (
	// DefaultTTL is how long a snapshot stays fresh.
	DefaultTTL = 5 * time.Minute

	// DefaultOverdueDays is the overdue threshold for task listings.
	DefaultOverdueDays = 7

	// DefaultUpcomingDays is the look-ahead window for task listings.
	DefaultUpcomingDays = 7

	// DefaultSummaryOverdueDays is the tighter overdue threshold the
	// board summary counts with.
	DefaultSummaryOverdueDays = 3
)

// ErrNoData indicates a derived read was asked before any snapshot
// was fetched.
var ErrNoData = errors.New("no board snapshot available")

// FetchFunc retrieves a fresh snapshot from the board source.
type FetchFunc func(ctx context.Context) (*Snapshot, error)

// Cache is a single-slot snapshot cache with a TTL. The zero value is
// not usable; construct with New.
//
// Snapshots handed out by Fetch and stored in the slot are shared;
// callers must treat them as read-only.
type Cache struct {
	fetch  FetchFunc
	ttl    time.Duration
	clock  func() time.Time
	logger *slog.Logger

	mu   sync.Mutex
	snap *Snapshot
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets how long a snapshot stays fresh. Non-positive values
// keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock substitutes the time source. Tests use this to move the
// calendar without sleeping.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger for fetch warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a cache around fetch.
func New(fetch FetchFunc, opts ...Option) *Cache {
	c := &Cache{
		fetch:  fetch,
		ttl:    DefaultTTL,
		clock:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the current snapshot, refreshing it first when the
// slot is empty, expired, or force is set.
//
// The refresh runs outside the lock: concurrent callers that both see
// an expired slot both hit the source, and the later write wins. A
// failed refresh returns the error and never evicts: the previous
// snapshot stays in the slot for later non-forced calls.
func (c *Cache) Fetch(ctx context.Context, force bool) (*Snapshot, error) {
	c.mu.Lock()
	cached := c.snap
	if !force && c.freshLocked(cached) {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	snap, err := c.fetch(ctx)
	if err != nil {
		if cached != nil {
			c.logger.Warn("board refresh failed, keeping previous snapshot",
				"error", err,
				"snapshot_age", c.clock().Sub(cached.FetchedAt).String(),
			)
		}
		return nil, err
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = c.clock()
	}

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
	return snap, nil
}

// Snapshot returns the cached snapshot without refreshing, or nil
// when nothing has been fetched.
func (c *Cache) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

func (c *Cache) freshLocked(snap *Snapshot) bool {
	return snap != nil && c.clock().Sub(snap.FetchedAt) < c.ttl
}

// today returns the current date at midnight UTC, the reference point
// for all deadline arithmetic.
func (c *Cache) today() time.Time {
	y, m, d := c.clock().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
