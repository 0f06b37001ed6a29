package errors

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig tunes Do: how many attempts to spend and how the wait
// between them grows.
type RetryConfig struct {
	// MaxAttempts counts every try, the first included.
	MaxAttempts int

	// InitialBackoff is the wait after the first failure; each later
	// failure multiplies it by BackoffFactor up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64

	// Jitter spreads each wait by up to this fraction either way so
	// synchronized callers drift apart. Zero disables it.
	Jitter float64

	// RetryableFunc replaces IsRetryable as the retry verdict when set.
	RetryableFunc func(error) bool
}

// DefaultRetry is what callers get when they tune nothing: three
// attempts spread over a few seconds.
var DefaultRetry = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: 500 * time.Millisecond,
	MaxBackoff:     10 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// NoRetry makes Do a single plain call.
var NoRetry = RetryConfig{MaxAttempts: 1}

// Do executes fn, retrying transient failures with exponential backoff
// until it succeeds, the attempts run out, or ctx is done. On failure the
// returned error is a *CategorizedError carrying the attempt count.
func Do[T any](ctx context.Context, cfg RetryConfig, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	retryable := cfg.RetryableFunc
	if retryable == nil {
		retryable = IsRetryable
	}

	wait := cfg.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, &CategorizedError{
				Err:      err,
				Category: CategoryPermanent,
				Retries:  attempt - 1,
				Context:  op,
			}
		}

		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err

		if !retryable(err) {
			return zero, &CategorizedError{
				Err:      err,
				Category: Categorize(err),
				Retries:  attempt,
				Context:  op,
			}
		}

		// No sleep after the final attempt.
		if attempt < cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return zero, &CategorizedError{
					Err:      ctx.Err(),
					Category: CategoryPermanent,
					Retries:  attempt,
					Context:  op,
				}
			case <-time.After(jittered(wait, cfg.Jitter)):
			}
			wait = min(time.Duration(float64(wait)*cfg.BackoffFactor), cfg.MaxBackoff)
		}
	}

	return zero, &CategorizedError{
		Err:      lastErr,
		Category: Categorize(lastErr),
		Retries:  cfg.MaxAttempts,
		Context:  op,
	}
}

// jittered returns base +/- (base * jitter * random).
func jittered(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return base
	}
	spread := float64(base) * jitter * (rand.Float64()*2 - 1)
	return time.Duration(float64(base) + spread)
}

// A RetryOption adjusts one knob on a RetryConfig.
type RetryOption func(*RetryConfig)

// WithMaxAttempts caps the attempt count, first try included.
func WithMaxAttempts(n int) RetryOption {
	return func(cfg *RetryConfig) { cfg.MaxAttempts = n }
}

// WithInitialBackoff sets the wait after the first failure.
func WithInitialBackoff(d time.Duration) RetryOption {
	return func(cfg *RetryConfig) { cfg.InitialBackoff = d }
}

// WithMaxBackoff caps how long any single wait can grow.
func WithMaxBackoff(d time.Duration) RetryOption {
	return func(cfg *RetryConfig) { cfg.MaxBackoff = d }
}

// WithBackoffFactor sets the per-attempt wait multiplier.
func WithBackoffFactor(f float64) RetryOption {
	return func(cfg *RetryConfig) { cfg.BackoffFactor = f }
}

// WithJitter sets the random spread applied to each wait.
func WithJitter(j float64) RetryOption {
	return func(cfg *RetryConfig) { cfg.Jitter = j }
}

// WithRetryableFunc swaps in a custom retry verdict.
func WithRetryableFunc(fn func(error) bool) RetryOption {
	return func(cfg *RetryConfig) { cfg.RetryableFunc = fn }
}

// NewRetryConfig applies opts on top of DefaultRetry.
func NewRetryConfig(opts ...RetryOption) RetryConfig {
	cfg := DefaultRetry
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}
