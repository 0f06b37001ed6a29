// Package checkpoint provides thread-keyed persistence for final run state.
//
// A store holds the single most recent checkpoint per conversation
// thread. Saving replaces the thread's previous checkpoint; loading
// returns it. This matches how conversational graphs use persistence:
// the last completed turn carries the whole conversation forward.
package checkpoint

import (
	"context"
	"errors"
	"time"
)

// Store persists the latest checkpoint per conversation thread.
// Implementations must be safe for concurrent use; operations on
// distinct threads never interfere with each other.
type Store interface {
	// Save stores the checkpoint for a thread, replacing any previous one.
	Save(ctx context.Context, threadID string, data []byte) error

	// Load retrieves the thread's checkpoint.
	// Returns ErrNotFound if the thread has none.
	Load(ctx context.Context, threadID string) ([]byte, error)

	// List returns metadata for every stored thread, most recently
	// updated first. Returns an empty slice (not an error) when the
	// store is empty.
	List(ctx context.Context) ([]Info, error)

	// Delete removes a thread's checkpoint.
	// Returns nil if the thread has none.
	Delete(ctx context.Context, threadID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides per-thread metadata without loading full state.
type Info struct {
	ThreadID  string
	UpdatedAt time.Time
	Size      int64
}

// Sentinel errors for checkpoint operations.
var (
	// ErrNotFound indicates a thread has no checkpoint.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")
)
