package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Version is the current checkpoint format version.
// Increment when making breaking changes to checkpoint structure.
const Version = 1

// Checkpoint is the persisted snapshot of a completed run.
// It carries the final state of the thread's most recent turn.
type Checkpoint struct {
	// Metadata
	Version   int       `json:"version"`
	ThreadID  string    `json:"thread_id"`
	RunID     string    `json:"run_id"`
	Sequence  int       `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`

	// FinalNode is the last node executed before END.
	FinalNode string `json:"final_node"`

	// State is the JSON-serialized final state.
	State json.RawMessage `json:"state"`
}

// New creates a checkpoint for a completed run.
// State must already be JSON-serialized.
func New(threadID, runID string, sequence int, finalNode string, state []byte) *Checkpoint {
	return &Checkpoint{
		Version:   Version,
		ThreadID:  threadID,
		RunID:     runID,
		Sequence:  sequence,
		CreatedAt: time.Now().UTC(),
		FinalNode: finalNode,
		State:     state,
	}
}

// Marshal serializes a checkpoint to JSON.
func (c *Checkpoint) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// Unmarshal deserializes a checkpoint from JSON.
func Unmarshal(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports whether the checkpoint is structurally usable.
func (c *Checkpoint) Validate() error {
	var errs []error
	if c.Version <= 0 {
		errs = append(errs, fmt.Errorf("invalid version %d", c.Version))
	}
	if c.ThreadID == "" {
		errs = append(errs, errors.New("thread ID is empty"))
	}
	if c.Sequence <= 0 {
		errs = append(errs, fmt.Errorf("invalid sequence %d", c.Sequence))
	}
	if len(c.State) == 0 {
		errs = append(errs, errors.New("state is empty"))
	}
	return errors.Join(errs...)
}

// Latest loads and decodes the thread's checkpoint from a store.
// Returns ErrNotFound when the thread has none.
func Latest(ctx context.Context, store Store, threadID string) (*Checkpoint, error) {
	data, err := store.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}

	cp, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode checkpoint for thread %s: %w", threadID, err)
	}
	if err := cp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid checkpoint for thread %s: %w", threadID, err)
	}
	return cp, nil
}
