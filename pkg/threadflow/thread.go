package threadflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/threadflow/threadflow/pkg/threadflow/checkpoint"
)

// LoadLatest returns the state saved by the thread's most recent
// completed run. Returns ErrNoCheckpoint when the thread has never
// completed a run.
//
// Use it to restore conversation context before a new turn:
//
//	prev, err := compiled.LoadLatest(ctx, store, threadID)
//	if err == nil {
//	    state = state.WithHistory(prev.Messages)
//	}
func (cg *CompiledGraph[S]) LoadLatest(ctx context.Context, store checkpoint.Store, threadID string) (S, error) {
	var zero S

	cp, err := checkpoint.Latest(ctx, store, threadID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return zero, fmt.Errorf("%w: %s", ErrNoCheckpoint, threadID)
		}
		return zero, err
	}

	if cp.Version != checkpoint.Version {
		return zero, fmt.Errorf("%w: got %d, want %d", ErrCheckpointVersionMismatch, cp.Version, checkpoint.Version)
	}

	var state S
	if err := json.Unmarshal(cp.State, &state); err != nil {
		return zero, fmt.Errorf("deserialize checkpoint state: %w", err)
	}

	return state, nil
}

// RunThread executes one turn of a thread-bound conversation.
//
// When a previous checkpoint exists and seed is non-nil, seed folds the
// previous final state into the incoming state (typically copying over
// message history) before the run starts. The run itself is serialized
// against other runs on the same thread and its final state is saved
// back to the store.
//
// Example:
//
//	result, err := compiled.RunThread(ctx, store, threadID, state,
//	    func(prev, next ChatState) ChatState {
//	        next.Messages = append(prev.Messages, next.Messages...)
//	        return next
//	    })
func (cg *CompiledGraph[S]) RunThread(ctx Context, store checkpoint.Store, threadID string, state S, seed func(prev, incoming S) S, opts ...RunOption) (S, error) {
	if ctx == nil {
		return state, ErrNilContext
	}

	if seed != nil {
		prev, err := cg.LoadLatest(ctx, store, threadID)
		switch {
		case err == nil:
			state = seed(prev, state)
		case errors.Is(err, ErrNoCheckpoint):
			// First turn on this thread.
		default:
			return state, err
		}
	}

	opts = append(opts, WithCheckpointStore(store), WithCheckpointThreadID(threadID))
	return cg.Run(ctx, state, opts...)
}
