package checkpoint_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadflow/threadflow/pkg/threadflow/checkpoint"
)

func TestCheckpoint_New(t *testing.T) {
	state := []byte(`{"value": 42}`)
	cp := checkpoint.New("thread-1", "run-123", 1, "respond", state)

	assert.Equal(t, checkpoint.Version, cp.Version)
	assert.Equal(t, "thread-1", cp.ThreadID)
	assert.Equal(t, "run-123", cp.RunID)
	assert.Equal(t, 1, cp.Sequence)
	assert.Equal(t, "respond", cp.FinalNode)
	assert.Equal(t, json.RawMessage(state), cp.State)
	assert.False(t, cp.CreatedAt.IsZero())
}

func TestCheckpoint_MarshalUnmarshal(t *testing.T) {
	state := []byte(`{"counter":10}`)
	original := checkpoint.New("thread-1", "run-123", 5, "respond", state)

	data, err := original.Marshal()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	loaded, err := checkpoint.Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, original.Version, loaded.Version)
	assert.Equal(t, original.ThreadID, loaded.ThreadID)
	assert.Equal(t, original.RunID, loaded.RunID)
	assert.Equal(t, original.Sequence, loaded.Sequence)
	assert.Equal(t, original.FinalNode, loaded.FinalNode)
	assert.JSONEq(t, string(original.State), string(loaded.State))
	assert.WithinDuration(t, original.CreatedAt, loaded.CreatedAt, time.Second)
}

func TestCheckpoint_UnmarshalInvalidJSON(t *testing.T) {
	_, err := checkpoint.Unmarshal([]byte("not json"))
	assert.Error(t, err)
}

func TestCheckpoint_JSONFormat(t *testing.T) {
	cp := checkpoint.New("thread-1", "run-1", 2, "respond", []byte(`{"value":42}`))

	data, err := cp.Marshal()
	require.NoError(t, err)

	var raw map[string]any
	err = json.Unmarshal(data, &raw)
	require.NoError(t, err)

	assert.Equal(t, float64(checkpoint.Version), raw["version"])
	assert.Equal(t, "thread-1", raw["thread_id"])
	assert.Equal(t, "run-1", raw["run_id"])
	assert.Equal(t, float64(2), raw["sequence"])
	assert.Equal(t, "respond", raw["final_node"])
	assert.NotEmpty(t, raw["created_at"])

	// State should be nested JSON
	stateMap, ok := raw["state"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(42), stateMap["value"])
}

func TestCheckpoint_Validate(t *testing.T) {
	valid := checkpoint.New("thread-1", "run-1", 1, "respond", []byte(`{}`))
	assert.NoError(t, valid.Validate())

	testCases := []struct {
		name   string
		mutate func(*checkpoint.Checkpoint)
	}{
		{"zero version", func(c *checkpoint.Checkpoint) { c.Version = 0 }},
		{"empty thread", func(c *checkpoint.Checkpoint) { c.ThreadID = "" }},
		{"zero sequence", func(c *checkpoint.Checkpoint) { c.Sequence = 0 }},
		{"empty state", func(c *checkpoint.Checkpoint) { c.State = nil }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cp := checkpoint.New("thread-1", "run-1", 1, "respond", []byte(`{}`))
			tc.mutate(cp)
			assert.Error(t, cp.Validate())
		})
	}
}

func TestCheckpoint_Validate_JoinsAllProblems(t *testing.T) {
	cp := &checkpoint.Checkpoint{}

	err := cp.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
	assert.Contains(t, err.Error(), "thread ID")
	assert.Contains(t, err.Error(), "sequence")
	assert.Contains(t, err.Error(), "state")
}

func TestLatest_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	cp := checkpoint.New("thread-1", "run-9", 3, "respond", []byte(`{"output":"hi"}`))
	data, err := cp.Marshal()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "thread-1", data))

	loaded, err := checkpoint.Latest(ctx, store, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Sequence)
	assert.Equal(t, "run-9", loaded.RunID)
}

func TestLatest_NotFound(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	_, err := checkpoint.Latest(ctx, store, "missing")
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestLatest_CorruptData(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Save(ctx, "thread-1", []byte("not json")))

	_, err := checkpoint.Latest(ctx, store, "thread-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode checkpoint")
}

func TestLatest_InvalidRecord(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	// Well-formed JSON that fails validation.
	require.NoError(t, store.Save(ctx, "thread-1", []byte(`{"version":1}`)))

	_, err := checkpoint.Latest(ctx, store, "thread-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid checkpoint")
}

func TestCheckpoint_LargeState(t *testing.T) {
	state := make(map[string]string)
	for i := 0; i < 1000; i++ {
		state[string(rune('a'+i%26))+string(rune('0'+i%10))] = "value"
	}

	stateBytes, err := json.Marshal(state)
	require.NoError(t, err)

	cp := checkpoint.New("thread-1", "run-1", 1, "respond", stateBytes)
	data, err := cp.Marshal()
	require.NoError(t, err)

	loaded, err := checkpoint.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, string(stateBytes), string(loaded.State))
}
