package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture returns a Log whose records land in the returned buffer as
// JSON lines.
func capture() (Log, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewLog(logger), &buf
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &m))
	return m
}

func TestLog_RunStart(t *testing.T) {
	t.Run("threaded run", func(t *testing.T) {
		log, buf := capture()
		log.RunStart("run-456", "channel-9")

		rec := lastRecord(t, buf)
		assert.Equal(t, "INFO", rec["level"])
		assert.Equal(t, "run started", rec["msg"])
		assert.Equal(t, "run-456", rec["run_id"])
		assert.Equal(t, "channel-9", rec["thread_id"])
	})

	t.Run("unthreaded run omits thread_id", func(t *testing.T) {
		log, buf := capture()
		log.RunStart("run-456", "")

		rec := lastRecord(t, buf)
		_, ok := rec["thread_id"]
		assert.False(t, ok)
	})
}

func TestLog_RunDone(t *testing.T) {
	log, buf := capture()
	log.RunDone("run-789", 1500*time.Microsecond, 5)

	rec := lastRecord(t, buf)
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "run completed", rec["msg"])
	assert.Equal(t, "run-789", rec["run_id"])
	assert.Equal(t, 1.5, rec["duration_ms"])
	assert.Equal(t, float64(5), rec["nodes_executed"])
}

func TestLog_RunFailed(t *testing.T) {
	log, buf := capture()
	log.RunFailed("run-err", "fetch_data", 50*time.Millisecond, errors.New("connection refused"))

	rec := lastRecord(t, buf)
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "run failed", rec["msg"])
	assert.Equal(t, "run-err", rec["run_id"])
	assert.Equal(t, "fetch_data", rec["last_node"])
	assert.Equal(t, 50.0, rec["duration_ms"])
	assert.Equal(t, "connection refused", rec["error"])
}

func TestLog_NodeEvents(t *testing.T) {
	t.Run("start", func(t *testing.T) {
		log, buf := capture()
		log.NodeStart("fetch")

		rec := lastRecord(t, buf)
		assert.Equal(t, "DEBUG", rec["level"])
		assert.Equal(t, "node started", rec["msg"])
		assert.Equal(t, "fetch", rec["node_id"])
	})

	t.Run("done", func(t *testing.T) {
		log, buf := capture()
		log.NodeDone("transform", 45*time.Millisecond)

		rec := lastRecord(t, buf)
		assert.Equal(t, "DEBUG", rec["level"])
		assert.Equal(t, "node completed", rec["msg"])
		assert.Equal(t, "transform", rec["node_id"])
		assert.Equal(t, 45.0, rec["duration_ms"])
	})

	t.Run("failed", func(t *testing.T) {
		log, buf := capture()
		log.NodeFailed("validate", errors.New("bad input"))

		rec := lastRecord(t, buf)
		assert.Equal(t, "ERROR", rec["level"])
		assert.Equal(t, "node failed", rec["msg"])
		assert.Equal(t, "validate", rec["node_id"])
		assert.Equal(t, "bad input", rec["error"])
	})
}

func TestLog_FaultGated(t *testing.T) {
	log, buf := capture()
	log.FaultGated("generate_response", "generation", "handle_error")

	rec := lastRecord(t, buf)
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "fault routed to error node", rec["msg"])
	assert.Equal(t, "generate_response", rec["node_id"])
	assert.Equal(t, "generation", rec["fault_kind"])
	assert.Equal(t, "handle_error", rec["error_node"])
}

func TestLog_Checkpoint(t *testing.T) {
	t.Run("saved", func(t *testing.T) {
		log, buf := capture()
		log.CheckpointSaved("channel-7", 1024)

		rec := lastRecord(t, buf)
		assert.Equal(t, "DEBUG", rec["level"])
		assert.Equal(t, "checkpoint saved", rec["msg"])
		assert.Equal(t, "channel-7", rec["thread_id"])
		assert.Equal(t, float64(1024), rec["size_bytes"])
	})

	t.Run("failed", func(t *testing.T) {
		log, buf := capture()
		log.CheckpointFailed("channel-7", "save", errors.New("disk full"))

		rec := lastRecord(t, buf)
		assert.Equal(t, "WARN", rec["level"])
		assert.Equal(t, "checkpoint failed", rec["msg"])
		assert.Equal(t, "channel-7", rec["thread_id"])
		assert.Equal(t, "save", rec["operation"])
		assert.Equal(t, "disk full", rec["error"])
	})
}

func TestLog_NilLoggerDropsEverything(t *testing.T) {
	for name, log := range map[string]Log{
		"zero value":  {},
		"NewLog(nil)": NewLog(nil),
	} {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				log.RunStart("r", "t")
				log.RunDone("r", time.Second, 1)
				log.RunFailed("r", "n", time.Second, errors.New("x"))
				log.NodeStart("n")
				log.NodeDone("n", time.Second)
				log.NodeFailed("n", errors.New("x"))
				log.FaultGated("n", "internal", "handle_error")
				log.CheckpointSaved("t", 1)
				log.CheckpointFailed("t", "save", errors.New("x"))
			})
		})
	}
}
