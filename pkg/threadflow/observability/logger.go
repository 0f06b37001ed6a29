// Package observability carries the executor's logging, metrics, and
// tracing. Logging goes through slog; metrics and spans go through
// OpenTelemetry and are off unless the run opts into them, with nop
// implementations standing in when disabled.
package observability

import (
	"log/slog"
	"time"
)

// Log emits the executor's lifecycle events through a slog.Logger.
// The zero value and a Log built from a nil logger drop everything.
type Log struct {
	logger *slog.Logger
}

// NewLog wraps logger for lifecycle logging. A nil logger is fine.
func NewLog(logger *slog.Logger) Log {
	return Log{logger: logger}
}

// RunStart logs the start of a run. threadID may be empty.
func (l Log) RunStart(runID, threadID string) {
	if l.logger == nil {
		return
	}
	attrs := []any{slog.String("run_id", runID)}
	if threadID != "" {
		attrs = append(attrs, slog.String("thread_id", threadID))
	}
	l.logger.Info("run started", attrs...)
}

// RunDone logs a run that reached END.
func (l Log) RunDone(runID string, elapsed time.Duration, nodes int) {
	if l.logger == nil {
		return
	}
	l.logger.Info("run completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs(elapsed)),
		slog.Int("nodes_executed", nodes),
	)
}

// RunFailed logs a run that returned an error.
func (l Log) RunFailed(runID, lastNode string, elapsed time.Duration, err error) {
	if l.logger == nil {
		return
	}
	l.logger.Error("run failed",
		slog.String("run_id", runID),
		slog.String("last_node", lastNode),
		slog.Float64("duration_ms", durationMs(elapsed)),
		slog.String("error", err.Error()),
	)
}

// NodeStart logs entry into a node.
func (l Log) NodeStart(nodeID string) {
	if l.logger == nil {
		return
	}
	l.logger.Debug("node started", slog.String("node_id", nodeID))
}

// NodeDone logs a node that returned without error.
func (l Log) NodeDone(nodeID string, elapsed time.Duration) {
	if l.logger == nil {
		return
	}
	l.logger.Debug("node completed",
		slog.String("node_id", nodeID),
		slog.Float64("duration_ms", durationMs(elapsed)),
	)
}

// NodeFailed logs a node that returned an error or panicked.
func (l Log) NodeFailed(nodeID string, err error) {
	if l.logger == nil {
		return
	}
	l.logger.Error("node failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
}

// FaultGated logs a faulted state being handed to the error node.
func (l Log) FaultGated(fromNode, kind, errorNode string) {
	if l.logger == nil {
		return
	}
	l.logger.Warn("fault routed to error node",
		slog.String("node_id", fromNode),
		slog.String("fault_kind", kind),
		slog.String("error_node", errorNode),
	)
}

// CheckpointSaved logs a checkpoint write.
func (l Log) CheckpointSaved(threadID string, size int) {
	if l.logger == nil {
		return
	}
	l.logger.Debug("checkpoint saved",
		slog.String("thread_id", threadID),
		slog.Int("size_bytes", size),
	)
}

// CheckpointFailed logs a checkpoint operation failure.
func (l Log) CheckpointFailed(threadID, op string, err error) {
	if l.logger == nil {
		return
	}
	l.logger.Warn("checkpoint failed",
		slog.String("thread_id", threadID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
