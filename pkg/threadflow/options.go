package threadflow

import (
	"log/slog"

	"github.com/threadflow/threadflow/pkg/threadflow/checkpoint"
	"github.com/threadflow/threadflow/pkg/threadflow/observability"
)

// runConfig holds configuration for graph execution.
type runConfig struct {
	maxIterations int

	logger         *slog.Logger
	log            observability.Log
	metrics        observability.Metrics
	tracer         observability.Tracer
	tracingEnabled bool

	checkpointStore        checkpoint.Store
	threadID               string
	checkpointFailureFatal bool

	hooks RunHooks
}

// defaultRunConfig returns the default execution configuration.
// Logging is off until a logger is provided; metrics and tracing are no-ops.
func defaultRunConfig() runConfig {
	return runConfig{
		maxIterations: 100,
		metrics:       observability.NopMeter(),
		tracer:        observability.NopTracer(),
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithMaxIterations sets the maximum number of node executions.
// Default: 100
//
// This prevents infinite loops from hanging forever. A run that
// exceeds the limit stops with a MaxIterationsError; the overrun is
// never routed to the error node, since that would execute more nodes.
//
// Example:
//
//	result, err := compiled.Run(ctx, state, threadflow.WithMaxIterations(20))
func WithMaxIterations(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithObservabilityLogger sets the logger used for run and node
// lifecycle logging. Without it, lifecycle logging is disabled
// (node functions still receive ctx.Logger()).
func WithObservabilityLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics for this run.
// Uses the global meter provider; configure it before running.
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		if enabled {
			c.metrics = observability.NewMeter()
		} else {
			c.metrics = observability.NopMeter()
		}
	}
}

// WithTracing enables OpenTelemetry tracing for this run.
// Uses the global tracer provider; configure it before running.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.tracer = observability.NewTracer()
		} else {
			c.tracer = observability.NopTracer()
		}
	}
}

// WithCheckpointStore enables checkpointing to the given store.
// The final state of every completed run is saved under the run's
// thread ID. Requires a thread ID from the context or
// WithCheckpointThreadID.
func WithCheckpointStore(store checkpoint.Store) RunOption {
	return func(c *runConfig) {
		c.checkpointStore = store
	}
}

// WithCheckpointThreadID overrides the thread ID used for
// checkpointing and per-thread serialization. Defaults to the
// context's ThreadID().
func WithCheckpointThreadID(id string) RunOption {
	return func(c *runConfig) {
		c.threadID = id
	}
}

// WithCheckpointFailureFatal makes checkpoint save failures abort the
// run with a CheckpointError. By default save failures are logged and
// the run result is returned normally.
func WithCheckpointFailureFatal(fatal bool) RunOption {
	return func(c *runConfig) {
		c.checkpointFailureFatal = fatal
	}
}

// WithHooks registers lifecycle callbacks for this run.
func WithHooks(hooks RunHooks) RunOption {
	return func(c *runConfig) {
		c.hooks = hooks
	}
}
