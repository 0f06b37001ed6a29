package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NopMeter returns a Metrics that drops every measurement.
func NopMeter() Metrics {
	return nopMeter{}
}

type nopMeter struct{}

func (nopMeter) RunCompleted(context.Context, bool, time.Duration) {}

func (nopMeter) NodeExecuted(context.Context, string, time.Duration, error) {}

func (nopMeter) FaultGated(context.Context, string, string) {}

func (nopMeter) CheckpointSaved(context.Context, string, int64) {}

// NopTracer returns a Tracer whose spans never record.
func NopTracer() Tracer {
	return nopTracer{}
}

type nopTracer struct{}

func (nopTracer) StartRun(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noop.Span{}
}

func (nopTracer) StartNode(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noop.Span{}
}

func (nopTracer) End(trace.Span, error) {}
