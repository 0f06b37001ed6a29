package observability

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "threadflow"

// Metrics records executor measurements. NewMeter returns the
// OpenTelemetry implementation, NopMeter one that drops everything.
type Metrics interface {
	// RunCompleted records one finished run, successful or not.
	RunCompleted(ctx context.Context, ok bool, elapsed time.Duration)

	// NodeExecuted records one node execution; err non-nil counts a failure.
	NodeExecuted(ctx context.Context, nodeID string, elapsed time.Duration, err error)

	// FaultGated records a fault handed to the error node.
	FaultGated(ctx context.Context, kind, nodeID string)

	// CheckpointSaved records a checkpoint write and its payload size.
	CheckpointSaved(ctx context.Context, finalNode string, size int64)
}

// meter implements Metrics on the global OTel meter provider.
type meter struct {
	runs            metric.Int64Counter
	runSeconds      metric.Float64Histogram
	nodeSeconds     metric.Float64Histogram
	nodeFailures    metric.Int64Counter
	faults          metric.Int64Counter
	checkpointBytes metric.Int64Histogram
}

func newMeter() (*meter, error) {
	var (
		m    meter
		errs []error
	)
	mp := otel.Meter(scopeName)

	counter := func(name, desc string) metric.Int64Counter {
		c, err := mp.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}
	seconds := func(name, desc string) metric.Float64Histogram {
		h, err := mp.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		errs = append(errs, err)
		return h
	}

	m.runs = counter("threadflow.runs", "Completed runs")
	m.runSeconds = seconds("threadflow.run.duration", "Run duration")
	m.nodeSeconds = seconds("threadflow.node.duration", "Node execution duration")
	m.nodeFailures = counter("threadflow.node.failures", "Node executions that returned an error")
	m.faults = counter("threadflow.faults", "Faults routed to the error node")

	var err error
	m.checkpointBytes, err = mp.Int64Histogram("threadflow.checkpoint.bytes",
		metric.WithDescription("Checkpoint payload size"),
		metric.WithUnit("By"),
	)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
}

// The global meter provider is process-wide, so instruments are built once
// and shared by every recorder.
var sharedMeter = sync.OnceValues(newMeter)

// NewMeter returns a Metrics backed by the global OTel meter provider.
// Set the provider first (otel.SetMeterProvider) or measurements go to
// the OTel default. Instrument creation failure degrades to NopMeter.
func NewMeter() Metrics {
	m, err := sharedMeter()
	if err != nil {
		slog.Warn("metric instruments unavailable, measurements disabled",
			slog.String("error", err.Error()))
		return NopMeter()
	}
	return m
}

func (m *meter) RunCompleted(ctx context.Context, ok bool, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("ok", ok))
	m.runs.Add(ctx, 1, attrs)
	m.runSeconds.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *meter) NodeExecuted(ctx context.Context, nodeID string, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("node", nodeID))
	m.nodeSeconds.Record(ctx, elapsed.Seconds(), attrs)
	if err != nil {
		m.nodeFailures.Add(ctx, 1, attrs)
	}
}

func (m *meter) FaultGated(ctx context.Context, kind, nodeID string) {
	m.faults.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("node", nodeID),
	))
}

func (m *meter) CheckpointSaved(ctx context.Context, finalNode string, size int64) {
	m.checkpointBytes.Record(ctx, size, metric.WithAttributes(
		attribute.String("node", finalNode),
	))
}
