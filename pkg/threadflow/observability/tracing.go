package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer opens spans around runs and node executions. NewTracer returns
// the OpenTelemetry implementation, NopTracer one whose spans never
// record.
type Tracer interface {
	// StartRun opens the span covering a whole run. Node spans become
	// its children through the returned context.
	StartRun(ctx context.Context, graph, runID string) (context.Context, trace.Span)

	// StartNode opens a span for one node execution.
	StartNode(ctx context.Context, nodeID string) (context.Context, trace.Span)

	// End closes span, recording err when non-nil.
	End(span trace.Span, err error)
}

type otelTracer struct {
	t trace.Tracer
}

// NewTracer returns a Tracer backed by the global OTel tracer provider.
// Set the provider first (otel.SetTracerProvider) or spans go to the
// OTel default.
func NewTracer() Tracer {
	return otelTracer{t: otel.Tracer(scopeName)}
}

func (o otelTracer) StartRun(ctx context.Context, graph, runID string) (context.Context, trace.Span) {
	return o.t.Start(ctx, "threadflow.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("graph", graph),
			attribute.String("run_id", runID),
		),
	)
}

func (o otelTracer) StartNode(ctx context.Context, nodeID string) (context.Context, trace.Span) {
	return o.t.Start(ctx, "threadflow.node."+nodeID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("node", nodeID)),
	)
}

func (o otelTracer) End(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
