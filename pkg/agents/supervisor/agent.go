// Package supervisor routes each inbound request to the specialist
// agent best suited to answer it and folds the specialist's reply back
// into one conversation.
//
// The supervisor runs a small decide-then-delegate graph: a routing
// node asks a RouteDecider for a label from a closed set, exactly one
// delegate node runs the chosen specialist synchronously on the same
// thread, and a general node answers directly when no specialist
// fits. Specialist failures surface as delegation faults and are
// handled by the supervisor's own error node, so callers always get
// exactly one reply string.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/threadflow/threadflow/pkg/chat"
	"github.com/threadflow/threadflow/pkg/threadflow"
	"github.com/threadflow/threadflow/pkg/threadflow/checkpoint"
)

// Routing labels the decider may return. Anything else normalizes to
// RouteGeneral.
const (
	RouteTasks   = "tasks"
	RouteSheets  = "sheets"
	RouteGeneral = "general"
)

// Node IDs in the supervisor graph.
const (
	nodeAnalyze   = "analyze_request"
	nodeTaskboard = "delegate_taskboard"
	nodeSheets    = "delegate_sheets"
	nodeGeneral   = "respond_general"
	nodeError     = "handle_error"
)

// KeyRoute records the normalized routing decision in working data.
const KeyRoute = "route"

// ErrorReply is the user-facing text written by the error node.
const ErrorReply = "I apologize, but I encountered an issue processing your request. Please try again later."

// EmptyReply covers runs that complete without writing any output.
const EmptyReply = "I apologize, but I couldn't process your request."

// DefaultHistoryLimit caps the transcript carried between turns.
const DefaultHistoryLimit = 20

// Delegate runs one specialist turn for a thread. The taskboard and
// sheets agents both satisfy it.
type Delegate interface {
	Handle(ctx context.Context, threadID, message string, extra map[string]any) (string, error)
}

// Supervisor is the single inbound entry point for chat traffic.
// Construct with New; Supervisor is safe for concurrent use.
type Supervisor struct {
	decider   chat.RouteDecider
	responder chat.Responder
	taskboard Delegate
	sheets    Delegate

	store        checkpoint.Store
	logger       *slog.Logger
	historyLimit int

	graph *threadflow.CompiledGraph[chat.State]
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithCheckpointStore persists each turn's final state per thread.
// Give the supervisor its own store or namespace; sharing one with a
// delegate would interleave their checkpoint sequences.
func WithCheckpointStore(store checkpoint.Store) Option {
	return func(s *Supervisor) {
		s.store = store
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHistoryLimit caps how many transcript messages survive between
// turns. Zero or negative keeps the default.
func WithHistoryLimit(n int) Option {
	return func(s *Supervisor) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// New builds the supervisor and compiles its graph.
func New(decider chat.RouteDecider, responder chat.Responder, taskboard, sheets Delegate, opts ...Option) (*Supervisor, error) {
	if decider == nil {
		return nil, fmt.Errorf("supervisor: route decider is required")
	}
	if responder == nil {
		return nil, fmt.Errorf("supervisor: responder is required")
	}
	if taskboard == nil {
		return nil, fmt.Errorf("supervisor: taskboard delegate is required")
	}
	if sheets == nil {
		return nil, fmt.Errorf("supervisor: sheets delegate is required")
	}

	sup := &Supervisor{
		decider:      decider,
		responder:    responder,
		taskboard:    taskboard,
		sheets:       sheets,
		logger:       slog.Default(),
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(sup)
	}

	graph, err := threadflow.NewGraph[chat.State]().
		AddNode(nodeAnalyze, sup.analyzeRequest).
		AddNode(nodeTaskboard, sup.delegateTaskboard).
		AddNode(nodeSheets, sup.delegateSheets).
		AddNode(nodeGeneral, sup.respondGeneral).
		AddNode(nodeError, sup.handleError).
		AddConditionalEdge(nodeAnalyze, threadflow.Router[chat.State]{
			Decide: sup.routeAfterAnalysis,
			Labels: []string{RouteTasks, RouteSheets, RouteGeneral},
		}, map[string]string{
			RouteTasks:   nodeTaskboard,
			RouteSheets:  nodeSheets,
			RouteGeneral: nodeGeneral,
		}).
		AddEdge(nodeTaskboard, threadflow.END).
		AddEdge(nodeSheets, threadflow.END).
		AddEdge(nodeGeneral, threadflow.END).
		AddEdge(nodeError, threadflow.END).
		SetEntry(nodeAnalyze).
		SetErrorNode(nodeError).
		Compile()
	if err != nil {
		return nil, fmt.Errorf("compiling supervisor graph: %w", err)
	}
	sup.graph = graph
	return sup, nil
}

// Graph exposes the compiled graph for introspection.
func (sup *Supervisor) Graph() *threadflow.CompiledGraph[chat.State] {
	return sup.graph
}

// Process answers one question on a thread. It returns exactly one
// reply string per call: faults are converted to polite text by the
// graph's error node, and even an unrunnable graph degrades to a
// fallback reply. The error return is reserved for caller
// cancellation.
func (sup *Supervisor) Process(ctx context.Context, threadID, question string) (string, error) {
	state := chat.NewState(question, nil)
	runCtx := threadflow.NewContext(ctx,
		threadflow.WithLogger(sup.logger),
		threadflow.WithThreadID(threadID),
	)
	opts := []threadflow.RunOption{threadflow.WithObservabilityLogger(sup.logger)}

	var final chat.State
	var err error
	if sup.store != nil {
		final, err = sup.graph.RunThread(runCtx, sup.store, threadID, state, chat.SeedHistory(sup.historyLimit), opts...)
	} else {
		final, err = sup.graph.Run(runCtx, state, opts...)
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("supervisor run: %w", err)
		}
		sup.logger.Error("supervisor run failed", "thread_id", threadID, "error", err)
		return EmptyReply, nil
	}
	if final.OutputText == "" {
		sup.logger.Warn("supervisor run produced no output", "thread_id", threadID)
		return EmptyReply, nil
	}
	return final.OutputText, nil
}
