// Package taskboard implements the board assistant agent: a graph
// that classifies an incoming message, pulls board data through the
// snapshot cache when the question needs it, generates a reply, and
// pushes a notification when the reply calls for action.
package taskboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/threadflow/threadflow/pkg/boardcache"
	"github.com/threadflow/threadflow/pkg/chat"
	"github.com/threadflow/threadflow/pkg/threadflow"
	"github.com/threadflow/threadflow/pkg/threadflow/checkpoint"
)

// Node IDs in the agent graph.
const (
	nodeAnalyze = "analyze_input"
	nodeFetch   = "fetch_board_data"
	nodeRespond = "generate_response"
	nodeNotify  = "send_notification"
	nodeError   = "handle_error"
)

// Labels the routers can produce.
const (
	labelFetch   = "fetch_data"
	labelRespond = "generate_response"
	labelNotify  = "send_notification"
	labelEnd     = "end"
)

// WorkingData keys filled by the fetch node for response generation.
const (
	KeyOverdue  = "overdue_tasks"
	KeyUpcoming = "upcoming_tasks"
	KeySummary  = "summary"
	KeyMatching = "matching_tasks"
	KeyUpdate   = "update_capability"
)

// SideEffect values recorded by the notification node.
const (
	NotificationSent    = "notification_sent"
	NotificationFailed  = "notification_failed"
	NotificationSkipped = "no_notification_needed"
)

// ErrorReply is the user-facing text written by the error node. It
// never leaks what actually failed.
const ErrorReply = "I apologize, but I encountered an issue processing your request. Please try again later or contact an administrator."

// EmptyReply covers runs that complete without writing any output.
const EmptyReply = "I apologize, but I couldn't process your request."

// DefaultHistoryLimit caps the transcript carried between turns.
const DefaultHistoryLimit = 20

// Agent answers board questions over a compiled graph. Construct with
// New; Agent is safe for concurrent use.
type Agent struct {
	cache      *boardcache.Cache
	classifier chat.Classifier
	responder  chat.Responder
	notifier   chat.Notifier
	store      checkpoint.Store
	logger     *slog.Logger

	notifyChannel string
	historyLimit  int

	graph *threadflow.CompiledGraph[chat.State]
}

// Option configures an Agent.
type Option func(*Agent)

// WithNotifier enables outward notifications for actionable replies.
// channel is the delivery target when the caller's extra data does not
// name one.
func WithNotifier(n chat.Notifier, channel string) Option {
	return func(a *Agent) {
		a.notifier = n
		a.notifyChannel = channel
	}
}

// WithCheckpointStore persists each turn's final state per thread,
// which carries conversation history across turns.
func WithCheckpointStore(store checkpoint.Store) Option {
	return func(a *Agent) {
		a.store = store
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithHistoryLimit caps how many transcript messages survive between
// turns. Zero or negative keeps the default.
func WithHistoryLimit(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.historyLimit = n
		}
	}
}

// New builds the agent and compiles its graph.
func New(cache *boardcache.Cache, classifier chat.Classifier, responder chat.Responder, opts ...Option) (*Agent, error) {
	if cache == nil {
		return nil, fmt.Errorf("taskboard: cache is required")
	}
	if classifier == nil {
		return nil, fmt.Errorf("taskboard: classifier is required")
	}
	if responder == nil {
		return nil, fmt.Errorf("taskboard: responder is required")
	}

	a := &Agent{
		cache:        cache,
		classifier:   classifier,
		responder:    responder,
		logger:       slog.Default(),
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(a)
	}

	graph, err := threadflow.NewGraph[chat.State]().
		AddNode(nodeAnalyze, a.analyzeInput).
		AddNode(nodeFetch, a.fetchBoardData).
		AddNode(nodeRespond, a.generateResponse).
		AddNode(nodeNotify, a.sendNotification).
		AddNode(nodeError, a.handleError).
		AddConditionalEdge(nodeAnalyze, threadflow.Router[chat.State]{
			Decide: routeAfterAnalyze,
			Labels: []string{labelFetch, labelRespond},
		}, map[string]string{
			labelFetch:   nodeFetch,
			labelRespond: nodeRespond,
		}).
		AddEdge(nodeFetch, nodeRespond).
		AddConditionalEdge(nodeRespond, threadflow.Router[chat.State]{
			Decide: routeAfterRespond,
			Labels: []string{labelNotify, labelEnd},
		}, map[string]string{
			labelNotify: nodeNotify,
			labelEnd:    threadflow.END,
		}).
		AddEdge(nodeNotify, threadflow.END).
		AddEdge(nodeError, threadflow.END).
		SetEntry(nodeAnalyze).
		SetErrorNode(nodeError).
		Compile()
	if err != nil {
		return nil, fmt.Errorf("compiling taskboard graph: %w", err)
	}
	a.graph = graph
	return a, nil
}

// Graph exposes the compiled graph for introspection.
func (a *Agent) Graph() *threadflow.CompiledGraph[chat.State] {
	return a.graph
}

// Handle processes one user message on a thread and returns the reply.
// With a checkpoint store configured, the thread's transcript is
// restored before the run and the final state saved after it. Faults
// inside the run are handled by the graph's error node and come back
// as a polite reply; the returned error is reserved for runs that
// could not complete at all.
func (a *Agent) Handle(ctx context.Context, threadID, message string, extra map[string]any) (string, error) {
	state := chat.NewState(message, extra)
	runCtx := threadflow.NewContext(ctx,
		threadflow.WithLogger(a.logger),
		threadflow.WithThreadID(threadID),
	)
	opts := []threadflow.RunOption{threadflow.WithObservabilityLogger(a.logger)}

	var final chat.State
	var err error
	if a.store != nil {
		final, err = a.graph.RunThread(runCtx, a.store, threadID, state, chat.SeedHistory(a.historyLimit), opts...)
	} else {
		final, err = a.graph.Run(runCtx, state, opts...)
	}
	if err != nil {
		return "", fmt.Errorf("taskboard run: %w", err)
	}
	if final.OutputText == "" {
		a.logger.Warn("taskboard run produced no output", "thread_id", threadID)
		return EmptyReply, nil
	}
	return final.OutputText, nil
}
