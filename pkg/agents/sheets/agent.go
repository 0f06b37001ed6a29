package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/threadflow/threadflow/pkg/chat"
	"github.com/threadflow/threadflow/pkg/threadflow"
	"github.com/threadflow/threadflow/pkg/threadflow/checkpoint"
)

// Node IDs in the pipeline graph.
const (
	nodeAnalyze  = "analyze_query"
	nodeFetch    = "fetch_file"
	nodePrep     = "preprocess_data"
	nodeStats    = "analyze_data"
	nodeInsights = "build_insights"
	nodeRespond  = "generate_response"
	nodeError    = "handle_error"
)

// WorkingData keys filled along the pipeline.
const (
	KeyFileName   = "file_name"
	KeyTable      = "table"
	KeyTableShape = "table_shape"
	KeyAnalysis   = "analysis"
	KeyInsights   = "insights"
)

// DefaultFile is analyzed when neither the caller nor the query names
// a file.
const DefaultFile = "metadata.csv"

// ErrorReply is the user-facing text written by the error node.
const ErrorReply = "I apologize, but I encountered an issue processing your request. Please try again later or contact an administrator."

// EmptyReply covers runs that complete without writing any output.
const EmptyReply = "I apologize, but I couldn't process your request."

// DefaultHistoryLimit caps the transcript carried between turns.
const DefaultHistoryLimit = 20

// Agent answers questions about tabular data files. Construct with
// New; Agent is safe for concurrent use.
type Agent struct {
	source    FileSource
	responder chat.Responder
	store     checkpoint.Store
	logger    *slog.Logger

	defaultFile  string
	historyLimit int

	graph *threadflow.CompiledGraph[chat.State]
}

// Option configures an Agent.
type Option func(*Agent)

// WithDefaultFile sets the file analyzed when the query names none.
func WithDefaultFile(name string) Option {
	return func(a *Agent) {
		if name != "" {
			a.defaultFile = name
		}
	}
}

// WithCheckpointStore persists each turn's final state per thread.
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

// New builds the agent and compiles its pipeline.
func New(source FileSource, responder chat.Responder, opts ...Option) (*Agent, error) {
	if source == nil {
		return nil, fmt.Errorf("sheets: file source is required")
	}
	if responder == nil {
		return nil, fmt.Errorf("sheets: responder is required")
	}

	a := &Agent{
		source:       source,
		responder:    responder,
		logger:       slog.Default(),
		defaultFile:  DefaultFile,
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(a)
	}

	graph, err := threadflow.NewGraph[chat.State]().
		AddNode(nodeAnalyze, a.analyzeQuery).
		AddNode(nodeFetch, a.fetchFile).
		AddNode(nodePrep, a.preprocessData).
		AddNode(nodeStats, a.analyzeData).
		AddNode(nodeInsights, a.buildInsights).
		AddNode(nodeRespond, a.generateResponse).
		AddNode(nodeError, a.handleError).
		AddEdge(nodeAnalyze, nodeFetch).
		AddEdge(nodeFetch, nodePrep).
		AddEdge(nodePrep, nodeStats).
		AddEdge(nodeStats, nodeInsights).
		AddEdge(nodeInsights, nodeRespond).
		AddEdge(nodeRespond, threadflow.END).
		AddEdge(nodeError, threadflow.END).
		SetEntry(nodeAnalyze).
		SetErrorNode(nodeError).
		Compile()
	if err != nil {
		return nil, fmt.Errorf("compiling sheets graph: %w", err)
	}
	a.graph = graph
	return a, nil
}

// Graph exposes the compiled graph for introspection.
func (a *Agent) Graph() *threadflow.CompiledGraph[chat.State] {
	return a.graph
}

// Handle processes one user question on a thread and returns the
// reply. Faults inside the run are handled by the graph's error node
// and come back as a polite reply; the returned error is reserved for
// runs that could not complete at all.
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
		return "", fmt.Errorf("sheets run: %w", err)
	}
	if final.OutputText == "" {
		a.logger.Warn("sheets run produced no output", "thread_id", threadID)
		return EmptyReply, nil
	}
	return final.OutputText, nil
}
