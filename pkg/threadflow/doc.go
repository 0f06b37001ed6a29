/*
Package threadflow provides graph-based orchestration for conversational
agents.

# Overview

threadflow is a Go library for building and executing directed graphs
where nodes transform a conversation state and edges define flow. It is
designed for agent pipelines that talk to language models and other
flaky collaborators, so failure handling is built into the executor:
nodes report faults, and the executor reroutes faulted runs to a
designated error node instead of unwinding the graph.

The library provides:
  - Type-safe generics for state management
  - Compile-time validation of graph structure and routing labels
  - Fault classification and centralized error routing
  - Thread-keyed checkpointing for multi-turn conversations
  - OpenTelemetry integration for observability

# Basic Usage

State types carry a fault slot so the executor can see failures:

	type State struct {
	    Input  string
	    Output string
	    Failure *threadflow.Fault `json:"error,omitempty"`
	}

	func (s State) Fault() *threadflow.Fault           { return s.Failure }
	func (s State) WithFault(f *threadflow.Fault) State { s.Failure = f; return s }

Create a graph with nodes and edges, then compile and run:

	func process(ctx threadflow.Context, s State) (State, error) {
	    s.Output = "Processed: " + s.Input
	    return s, nil
	}

	func main() {
	    graph := threadflow.NewGraph[State]().
	        AddNode("process", process).
	        AddEdge("process", threadflow.END).
	        SetEntry("process")

	    compiled, err := graph.Compile()
	    if err != nil {
	        log.Fatal(err)
	    }

	    ctx := threadflow.NewContext(context.Background())
	    result, err := compiled.Run(ctx, State{Input: "hello"})
	    if err != nil {
	        log.Fatal(err)
	    }
	    fmt.Println(result.Output) // "Processed: hello"
	}

# Conditional Routing

Decision points return labels, not node IDs. Each label is declared up
front and bound to a target node in a routes table, so Compile can prove
every label the router may return has somewhere to go:

	graph.AddConditionalEdge("review", threadflow.Router[State]{
	    Decide: func(ctx threadflow.Context, s State) string {
	        if s.Approved {
	            return "publish"
	        }
	        return "revise"
	    },
	    Labels: []string{"publish", "revise"},
	}, map[string]string{
	    "publish": "publish_post",
	    "revise":  "editor_pass",
	})

A router that returns a label missing from the routes table raises a
routing fault at runtime, which follows the normal fault path below.

# Fault Handling

Nodes signal recoverable failures as faults. Return a *Fault (it
implements error) to classify the failure, or return a plain error to
have it recorded as FaultInternal:

	func fetchBoard(ctx threadflow.Context, s State) (State, error) {
	    data, err := client.Fetch(ctx)
	    if err != nil {
	        return s, threadflow.Faultf(threadflow.FaultFetch, "board fetch: %v", err)
	    }
	    s.Data = data
	    return s, nil
	}

When a node leaves a fault on the state (or returns one), the executor
routes directly to the error node registered with SetErrorNode, skipping
the remaining business nodes. The error node sees the fault via
s.Fault() and can produce a user-facing reply. Without an error node the
run fails with a NodeError. Panics are recovered, recorded as
FaultInternal, and follow the same path.

# Threads and Checkpointing

Conversations are keyed by thread. Each thread stores only its latest
checkpoint, written when a run reaches END (including runs that ended in
the error node):

	store, err := checkpoint.NewSQLiteStore("./threads.db")
	defer store.Close()

	result, err := compiled.Run(ctx, state,
	    threadflow.WithCheckpointStore(store),
	    threadflow.WithCheckpointThreadID("slack-C123-T456"))

RunThread seeds a new turn from the previous checkpoint, so callers get
multi-turn continuity in one call:

	result, err := compiled.RunThread(ctx, store, "slack-C123-T456", incoming,
	    func(prev, in State) State {
	        in.Messages = append(prev.Messages, in.Messages...)
	        return in
	    })

Runs on the same thread are serialized; concurrent Run calls with
different thread IDs proceed in parallel.

# Observability

Enable logging, metrics, and tracing per run:

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	result, err := compiled.Run(ctx, state,
	    threadflow.WithObservabilityLogger(logger),
	    threadflow.WithMetrics(true),
	    threadflow.WithTracing(true))

Logs include structured fields: run_id, thread_id, node_id, duration_ms.
OpenTelemetry metrics: threadflow.node.executions, threadflow.run.faults,
threadflow.graph.runs, etc. Tracing emits threadflow.run spans with
nested threadflow.node.{id} spans.

# Error Handling

Run errors carry the failing node:

	result, err := compiled.Run(ctx, state)
	var nodeErr *threadflow.NodeError
	if errors.As(err, &nodeErr) {
	    log.Printf("node %s failed: %v", nodeErr.NodeID, nodeErr.Err)
	}

	var maxErr *threadflow.MaxIterationsError
	if errors.As(err, &maxErr) {
	    log.Printf("stopped after %d iterations at %s", maxErr.Max, maxErr.LastNodeID)
	}

# Thread Safety

  - Graph[S] is NOT safe for concurrent use during construction
  - CompiledGraph[S] IS safe for concurrent use (immutable)
  - Context IS safe for concurrent use
  - checkpoint.Store implementations are safe for concurrent use

# Subpackages

  - checkpoint: thread-keyed checkpoint storage (memory, SQLite, Redis)
  - errors: collaborator error classification and retry
  - observability: logging, metrics, and tracing helpers
  - registry: generic concurrent registry
  - template: prompt template expansion
*/
package threadflow
