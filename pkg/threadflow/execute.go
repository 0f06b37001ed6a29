package threadflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/threadflow/threadflow/pkg/threadflow/checkpoint"
	"github.com/threadflow/threadflow/pkg/threadflow/observability"
)

// Run executes the graph with the given initial state.
// Returns the final state and any error encountered.
//
// Execution flow:
//  1. Start at the entry point node (always, regardless of state contents)
//  2. Check for cancellation
//  3. Execute the current node
//  4. If the state now carries a fault, route to the error node
//  5. Otherwise determine the next node (unconditional or conditional edge)
//  6. Repeat until END is reached
//  7. Persist the final state when checkpointing is configured
//
// With an error node configured, node failures do not abort the run:
// the fault is recorded in state, the error node runs, and Run returns
// the handled state with a nil error. Without one, failures surface as
// typed errors (NodeError, RouterError, ...) alongside the state at the
// point of failure.
//
// Runs carrying the same thread ID (from the context or
// WithCheckpointThreadID) are serialized against each other.
//
// Example:
//
//	ctx := threadflow.NewContext(context.Background(),
//	    threadflow.WithThreadID("channel-42"))
//	result, err := compiled.Run(ctx, initialState,
//	    threadflow.WithCheckpointStore(store))
func (cg *CompiledGraph[S]) Run(ctx Context, state S, opts ...RunOption) (result S, runErr error) {
	if ctx == nil {
		return state, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.log = observability.NewLog(cfg.logger)

	if cfg.threadID == "" {
		cfg.threadID = ctx.ThreadID()
	}
	if cfg.checkpointStore != nil && cfg.threadID == "" {
		return state, ErrThreadIDRequired
	}

	// One active run per thread. Unthreaded runs are not serialized.
	if cfg.threadID != "" {
		lock := cg.threadLock(cfg.threadID)
		lock.Lock()
		defer lock.Unlock()
	}

	runID := ctx.RunID()
	startTime := time.Now()

	cfg.log.RunStart(runID, cfg.threadID)

	var execCtx context.Context = ctx
	var runSpan trace.Span
	if cfg.tracingEnabled {
		execCtx, runSpan = cfg.tracer.StartRun(ctx, "threadflow", runID)
		defer func() {
			cfg.tracer.End(runSpan, runErr)
		}()
	}

	var lastNode string
	var nodeCount int
	result, lastNode, nodeCount, runErr = cg.runLoop(execCtx, ctx, state, &cfg)

	duration := time.Since(startTime)

	cfg.metrics.RunCompleted(ctx, runErr == nil, duration)
	cfg.hooks.runEnd(lastNode, duration, runErr)

	if runErr != nil {
		cfg.log.RunFailed(runID, lastNode, duration, runErr)
		return result, runErr
	}

	// The run completed (faulted runs included, via the error node).
	if cfg.checkpointStore != nil {
		if err := cg.saveCheckpoint(ctx, &cfg, runID, lastNode, result); err != nil {
			return result, err
		}
	}

	cfg.log.RunDone(runID, duration, nodeCount)
	return result, nil
}

// runLoop walks the graph until END.
// tracingCtx carries span context; tfCtx is the threadflow Context.
// Returns the final state, the last executed node, the node count, and
// any error.
func (cg *CompiledGraph[S]) runLoop(tracingCtx context.Context, tfCtx Context, state S, cfg *runConfig) (S, string, int, error) {
	current := cg.entryPoint
	lastNode := ""
	iterations := 0
	nodeCount := 0
	timeoutGated := false

	for current != END {
		iterations++
		if iterations > cfg.maxIterations {
			// The cap guards against runaway cycles; routing the
			// overrun through more node executions would defeat it.
			return state, lastNode, nodeCount, &MaxIterationsError{
				Max:        cfg.maxIterations,
				LastNodeID: current,
				State:      state,
			}
		}

		// Check for cancellation before executing the node.
		if cause := tfCtx.Err(); cause != nil {
			if !timeoutGated && cg.errorNode != "" && current != cg.errorNode {
				timeoutGated = true
				fault := &Fault{Kind: FaultTimeout, Node: current, Message: cause.Error()}
				state = state.WithFault(fault)
				cg.reportFault(tfCtx, cfg, fault)
				current = cg.errorNode
				continue
			}
			if !timeoutGated || current != cg.errorNode {
				return state, lastNode, nodeCount, &CancellationError{
					NodeID: current,
					State:  state,
					Cause:  cause,
				}
			}
			// timeoutGated and at the error node: let the handler run.
		}

		cfg.log.NodeStart(current)
		cfg.hooks.nodeStart(current)

		nodeTracingCtx := tracingCtx
		var nodeSpan trace.Span
		if cfg.tracingEnabled {
			nodeTracingCtx, nodeSpan = cfg.tracer.StartNode(tracingCtx, current)
		}

		nodeStart := time.Now()

		var nodeErr error
		state, nodeErr = cg.executeNode(tfCtx, current, state)

		nodeDuration := time.Since(nodeStart)

		cfg.metrics.NodeExecuted(nodeTracingCtx, current, nodeDuration, nodeErr)
		if cfg.tracingEnabled {
			cfg.tracer.End(nodeSpan, nodeErr)
		}
		cfg.hooks.nodeEnd(current, nodeDuration, nodeErr)

		if nodeErr != nil {
			cfg.log.NodeFailed(current, nodeErr)
			state = state.WithFault(faultFromError(current, nodeErr))
		} else {
			cfg.log.NodeDone(current, nodeDuration)
		}
		nodeCount++
		lastNode = current

		// Fault gate: a faulted state is handed to the error node
		// before any edge resolution, whatever the edge kind.
		if fault := state.Fault(); fault != nil && current != cg.errorNode {
			if fault.Node == "" {
				fault.Node = current
			}
			if cg.errorNode == "" {
				err := nodeErr
				if err == nil {
					err = fault
				}
				return state, lastNode, nodeCount, &NodeError{NodeID: current, Op: "execute", Err: err}
			}
			cg.reportFault(tfCtx, cfg, fault)
			current = cg.errorNode
			continue
		}

		// The error node has nothing left to handle its own failure.
		if nodeErr != nil && current == cg.errorNode {
			return state, lastNode, nodeCount, &NodeError{NodeID: current, Op: "execute", Err: nodeErr}
		}

		// Determine next node
		next, err := cg.nextNode(tfCtx, state, current)
		if err != nil {
			if cg.errorNode != "" && current != cg.errorNode {
				fault := &Fault{Kind: FaultRouting, Node: current, Message: err.Error()}
				state = state.WithFault(fault)
				cg.reportFault(tfCtx, cfg, fault)
				current = cg.errorNode
				continue
			}
			return state, lastNode, nodeCount, err
		}

		current = next
	}

	return state, lastNode, nodeCount, nil
}

// reportFault emits the log line, metric, and hook for a gated fault.
func (cg *CompiledGraph[S]) reportFault(ctx Context, cfg *runConfig, fault *Fault) {
	cfg.log.FaultGated(fault.Node, string(fault.Kind), cg.errorNode)
	cfg.metrics.FaultGated(ctx, string(fault.Kind), fault.Node)
	cfg.hooks.fault(fault.Node, fault)
}

// faultFromError converts a node error into the fault recorded in state.
// A returned *Fault keeps its kind; anything else becomes FaultInternal.
func faultFromError(nodeID string, err error) *Fault {
	var fault *Fault
	if errors.As(err, &fault) {
		if fault.Node == "" {
			fault.Node = nodeID
		}
		return fault
	}

	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return &Fault{Kind: FaultInternal, Node: nodeID, Message: fmt.Sprintf("panic: %v", panicErr.Value)}
	}

	return &Fault{Kind: FaultInternal, Node: nodeID, Message: err.Error()}
}

// saveCheckpoint persists the final state under the run's thread ID.
// The sequence number continues from the thread's previous checkpoint.
func (cg *CompiledGraph[S]) saveCheckpoint(ctx Context, cfg *runConfig, runID, finalNode string, state S) error {
	stateBytes, err := json.Marshal(state)
	if err != nil {
		return cg.checkpointFailed(cfg, "serialize", err)
	}

	sequence := 1
	if prev, err := checkpoint.Latest(ctx, cfg.checkpointStore, cfg.threadID); err == nil {
		sequence = prev.Sequence + 1
	}

	cp := checkpoint.New(cfg.threadID, runID, sequence, finalNode, stateBytes)
	data, err := cp.Marshal()
	if err != nil {
		return cg.checkpointFailed(cfg, "marshal", err)
	}

	if err := cfg.checkpointStore.Save(ctx, cfg.threadID, data); err != nil {
		return cg.checkpointFailed(cfg, "save", err)
	}

	cfg.log.CheckpointSaved(cfg.threadID, len(data))
	cfg.metrics.CheckpointSaved(ctx, finalNode, int64(len(data)))
	return nil
}

// checkpointFailed applies the configured failure policy.
func (cg *CompiledGraph[S]) checkpointFailed(cfg *runConfig, op string, err error) error {
	if cfg.checkpointFailureFatal {
		return &CheckpointError{ThreadID: cfg.threadID, Op: op, Err: err}
	}
	cfg.log.CheckpointFailed(cfg.threadID, op, err)
	return nil
}

// executeNode executes a single node with panic recovery.
// Returns the new state and any error (including wrapped panics).
func (cg *CompiledGraph[S]) executeNode(ctx Context, nodeID string, state S) (result S, err error) {
	fn, exists := cg.getNode(nodeID)
	if !exists {
		// This shouldn't happen if compilation was successful
		return state, &NodeError{
			NodeID: nodeID,
			Op:     "lookup",
			Err:    fmt.Errorf("node not found: %s", nodeID),
		}
	}

	// Create node-specific context with enriched logger
	nodeCtx := ctx
	if ec, ok := ctx.(*executionContext); ok {
		nodeCtx = ec.withNodeID(nodeID)
	}

	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			result = state
			err = &PanicError{
				NodeID: nodeID,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()

	return fn(nodeCtx, state)
}

// nextNode determines the next node to execute.
// Checks conditional edges first, then the unconditional edge.
func (cg *CompiledGraph[S]) nextNode(ctx Context, state S, current string) (string, error) {
	if router, routes, exists := cg.getRouter(current); exists {
		// Create node-specific context for the router
		routerCtx := ctx
		if ec, ok := ctx.(*executionContext); ok {
			routerCtx = ec.withNodeID(current)
		}

		label := router.Decide(routerCtx, state)
		if label == "" {
			return "", &RouterError{
				FromNode: current,
				Returned: label,
				Err:      ErrInvalidRouterResult,
			}
		}

		next, ok := routes[label]
		if !ok {
			return "", &RouterError{
				FromNode: current,
				Returned: label,
				Err:      ErrLabelNotRouted,
			}
		}

		return next, nil
	}

	next, ok := cg.successors[current]
	if !ok {
		// No outgoing edge - this shouldn't happen if compilation was successful
		return "", &NodeError{
			NodeID: current,
			Op:     "routing",
			Err:    fmt.Errorf("no outgoing edge from node %s", current),
		}
	}

	return next, nil
}
