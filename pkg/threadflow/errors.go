package threadflow

import (
	"errors"
	"fmt"
)

// Compile reports structural problems with these sentinels, usually
// wrapped with the offending node or label and joined when a graph has
// several defects at once.
var (
	// ErrNoEntryPoint is returned when SetEntry was never called.
	ErrNoEntryPoint = errors.New("graph has no entry point")

	// ErrEntryNotFound is returned when the declared entry node does not exist.
	ErrEntryNotFound = errors.New("entry node does not exist")

	// ErrNodeNotFound is returned when an edge or route references an
	// unknown node.
	ErrNodeNotFound = errors.New("unknown node")

	// ErrErrorNodeNotFound is returned when SetErrorNode names an unknown node.
	ErrErrorNodeNotFound = errors.New("error node does not exist")

	// ErrDuplicateEdge is returned when a node declares more than one
	// unconditional edge.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrConflictingEdges is returned when a node mixes an unconditional
	// edge with a conditional one.
	ErrConflictingEdges = errors.New("node has both edge kinds")

	// ErrLabelNotRouted is returned when a router declares a label the
	// routing table does not cover. Run also wraps it (inside a
	// RouterError) when a router returns such a label at runtime.
	ErrLabelNotRouted = errors.New("label missing from routing table")

	// ErrNoPathToEnd is returned when no walk from the entry reaches END.
	ErrNoPathToEnd = errors.New("END unreachable from entry")
)

// Run-time sentinels.
var (
	// ErrMaxIterations marks runs aborted by the iteration cap. The
	// returned error is a MaxIterationsError carrying the final state.
	ErrMaxIterations = errors.New("iteration limit exceeded")

	// ErrNilContext is returned by Run when given a nil context.
	ErrNilContext = errors.New("nil context")

	// ErrInvalidRouterResult is returned when a router produces an empty label.
	ErrInvalidRouterResult = errors.New("router returned an empty label")
)

// Thread continuity sentinels.
var (
	// ErrThreadIDRequired is returned when a checkpoint store is
	// configured without a thread ID to key it by.
	ErrThreadIDRequired = errors.New("thread ID required for checkpointing")

	// ErrNoCheckpoint is returned by LoadLatest for a thread that has
	// never completed a run.
	ErrNoCheckpoint = errors.New("no checkpoint found for thread")

	// ErrCheckpointVersionMismatch is returned when a stored checkpoint
	// was written by an incompatible format version.
	ErrCheckpointVersionMismatch = errors.New("incompatible checkpoint version")
)

// CheckpointError reports a failed checkpoint save or load for a thread.
// Run returns it only when WithCheckpointFailureFatal is set; otherwise
// save failures are logged and the run's result stands.
type CheckpointError struct {
	ThreadID string
	Op       string // "serialize", "marshal", "save"
	Err      error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s for thread %s: %v", e.Op, e.ThreadID, e.Err)
}

func (e *CheckpointError) Unwrap() error { return e.Err }

// NodeError attributes a failure to the node it happened in. Run
// returns it when a node fails and no error node can absorb the fault,
// or when the error node itself fails.
type NodeError struct {
	NodeID string
	Op     string // "execute", "lookup", "routing"
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s node %q: %v", e.Op, e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// PanicError records a panic recovered inside a node function, with the
// stack captured at the panic site.
type PanicError struct {
	NodeID string
	Value  any // the value passed to panic
	Stack  string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in node %q: %v", e.NodeID, e.Value)
}

// CancellationError is returned when the run's context is cancelled
// between nodes. State holds the last completed state so callers can
// inspect or persist what the run had accumulated; type-assert it back
// to the graph's state type.
type CancellationError struct {
	// NodeID is the node that was about to execute.
	NodeID string
	State  any
	// Cause is context.Canceled or context.DeadlineExceeded.
	Cause error
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("run cancelled before node %q: %v", e.NodeID, e.Cause)
}

func (e *CancellationError) Unwrap() error { return e.Cause }

// RouterError reports a routing decision that could not be resolved to
// a next node.
type RouterError struct {
	// FromNode is the node whose conditional edge was being resolved.
	FromNode string
	// Returned is the label the router produced.
	Returned string
	Err      error
}

func (e *RouterError) Error() string {
	return fmt.Sprintf("routing after node %q (label %q): %v", e.FromNode, e.Returned, e.Err)
}

func (e *RouterError) Unwrap() error { return e.Err }

// MaxIterationsError is returned when a run exhausts its iteration
// budget. State holds the state at the moment the cap tripped;
// type-assert it back to the graph's state type.
type MaxIterationsError struct {
	Max int
	// LastNodeID is the node that would have executed next.
	LastNodeID string
	State      any
}

func (e *MaxIterationsError) Error() string {
	return fmt.Sprintf("stopped after %d iterations at node %q", e.Max, e.LastNodeID)
}

// Unwrap yields ErrMaxIterations so errors.Is can match without the caller
// needing the concrete type.
func (e *MaxIterationsError) Unwrap() error { return ErrMaxIterations }
