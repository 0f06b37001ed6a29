package threadflow

import "fmt"

// State is the constraint every graph state type must satisfy.
// The executor uses it to read and record faults without knowing
// anything else about the state shape.
//
// WithFault must return a copy of the state with the fault set;
// Fault must return nil when the state carries no fault. States are
// passed by value through nodes and must be JSON-serializable when
// checkpointing is enabled.
//
// Example:
//
//	type Order struct {
//	    ID      string            `json:"id"`
//	    Failure *threadflow.Fault `json:"error,omitempty"`
//	}
//
//	func (o Order) Fault() *threadflow.Fault          { return o.Failure }
//	func (o Order) WithFault(f *threadflow.Fault) Order { o.Failure = f; return o }
type State[S any] interface {
	Fault() *Fault
	WithFault(*Fault) S
}

// FaultKind classifies what part of a run failed.
type FaultKind string

// Fault kinds, ordered roughly by where they occur in a run.
const (
	// FaultClassification indicates input analysis failed.
	FaultClassification FaultKind = "classification"

	// FaultFetch indicates an upstream data fetch failed.
	FaultFetch FaultKind = "fetch"

	// FaultGeneration indicates response generation failed.
	FaultGeneration FaultKind = "generation"

	// FaultRouting indicates a router produced a label with no
	// routing table entry.
	FaultRouting FaultKind = "routing"

	// FaultDelegation indicates a nested agent run failed.
	FaultDelegation FaultKind = "delegation"

	// FaultTimeout indicates the run was cancelled or timed out.
	FaultTimeout FaultKind = "timeout"

	// FaultInternal indicates an unexpected failure (panics and
	// uncategorized node errors).
	FaultInternal FaultKind = "internal"
)

// Fault describes a failure recorded in state rather than returned
// as a bare error. Once a node leaves a fault in state, the executor
// routes to the graph's error node instead of the normal successor.
//
// Fault implements error so node functions can return one directly;
// the executor recognizes it and preserves the kind. Any other error
// returned by a node is recorded as FaultInternal.
type Fault struct {
	Kind    FaultKind `json:"kind"`
	Node    string    `json:"node,omitempty"`
	Message string    `json:"message"`
}

// Faultf creates a fault with a formatted message.
// The node is filled in by the executor when left empty.
func Faultf(kind FaultKind, format string, args ...any) *Fault {
	return &Fault{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.Node == "" {
		return fmt.Sprintf("%s fault: %s", f.Kind, f.Message)
	}
	return fmt.Sprintf("%s fault at node %s: %s", f.Kind, f.Node, f.Message)
}
