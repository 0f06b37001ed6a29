package threadflow

// END is the terminal node identifier.
// Use this as an edge target to indicate the graph should terminate.
const END = "__end__"

// NodeFunc is the signature for all node functions.
// Nodes receive the execution context and current state,
// and return the updated state (or the same state) and any error.
//
// The state parameter is passed by value. Nodes should modify and return
// a new state value, not rely on pointer mutation.
//
// A returned error does not abort the run when the graph has an error
// node: the executor records it as a Fault on the state and routes to
// the error node. Return a *Fault to control the recorded kind.
//
// Example:
//
//	func increment(ctx threadflow.Context, s Counter) (Counter, error) {
//	    s.Value++
//	    return s, nil
//	}
type NodeFunc[S State[S]] func(ctx Context, state S) (S, error)

// Router decides the next node after a conditional edge.
//
// Decide returns a label, not a node ID; the routing table passed to
// AddConditionalEdge maps labels to targets. Labels declares every
// label Decide can return, which lets Compile verify the routing table
// covers them all. A label returned at runtime that is missing from
// the table becomes a FaultRouting, not a panic.
//
// Example:
//
//	router := threadflow.Router[State]{
//	    Labels: []string{"fetch", "respond"},
//	    Decide: func(ctx threadflow.Context, s State) string {
//	        if s.NeedsData {
//	            return "fetch"
//	        }
//	        return "respond"
//	    },
//	}
type Router[S State[S]] struct {
	// Decide picks a label based on runtime state.
	Decide func(ctx Context, state S) string

	// Labels is the closed set of labels Decide may return.
	Labels []string
}
