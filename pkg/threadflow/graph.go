package threadflow

import (
	"fmt"
	"strings"
	"sync"
)

// Graph is a mutable builder for creating execution graphs.
// Use NewGraph to create a new graph, then chain AddNode, AddEdge,
// and SetEntry calls to define the workflow.
//
// Graph is NOT thread-safe during building. Use a single goroutine
// to construct the graph, then call Compile() to create an immutable
// CompiledGraph that can be safely shared.
//
// Example:
//
//	graph := threadflow.NewGraph[Conversation]().
//	    AddNode("classify", classifyNode).
//	    AddNode("respond", respondNode).
//	    AddNode("fail", failNode).
//	    AddEdge("classify", "respond").
//	    AddEdge("respond", threadflow.END).
//	    AddEdge("fail", threadflow.END).
//	    SetEntry("classify").
//	    SetErrorNode("fail")
//
//	compiled, err := graph.Compile()
type Graph[S State[S]] struct {
	mu         sync.RWMutex
	nodes      map[string]NodeFunc[S]
	edges      map[string][]string
	routers    map[string]Router[S]
	routes     map[string]map[string]string
	entryPoint string
	errorNode  string
}

// NewGraph creates a new graph builder for state type S.
// The type parameter S defines the state that flows through the graph.
func NewGraph[S State[S]]() *Graph[S] {
	return &Graph[S]{
		nodes:   make(map[string]NodeFunc[S]),
		edges:   make(map[string][]string),
		routers: make(map[string]Router[S]),
		routes:  make(map[string]map[string]string),
	}
}

// AddNode adds a named node to the graph.
// Returns the graph for method chaining.
//
// Panics if:
//   - id is empty
//   - id is the reserved word "END" or "__end__" (case-insensitive)
//   - id contains whitespace (space, tab, newline)
//   - fn is nil
//   - id already exists in the graph
func (g *Graph[S]) AddNode(id string, fn NodeFunc[S]) *Graph[S] {
	if id == "" {
		panic("threadflow: node ID cannot be empty")
	}

	// Check reserved words (case-insensitive)
	idLower := strings.ToLower(id)
	if idLower == "end" || idLower == "__end__" {
		panic("threadflow: node ID cannot be reserved word 'END'")
	}

	if strings.ContainsAny(id, " \t\n\r") {
		panic("threadflow: node ID cannot contain whitespace")
	}

	if fn == nil {
		panic("threadflow: node function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; exists {
		panic(fmt.Sprintf("threadflow: duplicate node ID: %s", id))
	}

	g.nodes[id] = fn
	return g
}

// AddEdge adds an unconditional edge from one node to another.
// The target can be a node ID or threadflow.END.
// Returns the graph for method chaining.
//
// Edge validation happens at Compile() time, not here.
// This allows edges to be added in any order. A node may have at most
// one unconditional edge; extra edges are rejected at Compile().
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges[from] = append(g.edges[from], to)
	return g
}

// AddConditionalEdge adds a conditional edge where a Router picks a
// label and the routes table maps labels to target nodes (or END).
// Returns the graph for method chaining.
//
// Compile() verifies that every label the router declares has a
// routes entry and that every target exists. At runtime, a label
// outside the table produces a FaultRouting rather than a panic.
//
// A node can have either an unconditional edge or a conditional edge,
// not both; Compile() rejects graphs that declare both.
func (g *Graph[S]) AddConditionalEdge(from string, router Router[S], routes map[string]string) *Graph[S] {
	if router.Decide == nil {
		panic("threadflow: router decide function cannot be nil")
	}
	if len(routes) == 0 {
		panic("threadflow: routes table cannot be empty")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.routers[from] = router
	copied := make(map[string]string, len(routes))
	for label, target := range routes {
		copied[label] = target
	}
	g.routes[from] = copied
	return g
}

// SetEntry designates the entry point node.
// This must be called before Compile().
// Returns the graph for method chaining.
//
// Entry point validation happens at Compile() time.
func (g *Graph[S]) SetEntry(id string) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entryPoint = id
	return g
}

// SetErrorNode designates the node that handles faulted state.
//
// After any node leaves a fault in state, the executor routes to this
// node instead of the normal successor, regardless of edge kind. The
// error node runs once and then follows its own outgoing edge; it is
// expected to lead to END.
//
// Without an error node, a fault ends the run with a typed error.
func (g *Graph[S]) SetErrorNode(id string) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.errorNode = id
	return g
}
