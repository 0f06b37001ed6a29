package threadflow

import (
	"sync"

	"github.com/threadflow/threadflow/pkg/threadflow/registry"
)

// CompiledGraph is an immutable, executable graph.
// It is created by calling Compile() on a Graph builder.
//
// CompiledGraph is thread-safe and can be used concurrently for multiple
// Run() calls. The graph structure cannot be modified after compilation.
// Runs that carry the same thread ID are serialized against each other;
// runs on distinct threads proceed concurrently.
//
// Use the introspection methods (NodeIDs, Successor, Routes, etc.) to
// examine the graph structure for debugging or visualization.
type CompiledGraph[S State[S]] struct {
	nodes      map[string]NodeFunc[S]
	successors map[string]string
	routers    map[string]Router[S]
	routes     map[string]map[string]string
	entryPoint string
	errorNode  string

	// Per-thread run serialization.
	threadLocks *registry.Registry[string, *sync.Mutex]
}

// newCompiledGraph wires the immutable structure produced by Compile.
func newCompiledGraph[S State[S]](
	nodes map[string]NodeFunc[S],
	successors map[string]string,
	routers map[string]Router[S],
	routes map[string]map[string]string,
	entryPoint, errorNode string,
) *CompiledGraph[S] {
	return &CompiledGraph[S]{
		nodes:       nodes,
		successors:  successors,
		routers:     routers,
		routes:      routes,
		entryPoint:  entryPoint,
		errorNode:   errorNode,
		threadLocks: registry.New[string, *sync.Mutex](),
	}
}

// EntryPoint returns the entry node ID.
func (cg *CompiledGraph[S]) EntryPoint() string {
	return cg.entryPoint
}

// ErrorNode returns the designated error node ID, or "" if none is set.
func (cg *CompiledGraph[S]) ErrorNode() string {
	return cg.errorNode
}

// NodeIDs returns all node identifiers in the graph.
// The order is not guaranteed.
func (cg *CompiledGraph[S]) NodeIDs() []string {
	ids := make([]string, 0, len(cg.nodes))
	for id := range cg.nodes {
		ids = append(ids, id)
	}
	return ids
}

// HasNode checks if a node exists in the graph.
func (cg *CompiledGraph[S]) HasNode(id string) bool {
	_, exists := cg.nodes[id]
	return exists
}

// Successor returns the unconditional edge target for the given node
// and whether one exists. Conditional targets are exposed via Routes.
func (cg *CompiledGraph[S]) Successor(id string) (string, bool) {
	to, ok := cg.successors[id]
	return to, ok
}

// Routes returns a copy of the routing table for the given node,
// or nil if the node has no conditional edge.
func (cg *CompiledGraph[S]) Routes(id string) map[string]string {
	table, ok := cg.routes[id]
	if !ok {
		return nil
	}
	copied := make(map[string]string, len(table))
	for label, target := range table {
		copied[label] = target
	}
	return copied
}

// IsConditional returns true if the node has a conditional edge.
func (cg *CompiledGraph[S]) IsConditional(id string) bool {
	_, exists := cg.routers[id]
	return exists
}

// getNode returns the node function for the given ID.
// Used internally by the executor.
func (cg *CompiledGraph[S]) getNode(id string) (NodeFunc[S], bool) {
	fn, exists := cg.nodes[id]
	return fn, exists
}

// getRouter returns the router and routing table for the given node.
// Used internally by the executor.
func (cg *CompiledGraph[S]) getRouter(id string) (Router[S], map[string]string, bool) {
	router, exists := cg.routers[id]
	if !exists {
		return Router[S]{}, nil, false
	}
	return router, cg.routes[id], true
}

// threadLock returns the mutex guarding runs for the given thread,
// creating it on first use.
func (cg *CompiledGraph[S]) threadLock(threadID string) *sync.Mutex {
	return cg.threadLocks.GetOrCreate(threadID, func() *sync.Mutex {
		return &sync.Mutex{}
	})
}
