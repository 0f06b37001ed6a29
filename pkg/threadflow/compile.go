package threadflow

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// Compile validates the graph and creates an executable CompiledGraph.
// Returns an error if validation fails. Multiple errors are joined together.
//
// Validation checks (in order):
//  1. Entry point must be set and reference an existing node
//  2. All edge sources and targets must reference existing nodes (or END)
//  3. A node has at most one unconditional edge and never both edge kinds
//  4. Every routing table target must reference an existing node or END
//  5. Every label a router declares must have a routing table entry
//  6. The error node (when set) must reference an existing node
//  7. A path from the entry point to END must exist
//
// Unreachable nodes (not reachable from entry) are logged as warnings
// but do not cause compilation to fail. The error node is exempt: it is
// reached through fault routing, not through declared edges.
func (g *Graph[S]) Compile() (*CompiledGraph[S], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var errs []error

	// 1. Entry point
	if g.entryPoint == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if _, exists := g.nodes[g.entryPoint]; !exists {
		errs = append(errs, fmt.Errorf("%w: %s", ErrEntryNotFound, g.entryPoint))
	}

	// 2 & 3. Unconditional edges
	for from, targets := range g.edges {
		if _, exists := g.nodes[from]; !exists {
			errs = append(errs, fmt.Errorf("%w: edge source '%s' does not exist", ErrNodeNotFound, from))
		}
		if len(targets) > 1 {
			errs = append(errs, fmt.Errorf("%w: node '%s' has %d unconditional edges", ErrDuplicateEdge, from, len(targets)))
		}
		if _, hasRouter := g.routers[from]; hasRouter {
			errs = append(errs, fmt.Errorf("%w: node '%s'", ErrConflictingEdges, from))
		}
		for _, to := range targets {
			if to != END {
				if _, exists := g.nodes[to]; !exists {
					errs = append(errs, fmt.Errorf("%w: edge target '%s' does not exist", ErrNodeNotFound, to))
				}
			}
		}
	}

	// 4 & 5. Conditional edges
	for from, router := range g.routers {
		if _, exists := g.nodes[from]; !exists {
			errs = append(errs, fmt.Errorf("%w: conditional edge source '%s' does not exist", ErrNodeNotFound, from))
		}

		routes := g.routes[from]
		// Deterministic error order for joined messages.
		targets := make([]string, 0, len(routes))
		for label := range routes {
			targets = append(targets, label)
		}
		sort.Strings(targets)
		for _, label := range targets {
			if to := routes[label]; to != END {
				if _, exists := g.nodes[to]; !exists {
					errs = append(errs, fmt.Errorf("%w: route %q from '%s' targets '%s'", ErrNodeNotFound, label, from, to))
				}
			}
		}

		for _, label := range router.Labels {
			if _, ok := routes[label]; !ok {
				errs = append(errs, fmt.Errorf("%w: label %q declared by router at '%s'", ErrLabelNotRouted, label, from))
			}
		}
	}

	// 6. Error node
	if g.errorNode != "" {
		if _, exists := g.nodes[g.errorNode]; !exists {
			errs = append(errs, fmt.Errorf("%w: %s", ErrErrorNodeNotFound, g.errorNode))
		}
	}

	// 7. Path to END from entry
	if g.entryPoint != "" {
		if _, exists := g.nodes[g.entryPoint]; exists {
			if !g.hasPathToEnd() {
				errs = append(errs, ErrNoPathToEnd)
			}
		}
	}

	// Unreachable nodes (warning only)
	g.warnUnreachableNodes()

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return g.buildCompiledGraph(), nil
}

// hasPathToEnd checks if there's a path from entry to END.
// Routing tables make conditional successors known at compile time, so
// reachability is exact for both edge kinds.
func (g *Graph[S]) hasPathToEnd() bool {
	canReachEnd := make(map[string]bool)
	canReachEnd[END] = true

	// Propagate backwards until stable.
	changed := true
	for changed {
		changed = false

		for from, targets := range g.edges {
			if canReachEnd[from] {
				continue
			}
			for _, to := range targets {
				if canReachEnd[to] {
					canReachEnd[from] = true
					changed = true
					break
				}
			}
		}

		for from, routes := range g.routes {
			if canReachEnd[from] {
				continue
			}
			for _, to := range routes {
				if canReachEnd[to] {
					canReachEnd[from] = true
					changed = true
					break
				}
			}
		}
	}

	return canReachEnd[g.entryPoint]
}

// warnUnreachableNodes logs warnings for nodes not reachable from entry.
// The error node is excluded: fault routing reaches it without an edge.
func (g *Graph[S]) warnUnreachableNodes() {
	if g.entryPoint == "" {
		return
	}

	reachable := g.findReachableNodes()

	for nodeID := range g.nodes {
		if nodeID == g.errorNode {
			continue
		}
		if !reachable[nodeID] {
			slog.Warn("node is unreachable from entry", "node_id", nodeID)
		}
	}
}

// findReachableNodes returns the set of nodes reachable from the entry point
// following both edge kinds.
func (g *Graph[S]) findReachableNodes() map[string]bool {
	reachable := make(map[string]bool)

	if g.entryPoint == "" {
		return reachable
	}

	queue := []string{g.entryPoint}
	reachable[g.entryPoint] = true

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, target := range g.edges[current] {
			if target != END && !reachable[target] {
				reachable[target] = true
				queue = append(queue, target)
			}
		}

		for _, target := range g.routes[current] {
			if target != END && !reachable[target] {
				reachable[target] = true
				queue = append(queue, target)
			}
		}
	}

	return reachable
}

// buildCompiledGraph creates the immutable CompiledGraph from the builder state.
func (g *Graph[S]) buildCompiledGraph() *CompiledGraph[S] {
	nodes := make(map[string]NodeFunc[S], len(g.nodes))
	for id, fn := range g.nodes {
		nodes[id] = fn
	}

	// Single target per node after validation.
	successors := make(map[string]string, len(g.edges))
	for from, targets := range g.edges {
		successors[from] = targets[0]
	}

	routers := make(map[string]Router[S], len(g.routers))
	for from, router := range g.routers {
		routers[from] = router
	}

	routes := make(map[string]map[string]string, len(g.routes))
	for from, table := range g.routes {
		copied := make(map[string]string, len(table))
		for label, target := range table {
			copied[label] = target
		}
		routes[from] = copied
	}

	return newCompiledGraph(nodes, successors, routers, routes, g.entryPoint, g.errorNode)
}
