package graph

import (
	"errors"
	"fmt"

	"research-agent/internal/shared/telemetry"
)

// Compile validates the graph and returns an immutable CompiledGraph.
// Every validation failure is reported, joined into one error.
//
// Checks:
//  1. exactly one edge leaves START and it targets an existing node
//  2. edge sources and targets reference existing nodes (or END)
//  3. every node has exactly one outgoing edge
//  4. following edges from the entry reaches END
func (g *Graph[S]) Compile() (*CompiledGraph[S], error) {
	var errs []error

	entry := ""
	switch starts := g.edges[START]; len(starts) {
	case 0:
		errs = append(errs, ErrNoEntryPoint)
	case 1:
		entry = starts[0]
		if _, ok := g.nodes[entry]; !ok {
			errs = append(errs, fmt.Errorf("%w: entry %q", ErrNodeNotFound, entry))
			entry = ""
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %s", ErrBranching, START))
	}

	next := make(map[string]string, len(g.nodes))
	for from, targets := range g.edges {
		if from == START {
			continue
		}
		if from == END {
			errs = append(errs, fmt.Errorf("%w: END cannot have outgoing edges", ErrNodeNotFound))
			continue
		}
		if _, ok := g.nodes[from]; !ok {
			errs = append(errs, fmt.Errorf("%w: edge source %q", ErrNodeNotFound, from))
			continue
		}
		if len(targets) > 1 {
			errs = append(errs, fmt.Errorf("%w: %s", ErrBranching, from))
			continue
		}
		to := targets[0]
		if to != END {
			if _, ok := g.nodes[to]; !ok {
				errs = append(errs, fmt.Errorf("%w: edge target %q", ErrNodeNotFound, to))
				continue
			}
		}
		next[from] = to
	}

	for _, id := range g.order {
		if _, ok := g.edges[id]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingEdge, id))
		}
	}

	if len(errs) == 0 {
		if !reachesEnd(entry, next, len(g.nodes)) {
			errs = append(errs, ErrNoPathToEnd)
		}
		warnUnreachable(g.name, entry, next, g.order)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	nodes := make(map[string]NodeFunc[S], len(g.nodes))
	for id, fn := range g.nodes {
		nodes[id] = fn
	}
	return &CompiledGraph[S]{
		name:  g.name,
		entry: entry,
		nodes: nodes,
		next:  next,
	}, nil
}

func reachesEnd(entry string, next map[string]string, limit int) bool {
	current := entry
	for i := 0; i <= limit; i++ {
		if current == END {
			return true
		}
		n, ok := next[current]
		if !ok {
			return false
		}
		current = n
	}
	return false
}

func warnUnreachable(name, entry string, next map[string]string, order []string) {
	reachable := map[string]bool{}
	for current := entry; current != END && !reachable[current]; current = next[current] {
		reachable[current] = true
	}
	for _, id := range order {
		if !reachable[id] {
			telemetry.Warn("graph.node_unreachable", map[string]any{"graph": name, "node_id": id})
		}
	}
}
