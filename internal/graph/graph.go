// Package graph is a small workflow engine: named nodes connected by edges,
// compiled into an immutable graph that walks from START to END passing a
// typed state value between nodes.
package graph

import (
	"context"
	"fmt"
	"strings"
)

const (
	// START is the virtual entry node. An edge from START selects the entry point.
	START = "__start__"
	// END is the terminal node identifier.
	END = "__end__"
)

// NodeFunc processes the state and returns the updated state. State is passed
// by value; nodes return a new value rather than mutating shared data.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// Graph is a mutable builder. It is not safe for concurrent use; build it in
// one goroutine and call Compile.
type Graph[S any] struct {
	name  string
	nodes map[string]NodeFunc[S]
	order []string
	edges map[string][]string
}

// New creates an empty graph builder.
func New[S any](name string) *Graph[S] {
	return &Graph[S]{
		name:  name,
		nodes: make(map[string]NodeFunc[S]),
		edges: make(map[string][]string),
	}
}

// AddNode registers a node. It panics on an empty, reserved, duplicate or
// whitespace-containing id, or a nil fn.
func (g *Graph[S]) AddNode(id string, fn NodeFunc[S]) *Graph[S] {
	if id == "" {
		panic("graph: node ID cannot be empty")
	}
	if isReserved(id) {
		panic(fmt.Sprintf("graph: node ID %q is reserved", id))
	}
	if strings.ContainsAny(id, " \t\n\r") {
		panic("graph: node ID cannot contain whitespace")
	}
	if fn == nil {
		panic("graph: node function cannot be nil")
	}
	if _, exists := g.nodes[id]; exists {
		panic(fmt.Sprintf("graph: duplicate node ID: %s", id))
	}
	g.nodes[id] = fn
	g.order = append(g.order, id)
	return g
}

// AddEdge connects from to to. Use START and END for the virtual endpoints.
// Edges are validated by Compile.
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	g.edges[from] = append(g.edges[from], to)
	return g
}

func isReserved(id string) bool {
	switch strings.ToLower(id) {
	case START, END, "start", "end":
		return true
	}
	return false
}
