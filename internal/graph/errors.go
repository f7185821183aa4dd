package graph

import (
	"errors"
	"fmt"
)

var (
	ErrNoEntryPoint = errors.New("no edge from START")
	ErrNodeNotFound = errors.New("node not found")
	ErrNoPathToEnd  = errors.New("no path to END from entry")
	ErrBranching    = errors.New("node has more than one outgoing edge")
	ErrMissingEdge  = errors.New("node has no outgoing edge")
	ErrMaxSteps     = errors.New("exceeded maximum steps")
	ErrNilContext   = errors.New("context cannot be nil")
)

// NodeError wraps a failure returned by a node.
type NodeError struct {
	NodeID string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %v", e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised inside a node.
type PanicError struct {
	NodeID string
	Value  any
	Stack  string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}

// CancellationError reports that the context was done before a node ran.
type CancellationError struct {
	NodeID string
	Cause  error
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("cancelled before node %s: %v", e.NodeID, e.Cause)
}

func (e *CancellationError) Unwrap() error {
	return e.Cause
}
