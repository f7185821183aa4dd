package graph

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"research-agent/internal/shared/telemetry"
)

const tracerName = "research-agent/graph"

// CompiledGraph is an immutable, executable graph. It is safe for concurrent
// Invoke calls; each call owns its own state value.
type CompiledGraph[S any] struct {
	name  string
	entry string
	nodes map[string]NodeFunc[S]
	next  map[string]string
}

// Name returns the graph name.
func (cg *CompiledGraph[S]) Name() string {
	return cg.name
}

// EntryPoint returns the first node executed.
func (cg *CompiledGraph[S]) EntryPoint() string {
	return cg.entry
}

// Path returns the node ids in execution order, ending with END.
func (cg *CompiledGraph[S]) Path() []string {
	var path []string
	for current := cg.entry; current != END; current = cg.next[current] {
		path = append(path, current)
	}
	return append(path, END)
}

// Invoke runs the graph from START to END and returns the final state.
// On failure the returned state is the state at the point of failure. A run
// executes each node at most once; exceeding that returns ErrMaxSteps.
func (cg *CompiledGraph[S]) Invoke(ctx context.Context, state S) (result S, runErr error) {
	if ctx == nil {
		return state, ErrNilContext
	}

	runID := uuid.NewString()
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "graph.run",
		trace.WithAttributes(
			attribute.String("graph.name", cg.name),
			attribute.String("run.id", runID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer func() { endSpan(span, runErr) }()

	start := time.Now()
	steps := 0
	current := cg.entry
	for current != END {
		if err := ctx.Err(); err != nil {
			runErr = &CancellationError{NodeID: current, Cause: err}
			break
		}
		if steps >= len(cg.nodes) {
			runErr = fmt.Errorf("%w: %d nodes executed without reaching %s", ErrMaxSteps, steps, END)
			telemetry.Error("graph.max_steps", map[string]any{
				"graph":   cg.name,
				"run_id":  runID,
				"node_id": current,
				"steps":   steps,
			})
			break
		}

		nodeCtx, nodeSpan := tracer.Start(ctx, "graph.node."+current,
			trace.WithAttributes(attribute.String("node.id", current)),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		nodeStart := time.Now()
		var err error
		state, err = cg.executeNode(nodeCtx, current, state)
		endSpan(nodeSpan, err)
		if err != nil {
			telemetry.Error("graph.node_failed", map[string]any{
				"graph":   cg.name,
				"run_id":  runID,
				"node_id": current,
				"error":   err,
			})
			runErr = err
			break
		}
		telemetry.Debug("graph.node_complete", map[string]any{
			"graph":       cg.name,
			"run_id":      runID,
			"node_id":     current,
			"duration_ms": float64(time.Since(nodeStart).Microseconds()) / 1000.0,
		})
		steps++
		current = cg.next[current]
	}

	if runErr == nil {
		telemetry.Debug("graph.run_complete", map[string]any{
			"graph":       cg.name,
			"run_id":      runID,
			"nodes":       steps,
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
		})
	}
	return state, runErr
}

// executeNode runs one node, converting panics into *PanicError and wrapping
// returned errors in *NodeError.
func (cg *CompiledGraph[S]) executeNode(ctx context.Context, id string, state S) (result S, err error) {
	fn := cg.nodes[id]

	defer func() {
		if r := recover(); r != nil {
			result = state
			err = &PanicError{NodeID: id, Value: r, Stack: string(debug.Stack())}
		}
	}()

	result, err = fn(ctx, state)
	if err != nil {
		return result, &NodeError{NodeID: id, Err: err}
	}
	return result, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
