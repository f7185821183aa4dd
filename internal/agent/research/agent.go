// Package research implements the research agent: a one-node workflow graph
// (START -> research -> END) wrapping a single structured LLM call, and the
// Agent facade that owns the compiled graph.
package research

import (
	"context"
	"errors"
	"sync"
	"time"

	"research-agent/internal/graph"
	"research-agent/internal/llm"
	"research-agent/internal/shared/config"
	"research-agent/internal/shared/metrics"
	"research-agent/internal/shared/telemetry"
)

// Name identifies the agent in logs and traces.
const Name = "Research Agent"

// Error codes reported for failed invocations.
const (
	CodeConfig        = "config_error"
	CodeTemplate      = "template_format_error"
	CodeLLMInvocation = "llm_invocation_error"
	CodeInternal      = "internal_error"
)

// Agent owns the compiled research graph. Build it once at startup; Invoke
// builds on first use if that has not happened.
type Agent struct {
	prompts PromptConfig
	factory llm.Factory

	once     sync.Once
	compiled *graph.CompiledGraph[State]
	buildErr error
}

// New creates an agent. Nothing is constructed until Build or Invoke.
func New(prompts PromptConfig, factory llm.Factory) *Agent {
	return &Agent{prompts: prompts, factory: factory}
}

// Build creates the LLM client and compiles the graph. It is idempotent:
// construction happens once and later calls return the same graph or error.
func (a *Agent) Build() (*graph.CompiledGraph[State], error) {
	a.once.Do(func() {
		a.compiled, a.buildErr = a.build()
	})
	return a.compiled, a.buildErr
}

func (a *Agent) build() (*graph.CompiledGraph[State], error) {
	if a.factory == nil {
		return nil, &config.Error{Key: "llm", Err: errors.New("no client factory configured")}
	}
	client, err := a.factory(a.prompts.Model, a.prompts.Temperature)
	if err != nil {
		return nil, &config.Error{Key: SectionName + ".model", Err: err}
	}

	compiled, err := graph.New[State](Name).
		AddNode(NodeName, researchNode(a.prompts, client)).
		AddEdge(graph.START, NodeName).
		AddEdge(NodeName, graph.END).
		Compile()
	if err != nil {
		return nil, err
	}
	telemetry.Info("agent.built", map[string]any{
		"agent":       Name,
		"model":       a.prompts.Model,
		"temperature": a.prompts.Temperature,
	})
	return compiled, nil
}

// Invoke runs the graph for one input and returns its output.
func (a *Agent) Invoke(ctx context.Context, in Input) (OutputState, error) {
	state, err := a.Run(ctx, in)
	if err != nil {
		return OutputState{}, err
	}
	return state.Output(), nil
}

// Run is Invoke returning the full final state, including the messages sent.
func (a *Agent) Run(ctx context.Context, in Input) (State, error) {
	if in == nil {
		in = Query("")
	}

	compiled, err := a.Build()
	if err != nil {
		metrics.IncResearchFailed(ErrorCode(err))
		return State{}, err
	}

	metrics.IncResearchStarted()
	start := time.Now()
	state, err := compiled.Invoke(ctx, in.initialState())
	metrics.ObserveResearchDuration(time.Since(start))
	if err != nil {
		metrics.IncResearchFailed(ErrorCode(err))
		return State{}, err
	}
	metrics.IncResearchCompleted()
	return state, nil
}

// ErrorCode classifies an invocation error.
func ErrorCode(err error) string {
	var (
		cfgErr  *config.Error
		tmplErr *TemplateFormatError
		llmErr  *llm.InvocationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return CodeConfig
	case errors.As(err, &tmplErr):
		return CodeTemplate
	case errors.As(err, &llmErr):
		return CodeLLMInvocation
	default:
		return CodeInternal
	}
}
