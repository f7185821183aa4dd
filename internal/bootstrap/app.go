package bootstrap

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"research-agent/internal/agent/research"
	"research-agent/internal/chat"
	"research-agent/internal/llm"
	openai "research-agent/internal/llm/openai"
	"research-agent/internal/services/health"
	"research-agent/internal/shared/config"
	"research-agent/internal/shared/server"
	"research-agent/internal/shared/telemetry"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "research-agent"

// App holds shared dependencies.
type App struct {
	Config      config.Config
	Router      *gin.Engine
	Prompts     research.PromptConfig
	Agent       *research.Agent
	ChatHandler *chat.Handler
	Health      *health.Service
}

// Option customizes Build.
type Option func(*options)

type options struct {
	factory llm.Factory
}

// WithLLMFactory replaces the OpenAI client factory.
func WithLLMFactory(f llm.Factory) Option {
	return func(o *options) {
		o.factory = f
	}
}

// Build wires the agent, handlers and router. The agent graph is built here so
// configuration problems surface at startup.
func Build(cfg config.Config, opts ...Option) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	prompts, err := research.LoadPromptConfig(cfg.PromptsFile)
	if err != nil {
		return nil, err
	}

	factory := o.factory
	if factory == nil {
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return nil, &config.Error{Key: "openai_api_key", Err: config.ErrMissingAPIKey}
		}
		var clientOpts []openai.Option
		if cfg.OpenAIBaseURL != "" {
			clientOpts = append(clientOpts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		if cfg.OpenAITimeout > 0 {
			clientOpts = append(clientOpts, openai.WithTimeout(cfg.OpenAITimeout))
		}
		factory = openai.NewFactory(cfg.OpenAIAPIKey, clientOpts...)
	}

	agent := research.New(prompts, factory)
	if _, err := agent.Build(); err != nil {
		return nil, fmt.Errorf("build research agent: %w", err)
	}

	app := &App{
		Config:      cfg,
		Prompts:     prompts,
		Agent:       agent,
		ChatHandler: chat.NewHandler(agent),
		Health:      health.NewService(ServiceName),
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:      app.Config,
		ChatHandler: app.ChatHandler,
		Health:      app.Health,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"model":        prompts.Model,
		"prompts_file": cfg.PromptsFile,
	})
	return app, nil
}
