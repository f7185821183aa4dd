package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"research-agent/internal/agent/research"
	"research-agent/internal/llm"
	openai "research-agent/internal/llm/openai"
	"research-agent/internal/shared/config"
	"research-agent/internal/shared/telemetry"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		exitErr(err.Error())
	}
}

// run executes one research query and writes the output state as JSON.
// Deferred cleanup always runs because errors are returned, not exited on.
func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("prompttest", flag.ContinueOnError)
	query := fs.String("query", "", "Research query (reads stdin when empty)")
	promptsPath := fs.String("prompts", "", "Path to prompts YAML (embedded defaults when empty)")
	model := fs.String("model", "", "Override the configured model")
	outPath := fs.String("out", "", "Path to write JSON output (optional)")
	showMessages := fs.Bool("show-messages", false, "Include the messages sent to the model")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if _, err := telemetry.Init(cfg.LogLevel, "console"); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer telemetry.Sync()

	text := *query
	if strings.TrimSpace(text) == "" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimSpace(string(raw))
	}

	path := *promptsPath
	if path == "" {
		path = cfg.PromptsFile
	}
	prompts, err := research.LoadPromptConfig(path)
	if err != nil {
		return err
	}
	if *model != "" {
		prompts.Model = *model
	}

	var clientOpts []openai.Option
	if cfg.OpenAIBaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}
	if cfg.OpenAITimeout > 0 {
		clientOpts = append(clientOpts, openai.WithTimeout(cfg.OpenAITimeout))
	}
	agent := research.New(prompts, openai.NewFactory(cfg.OpenAIAPIKey, clientOpts...))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	state, err := agent.Run(ctx, research.Query(text))
	if err != nil {
		return fmt.Errorf("%s: %w", research.ErrorCode(err), err)
	}

	payload := output{OutputState: state.Output()}
	if *showMessages {
		payload.Messages = state.Messages
	}
	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("format json: %w", err)
	}
	pretty = append(pretty, '\n')

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	if _, err := stdout.Write(pretty); err != nil {
		return fmt.Errorf("write stdout: %w", err)
	}
	return nil
}

type output struct {
	research.OutputState
	Messages []llm.Message `json:"messages,omitempty"`
}

func exitErr(msg string) {
	telemetry.Sync()
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
