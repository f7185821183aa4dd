package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"research-agent/internal/llm"
	"research-agent/internal/shared/metrics"
	"research-agent/internal/shared/telemetry"
	"research-agent/internal/shared/util"
)

const (
	providerName   = "openai"
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
)

// Client implements llm.StructuredClient using OpenAI Chat Completions with a
// JSON schema response format.
type Client struct {
	apiKey      string
	model       string
	temperature float64
	baseURL     string
	httpClient  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (for proxies and tests).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(url), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string, temperature float64, opts ...Option) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai_api_key is required")
	}
	c := &Client{
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFactory returns an llm.Factory producing OpenAI clients sharing opts.
func NewFactory(apiKey string, opts ...Option) llm.Factory {
	return func(model string, temperature float64) (llm.StructuredClient, error) {
		return NewClient(apiKey, model, temperature, opts...)
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float64       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
	} `json:"choices"`
	Usage *chatResponseUsage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type chatResponseUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Invoke sends messages once and returns the schema-validated response.
// Every failure is an *llm.InvocationError.
func (c *Client) Invoke(ctx context.Context, messages []llm.Message) (llm.StructuredResponse, error) {
	content, usage, status, err := c.complete(ctx, messages)
	if err != nil {
		return llm.StructuredResponse{}, c.invocationError(status, err)
	}
	logUsage(c.model, hashPromptString(promptStringFromMessages(messages)), usage)

	resp, err := llm.DecodeStructured([]byte(content))
	if err != nil {
		return llm.StructuredResponse{}, c.invocationError(status, err)
	}
	return resp, nil
}

func (c *Client) complete(ctx context.Context, messages []llm.Message) (string, *chatResponseUsage, int, error) {
	reqMessages := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	temp := c.temperature
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    reqMessages,
		Temperature: &temp,
		ResponseFormat: responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchema{
				Name:   llm.ResponseSchemaName,
				Strict: true,
				Schema: llm.ResponseSchema(),
			},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, resp.StatusCode, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", nil, resp.StatusCode, errors.New(strings.TrimSpace(string(body)))
		}
		return "", nil, resp.StatusCode, fmt.Errorf("response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", nil, resp.StatusCode, fmt.Errorf("%s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode >= 400 {
		return "", nil, resp.StatusCode, errors.New(strings.TrimSpace(string(body)))
	}
	if len(parsed.Choices) == 0 {
		return "", nil, resp.StatusCode, fmt.Errorf("response missing choices: %w", llm.ErrEmptyResponse)
	}

	msg := parsed.Choices[0].Message
	if strings.TrimSpace(msg.Refusal) != "" {
		return "", nil, resp.StatusCode, fmt.Errorf("model refused: %s", msg.Refusal)
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return "", nil, resp.StatusCode, fmt.Errorf("response empty content: %w", llm.ErrEmptyResponse)
	}
	return content, parsed.Usage, resp.StatusCode, nil
}

func (c *Client) invocationError(status int, err error) *llm.InvocationError {
	timeout := errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout")
	if status < 400 {
		status = 0
	}
	return &llm.InvocationError{
		Provider:   providerName,
		Model:      c.model,
		StatusCode: status,
		Timeout:    timeout,
		Err:        err,
	}
}

func logUsage(model, promptHash string, usage *chatResponseUsage) {
	fields := map[string]any{
		"model":       model,
		"prompt_hash": promptHash,
	}
	if usage != nil {
		fields["prompt_tokens"] = usage.PromptTokens
		fields["completion_tokens"] = usage.CompletionTokens
		fields["total_tokens"] = usage.TotalTokens
		metrics.AddLLMTokens(model, usage.PromptTokens, usage.CompletionTokens)
	}
	telemetry.Info("llm.response", fields)
}

func promptStringFromMessages(messages []llm.Message) string {
	if len(messages) == 0 {
		return ""
	}
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

func hashPromptString(prompt string) string {
	return util.Fingerprint(prompt)
}

var _ llm.StructuredClient = (*Client)(nil)
