package llm

import (
	"context"
	"errors"
	"fmt"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message sent to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// HumanMessage builds a user message.
func HumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// StructuredResponse is the schema the model must fill for a research request.
// Either field may be absent in the model output.
type StructuredResponse struct {
	ProcessingSummary *string `json:"processing_summary"`
	ResearchDocument  *string `json:"research_document"`
}

// Summary returns the processing summary, or "" when absent.
func (r StructuredResponse) Summary() string {
	if r.ProcessingSummary == nil {
		return ""
	}
	return *r.ProcessingSummary
}

// Document returns the research document, or "" when absent.
func (r StructuredResponse) Document() string {
	if r.ResearchDocument == nil {
		return ""
	}
	return *r.ResearchDocument
}

// StructuredClient sends a message sequence to a model and returns its
// response coerced into StructuredResponse.
type StructuredClient interface {
	Invoke(ctx context.Context, messages []Message) (StructuredResponse, error)
}

// Factory constructs a StructuredClient for a model and sampling temperature.
type Factory func(model string, temperature float64) (StructuredClient, error)

// ErrEmptyResponse is returned when the provider returns no usable content.
var ErrEmptyResponse = errors.New("empty response")

// ErrSchemaMismatch is returned when the provider output does not match the
// response schema.
var ErrSchemaMismatch = errors.New("response does not match schema")

// InvocationError reports a failed provider call. Calls are never retried.
type InvocationError struct {
	Provider   string
	Model      string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *InvocationError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: http status %d: %v", e.Provider, e.Model, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Model, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// ClientFunc adapts a function to StructuredClient.
type ClientFunc func(ctx context.Context, messages []Message) (StructuredResponse, error)

// Invoke calls f.
func (f ClientFunc) Invoke(ctx context.Context, messages []Message) (StructuredResponse, error) {
	return f(ctx, messages)
}

// StaticFactory returns a Factory that always yields client.
func StaticFactory(client StructuredClient) Factory {
	return func(string, float64) (StructuredClient, error) {
		return client, nil
	}
}
