// Package llm defines the port to the language-model collaborator. The
// model is a black box: messages and tool definitions in, text and tool
// calls out. Callers must tolerate timeouts and malformed output.
package llm

import (
	"context"
	"encoding/json"
)

// Message is one chat turn sent to or received from the model.
type Message struct {
	Role       string     `json:"role"` // "system" | "user" | "assistant" | "tool"
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a model-requested tool invocation.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDef describes one tool offered to the model.
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON schema
}

// GenerateRequest is the input to a completion call.
type GenerateRequest struct {
	Model        string    `json:"model"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Messages     []Message `json:"messages"`
	Tools        []ToolDef `json:"tools,omitempty"`
	Temperature  float64   `json:"temperature,omitempty"`
	MaxTokens    int       `json:"max_tokens,omitempty"`
}

// GenerateResult is the model's reply.
type GenerateResult struct {
	Text      string     `json:"text"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	TokensIn  int        `json:"tokens_in"`
	TokensOut int        `json:"tokens_out"`
}

// Client is the port interface for model calls.
type Client interface {
	// Generate runs a chat completion, optionally offering tools.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)

	// GenerateObject runs a JSON-mode completion and unmarshals the
	// response body into out. Used for classification (briefing decision,
	// knowledge extraction).
	GenerateObject(ctx context.Context, req GenerateRequest, out any) error
}
