package engine

import (
	"context"
	"fmt"
)

// MessageRole names who authored a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ChatMessage is the provider-neutral message that the loop, the
// providers and the session store all exchange.
type ChatMessage struct {
	Role    MessageRole
	Content string
	Name    string // tool call ID, set on RoleTool messages
	// ToolCalls stores the tool calls made by this assistant message.
	// Providers require them when the message is sent back as context.
	ToolCalls []ToolCall
}

// Validate rejects malformed messages before they reach a provider.
func (m ChatMessage) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
	default:
		return fmt.Errorf("invalid message role: %s", m.Role)
	}
	if m.Role == RoleTool && m.Name == "" {
		return fmt.Errorf("tool messages must have a Name field")
	}
	return nil
}

// Usage counts tokens for one call. State.Totals accumulates it across
// the session for the /metrics report.
type Usage struct {
	Prompt     int
	Completion int
	Total      int
}

// ToolCall is one function invocation requested by the model.
type ToolCall struct {
	ID    string // provider-assigned call ID, echoed back in the result
	Name  string
	Args  map[string]any
	Error string // set by the provider when the call arrived incomplete
}

// LLMResponse is one complete chat exchange, normalized across
// providers.
type LLMResponse struct {
	Assistant    ChatMessage
	ToolCalls    []ToolCall
	Usage        Usage
	FinishReason string // "stop" | "length" | "tool_calls" | "content_filter"
}

// LLMClient abstracts the chosen SDK (OpenAI-compatible, Anthropic, ...).
// The loop only ever uses Chat: responses must be complete before they
// can be validated, so there is nothing to stream mid-turn. Stream is
// part of the contract for providers that support it; callers outside
// the loop may use it.
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []ChatMessage, toolSchemas []ToolSchema, opts ChatOptions) (LLMResponse, error)
	Stream(ctx context.Context, model string, messages []ChatMessage, toolSchemas []ToolSchema, opts ChatOptions) (<-chan StreamEvent, <-chan error)
}

// ChatOptions carries the knobs forwarded to the SDK on each call.
type ChatOptions struct {
	Temperature     float32
	MaxOutputTokens int
	RetryConfig     *RetryConfig // nil selects the defaults
}

// ToolSchema describes one tool in the form providers expect for
// function calling.
type ToolSchema struct {
	Name        string
	Description string
	JSONSchema  string // raw JSON string
}

// StreamEvent is one frame of a streaming response.
type StreamEvent struct {
	Type       string   // "text_delta" | "tool_call" | "tool_result" | "usage"
	Text       string   // for text_delta
	ToolCall   ToolCall // for tool_call
	ToolCallID string   // for tool_result
	Content    string   // for tool_result
	Usage      Usage    // for usage
}

// FileResult is the JSON contract file-writing tools return. The loop
// unmarshals tool results into this shape to learn which paths were
// actually touched, so it can re-check and roll back written content.
type FileResult struct {
	Path   string `json:"path"`
	Status string `json:"status"` // "created" | "overwritten" | "edited" | "skipped" | "failed"
	Bytes  int    `json:"bytes,omitempty"`
	Lines  int    `json:"lines,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Touched reports whether the tool changed the file on disk.
func (r FileResult) Touched() bool {
	switch r.Status {
	case "created", "overwritten", "edited":
		return true
	}
	return false
}

// WorkDir is the slice of filesystem the loop needs for post-write
// checks: read back what a tool wrote, restore or remove it when the
// written content turns out to break the rules. Paths are relative to
// the working root.
type WorkDir interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	Remove(path string) error
}
