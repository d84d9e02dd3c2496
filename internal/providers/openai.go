// Package providers adapts concrete LLM SDKs to engine.LLMClient. The
// default target is a local OpenAI-compatible server (Ollama or LM
// Studio); hosted OpenAI and Anthropic work behind the same interface.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/ChamsBouzaiene/dojo/internal/engine"
)

// OpenAIClient speaks the OpenAI chat-completions protocol. Ollama and
// LM Studio both expose it, so one client covers every local setup.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient builds a client. baseURL may be empty for the hosted
// OpenAI endpoint; local servers accept any non-empty API key.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(config)}
}

// ListLocalModels asks an OpenAI-compatible server which models it has
// installed, for the interactive model picker. The key is a
// placeholder; local servers ignore it.
func ListLocalModels(ctx context.Context, baseURL string) ([]string, error) {
	cfg := openai.DefaultConfig("local")
	cfg.BaseURL = baseURL
	client := openai.NewClientWithConfig(cfg)

	list, err := client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models at %s: %w", baseURL, err)
	}
	names := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		names = append(names, m.ID)
	}
	sort.Strings(names)
	return names, nil
}

// convertMessages maps engine messages onto the OpenAI wire shapes.
// The system message is returned separately so it can be prepended.
func convertMessages(messages []engine.ChatMessage) ([]openai.ChatCompletionMessage, string) {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	var system string

	// The API rejects a tool message that does not follow an assistant
	// message carrying tool calls, so track that as we go.
	var prevAssistantHadToolCalls bool

	for i, msg := range messages {
		switch msg.Role {
		case engine.RoleSystem:
			system = msg.Content
			prevAssistantHadToolCalls = false
		case engine.RoleUser:
			out = append(out, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: msg.Content,
			})
			prevAssistantHadToolCalls = false
		case engine.RoleAssistant:
			// Empty assistant content serializes as null, which some
			// servers reject; a single space is semantically the same.
			content := msg.Content
			if content == "" {
				content = " "
			}
			var toolCalls []openai.ToolCall
			for _, tc := range msg.ToolCalls {
				argsJSON, _ := json.Marshal(tc.Args)
				toolCalls = append(toolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: "function",
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(argsJSON),
					},
				})
			}
			out = append(out, openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				Content:   content,
				ToolCalls: toolCalls,
			})
			prevAssistantHadToolCalls = len(msg.ToolCalls) > 0
		case engine.RoleTool:
			if !prevAssistantHadToolCalls {
				continue
			}
			content := msg.Content
			if content == "" {
				content = "{}"
			}
			// msg.Name carries the tool call ID, not the tool name.
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: msg.Name,
				Content:    content,
			})
			if i+1 < len(messages) && messages[i+1].Role == engine.RoleAssistant {
				prevAssistantHadToolCalls = false
			}
		}
	}
	return out, system
}

func convertTools(toolSchemas []engine.ToolSchema) ([]openai.Tool, error) {
	var tools []openai.Tool
	for _, ts := range toolSchemas {
		var schemaObj map[string]any
		if err := json.Unmarshal([]byte(ts.JSONSchema), &schemaObj); err != nil {
			return nil, fmt.Errorf("invalid tool schema JSON for %s: %w", ts.Name, err)
		}
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        ts.Name,
				Description: ts.Description,
				Parameters:  schemaObj,
			},
		})
	}
	return tools, nil
}

func (c *OpenAIClient) buildRequest(model string, messages []engine.ChatMessage, toolSchemas []engine.ToolSchema, opts engine.ChatOptions) (openai.ChatCompletionRequest, error) {
	msgs, system := convertMessages(messages)
	tools, err := convertTools(toolSchemas)
	if err != nil {
		return openai.ChatCompletionRequest{}, err
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: msgs,
	}
	if system != "" {
		req.Messages = append([]openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		}}, req.Messages...)
	}
	if len(tools) > 0 {
		req.Tools = tools
		req.ToolChoice = "auto"
	}
	if opts.MaxOutputTokens > 0 {
		req.MaxTokens = opts.MaxOutputTokens
	}
	if opts.Temperature > 0 {
		req.Temperature = &opts.Temperature
	}
	return req, nil
}

// Chat implements engine.LLMClient.
func (c *OpenAIClient) Chat(ctx context.Context, model string, messages []engine.ChatMessage, toolSchemas []engine.ToolSchema, opts engine.ChatOptions) (engine.LLMResponse, error) {
	req, err := c.buildRequest(model, messages, toolSchemas, opts)
	if err != nil {
		return engine.LLMResponse{}, err
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		httpStatus, retryAfter := extractErrorMetadata(err)
		return engine.LLMResponse{}, engine.WrapLLMError(err, httpStatus, retryAfter)
	}
	if len(resp.Choices) == 0 {
		return engine.LLMResponse{}, fmt.Errorf("empty response from backend")
	}

	choice := resp.Choices[0]
	assistant := engine.ChatMessage{
		Role:    engine.RoleAssistant,
		Content: choice.Message.Content,
	}

	var toolCalls []engine.ToolCall
	for _, tc := range choice.Message.ToolCalls {
		args := make(map[string]any)
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				args = make(map[string]any)
			}
		}
		toolCalls = append(toolCalls, engine.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}
	assistant.ToolCalls = toolCalls

	finishReason := "stop"
	switch {
	case len(toolCalls) > 0:
		finishReason = "tool_calls"
	case choice.FinishReason == openai.FinishReasonLength:
		finishReason = "length"
	case choice.FinishReason == openai.FinishReasonContentFilter:
		finishReason = "content_filter"
	}

	return engine.LLMResponse{
		Assistant: assistant,
		ToolCalls: toolCalls,
		Usage: engine.Usage{
			Prompt:     resp.Usage.PromptTokens,
			Completion: resp.Usage.CompletionTokens,
			Total:      resp.Usage.TotalTokens,
		},
		FinishReason: finishReason,
	}, nil
}

// Stream implements engine.LLMClient. The tutoring loop itself never
// streams (a response must be complete before it can be checked), but
// the interface keeps streaming available to callers outside the loop.
func (c *OpenAIClient) Stream(ctx context.Context, model string, messages []engine.ChatMessage, toolSchemas []engine.ToolSchema, opts engine.ChatOptions) (<-chan engine.StreamEvent, <-chan error) {
	eventCh := make(chan engine.StreamEvent, 10)
	errCh := make(chan error, 1)

	go func() {
		defer close(eventCh)
		defer close(errCh)

		req, err := c.buildRequest(model, messages, toolSchemas, opts)
		if err != nil {
			errCh <- err
			return
		}
		req.Stream = true
		req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

		stream, err := c.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			httpStatus, retryAfter := extractErrorMetadata(err)
			errCh <- engine.WrapLLMError(err, httpStatus, retryAfter)
			return
		}
		defer stream.Close()

		// Tool calls arrive as field deltas keyed by index; collect them
		// and emit whole calls once the stream ends.
		type pendingCall struct {
			id   string
			name string
			args strings.Builder
		}
		pending := make(map[int]*pendingCall)
		var usage engine.Usage

		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				httpStatus, retryAfter := extractErrorMetadata(err)
				errCh <- engine.WrapLLMError(err, httpStatus, retryAfter)
				return
			}

			// The final chunk may carry usage and no choices.
			if chunk.Usage != nil && chunk.Usage.TotalTokens > 0 {
				usage = engine.Usage{
					Prompt:     chunk.Usage.PromptTokens,
					Completion: chunk.Usage.CompletionTokens,
					Total:      chunk.Usage.TotalTokens,
				}
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta

			if delta.Content != "" {
				select {
				case eventCh <- engine.StreamEvent{Type: "text_delta", Text: delta.Content}:
				case <-ctx.Done():
					return
				}
			}

			for _, tcDelta := range delta.ToolCalls {
				idx := 0
				if tcDelta.Index != nil {
					idx = *tcDelta.Index
				}
				pc, ok := pending[idx]
				if !ok {
					pc = &pendingCall{}
					pending[idx] = pc
				}
				if tcDelta.ID != "" {
					pc.id = tcDelta.ID
				}
				if tcDelta.Function.Name != "" {
					pc.name = tcDelta.Function.Name
				}
				pc.args.WriteString(tcDelta.Function.Arguments)
			}
		}

		indexes := make([]int, 0, len(pending))
		for idx := range pending {
			indexes = append(indexes, idx)
		}
		sort.Ints(indexes)

		for _, idx := range indexes {
			pc := pending[idx]
			if pc.name == "" {
				continue
			}
			call := engine.ToolCall{ID: pc.id, Name: pc.name, Args: make(map[string]any)}
			if raw := pc.args.String(); raw != "" {
				if err := json.Unmarshal([]byte(raw), &call.Args); err != nil {
					call.Error = fmt.Sprintf("arguments arrived as invalid JSON: %v", err)
				}
			}
			select {
			case eventCh <- engine.StreamEvent{Type: "tool_call", ToolCall: call}:
			case <-ctx.Done():
				return
			}
		}

		if usage.Total > 0 {
			select {
			case eventCh <- engine.StreamEvent{Type: "usage", Usage: usage}:
			case <-ctx.Done():
			}
		}
	}()

	return eventCh, errCh
}

// extractErrorMetadata pulls an HTTP status and Retry-After value out of
// an SDK error string, for the retry classifier.
func extractErrorMetadata(err error) (int, string) {
	if err == nil {
		return 0, ""
	}
	errStr := err.Error()

	var httpStatus int
	for _, code := range []int{
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusBadRequest,
		http.StatusNotFound,
	} {
		if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
			httpStatus = code
			break
		}
	}

	// Both "Retry-After: 60" and "retry after 60s" show up in the wild;
	// skip separator tokens when the colon lands in its own field.
	var retryAfter string
	lower := strings.ToLower(errStr)
	for _, marker := range []string{"retry-after", "retry after"} {
		idx := strings.Index(lower, marker)
		if idx == -1 {
			continue
		}
		for _, f := range strings.Fields(errStr[idx+len(marker):]) {
			if v := strings.Trim(f, ":,"); v != "" {
				retryAfter = v
				break
			}
		}
		break
	}

	return httpStatus, retryAfter
}
