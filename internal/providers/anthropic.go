package providers

import (
	"context"
	"encoding/json"
	"fmt"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/ChamsBouzaiene/dojo/internal/engine"
)

// AnthropicClient implements engine.LLMClient against the Anthropic
// Messages API. It exists for users who point the tutor at a hosted
// model instead of a local one.
type AnthropicClient struct {
	client *anthropic.Client
}

func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{client: anthropic.NewClient(apiKey)}
}

// convertAnthropicMessages maps engine messages onto Anthropic blocks.
// System text goes into MultiSystem parts; tool results become
// tool_result blocks inside user messages, which is how the Messages
// API represents them.
func convertAnthropicMessages(messages []engine.ChatMessage) ([]anthropic.Message, []anthropic.MessageSystemPart) {
	var systemParts []anthropic.MessageSystemPart
	var out []anthropic.Message

	// tool_result blocks must follow an assistant message with tool_use.
	var prevAssistantHadToolCalls bool

	for i, msg := range messages {
		switch msg.Role {
		case engine.RoleSystem:
			systemParts = append(systemParts, anthropic.MessageSystemPart{
				Type: "text",
				Text: msg.Content,
			})
			prevAssistantHadToolCalls = false
		case engine.RoleUser:
			out = append(out, anthropic.Message{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(msg.Content)},
			})
			prevAssistantHadToolCalls = false
		case engine.RoleAssistant:
			var content []anthropic.MessageContent
			if msg.Content != "" && msg.Content != " " {
				content = append(content, anthropic.NewTextMessageContent(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				argsJSON, _ := json.Marshal(tc.Args)
				content = append(content, anthropic.NewToolUseMessageContent(
					tc.ID,
					tc.Name,
					json.RawMessage(argsJSON),
				))
			}
			out = append(out, anthropic.Message{
				Role:    anthropic.RoleAssistant,
				Content: content,
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
			// msg.Name carries the tool_use_id.
			out = append(out, anthropic.Message{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewToolResultMessageContent(msg.Name, content, false),
				},
			})
			if i+1 < len(messages) && messages[i+1].Role == engine.RoleAssistant {
				prevAssistantHadToolCalls = false
			}
		}
	}
	return out, systemParts
}

func convertAnthropicTools(toolSchemas []engine.ToolSchema) ([]anthropic.ToolDefinition, error) {
	var defs []anthropic.ToolDefinition
	for _, ts := range toolSchemas {
		var schemaObj map[string]any
		if err := json.Unmarshal([]byte(ts.JSONSchema), &schemaObj); err != nil {
			return nil, fmt.Errorf("invalid tool schema JSON for %s: %w", ts.Name, err)
		}
		defs = append(defs, anthropic.ToolDefinition{
			Name:        ts.Name,
			Description: ts.Description,
			InputSchema: schemaObj,
		})
	}
	return defs, nil
}

func (c *AnthropicClient) buildRequest(model string, messages []engine.ChatMessage, toolSchemas []engine.ToolSchema, opts engine.ChatOptions) (anthropic.MessagesRequest, error) {
	msgs, systemParts := convertAnthropicMessages(messages)
	toolDefs, err := convertAnthropicTools(toolSchemas)
	if err != nil {
		return anthropic.MessagesRequest{}, err
	}

	maxTokens := 4096
	if opts.MaxOutputTokens > 0 {
		maxTokens = opts.MaxOutputTokens
	}
	temperature := float32(0.1)
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}

	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(model),
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	}
	if len(systemParts) > 0 {
		req.MultiSystem = systemParts
	}
	if len(toolDefs) > 0 {
		req.Tools = toolDefs
	}
	return req, nil
}

// Chat implements engine.LLMClient.
func (c *AnthropicClient) Chat(ctx context.Context, model string, messages []engine.ChatMessage, toolSchemas []engine.ToolSchema, opts engine.ChatOptions) (engine.LLMResponse, error) {
	req, err := c.buildRequest(model, messages, toolSchemas, opts)
	if err != nil {
		return engine.LLMResponse{}, err
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		httpStatus, retryAfter := extractErrorMetadata(err)
		return engine.LLMResponse{}, engine.WrapLLMError(err, httpStatus, retryAfter)
	}

	var textContent string
	var toolCalls []engine.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			if block.Text != nil {
				textContent += *block.Text
			}
		case "tool_use":
			if block.MessageContentToolUse == nil || block.ID == "" || block.Name == "" {
				continue
			}
			args := make(map[string]any)
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					args = make(map[string]any)
				}
			}
			toolCalls = append(toolCalls, engine.ToolCall{
				ID:   block.ID,
				Name: block.Name,
				Args: args,
			})
		}
	}

	finishReason := "stop"
	switch {
	case len(toolCalls) > 0:
		finishReason = "tool_calls"
	case resp.StopReason == "max_tokens":
		finishReason = "length"
	case resp.StopReason == "content_filtered":
		finishReason = "content_filter"
	}

	return engine.LLMResponse{
		Assistant: engine.ChatMessage{
			Role:      engine.RoleAssistant,
			Content:   textContent,
			ToolCalls: toolCalls,
		},
		ToolCalls: toolCalls,
		Usage: engine.Usage{
			Prompt:     resp.Usage.InputTokens,
			Completion: resp.Usage.OutputTokens,
			Total:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
		FinishReason: finishReason,
	}, nil
}

// Stream implements engine.LLMClient. The SDK streams via callbacks;
// this adapts them to the channel contract.
func (c *AnthropicClient) Stream(ctx context.Context, model string, messages []engine.ChatMessage, toolSchemas []engine.ToolSchema, opts engine.ChatOptions) (<-chan engine.StreamEvent, <-chan error) {
	eventCh := make(chan engine.StreamEvent, 10)
	errCh := make(chan error, 1)

	go func() {
		defer close(eventCh)
		defer close(errCh)

		base, err := c.buildRequest(model, messages, toolSchemas, opts)
		if err != nil {
			errCh <- err
			return
		}
		req := anthropic.MessagesStreamRequest{MessagesRequest: base}

		req.OnError = func(errResp anthropic.ErrorResponse) {
			// CreateMessagesStream also returns this error; don't block
			// if it got there first.
			select {
			case errCh <- fmt.Errorf("anthropic streaming error: %s", errResp.Error.Message):
			default:
			}
		}

		req.OnContentBlockDelta = func(delta anthropic.MessagesEventContentBlockDeltaData) {
			if delta.Delta.Type == "text_delta" && delta.Delta.Text != nil {
				select {
				case eventCh <- engine.StreamEvent{Type: "text_delta", Text: *delta.Delta.Text}:
				case <-ctx.Done():
				}
			}
		}

		// Tool use blocks arrive whole at block stop.
		req.OnContentBlockStop = func(_ anthropic.MessagesEventContentBlockStopData, content anthropic.MessageContent) {
			if content.Type != "tool_use" || content.MessageContentToolUse == nil {
				return
			}
			tu := content.MessageContentToolUse
			args := make(map[string]any)
			if len(tu.Input) > 0 {
				if err := json.Unmarshal(tu.Input, &args); err != nil {
					args = make(map[string]any)
				}
			}
			select {
			case eventCh <- engine.StreamEvent{
				Type:     "tool_call",
				ToolCall: engine.ToolCall{ID: tu.ID, Name: tu.Name, Args: args},
			}:
			case <-ctx.Done():
			}
		}

		resp, err := c.client.CreateMessagesStream(ctx, req)
		if err != nil {
			httpStatus, retryAfter := extractErrorMetadata(err)
			select {
			case errCh <- engine.WrapLLMError(err, httpStatus, retryAfter):
			default:
			}
			return
		}

		if resp.Usage.InputTokens > 0 {
			select {
			case eventCh <- engine.StreamEvent{
				Type: "usage",
				Usage: engine.Usage{
					Prompt:     resp.Usage.InputTokens,
					Completion: resp.Usage.OutputTokens,
					Total:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
				},
			}:
			case <-ctx.Done():
			}
		}
	}()

	return eventCh, errCh
}
