package providers

import (
	"strings"
	"testing"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/ChamsBouzaiene/dojo/internal/engine"
)

func TestConvertMessagesSeparatesSystem(t *testing.T) {
	msgs, system := convertMessages([]engine.ChatMessage{
		{Role: engine.RoleSystem, Content: "you are a tutor"},
		{Role: engine.RoleUser, Content: "teach me loops"},
	})

	if system != "you are a tutor" {
		t.Fatalf("system = %q", system)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 wire message, got %d", len(msgs))
	}
	if msgs[0].Role != openai.ChatMessageRoleUser || msgs[0].Content != "teach me loops" {
		t.Errorf("unexpected user message: %+v", msgs[0])
	}
}

func TestConvertMessagesEmptyAssistantContent(t *testing.T) {
	msgs, _ := convertMessages([]engine.ChatMessage{
		{Role: engine.RoleUser, Content: "hi"},
		{Role: engine.RoleAssistant, Content: "", ToolCalls: []engine.ToolCall{
			{ID: "call_1", Name: "read", Args: map[string]any{"path": "main.py"}},
		}},
	})

	if len(msgs) != 2 {
		t.Fatalf("expected 2 wire messages, got %d", len(msgs))
	}
	if msgs[1].Content != " " {
		t.Errorf("empty assistant content should become a space, got %q", msgs[1].Content)
	}
	if len(msgs[1].ToolCalls) != 1 || msgs[1].ToolCalls[0].ID != "call_1" {
		t.Errorf("tool calls not carried: %+v", msgs[1].ToolCalls)
	}
}

func TestConvertMessagesDropsOrphanToolResults(t *testing.T) {
	msgs, _ := convertMessages([]engine.ChatMessage{
		{Role: engine.RoleUser, Content: "hi"},
		{Role: engine.RoleAssistant, Content: "no tools here"},
		{Role: engine.RoleTool, Name: "call_9", Content: `{"ok":true}`},
	})

	for _, m := range msgs {
		if m.Role == openai.ChatMessageRoleTool {
			t.Fatalf("orphan tool result should have been dropped: %+v", m)
		}
	}
}

func TestConvertMessagesKeepsToolResultAfterToolCall(t *testing.T) {
	msgs, _ := convertMessages([]engine.ChatMessage{
		{Role: engine.RoleUser, Content: "hi"},
		{Role: engine.RoleAssistant, ToolCalls: []engine.ToolCall{
			{ID: "call_2", Name: "write", Args: map[string]any{}},
		}},
		{Role: engine.RoleTool, Name: "call_2", Content: ""},
	})

	last := msgs[len(msgs)-1]
	if last.Role != openai.ChatMessageRoleTool {
		t.Fatalf("expected tool message last, got %+v", last)
	}
	if last.ToolCallID != "call_2" {
		t.Errorf("ToolCallID = %q, want call_2", last.ToolCallID)
	}
	if last.Content != "{}" {
		t.Errorf("empty tool content should become {}, got %q", last.Content)
	}
}

func TestConvertToolsRejectsBadSchema(t *testing.T) {
	_, err := convertTools([]engine.ToolSchema{
		{Name: "broken", Description: "x", JSONSchema: "{not json"},
	})
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Fatalf("expected schema error naming the tool, got %v", err)
	}
}

func TestExtractErrorMetadata(t *testing.T) {
	tests := []struct {
		name       string
		errStr     string
		wantStatus int
		wantRetry  string
	}{
		{"rate limited", "error, status code: 429, message: rate limited, retry-after: 7", 429, "7"},
		{"server error", "error, status code: 500, message: boom", 500, ""},
		{"retry after words", "too many requests (429), retry after 12s", 429, "12s"},
		{"plain failure", "connection refused", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, retry := extractErrorMetadata(errString(tt.errStr))
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if retry != tt.wantRetry {
				t.Errorf("retry = %q, want %q", retry, tt.wantRetry)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }
