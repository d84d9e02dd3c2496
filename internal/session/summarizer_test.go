package session

import (
	"context"
	"strings"
	"testing"

	"github.com/ChamsBouzaiene/dojo/internal/engine"
)

// canned implements engine.LLMClient with a fixed reply.
type canned struct {
	response string
	seen     []engine.ChatMessage
}

func (c *canned) Chat(ctx context.Context, model string, messages []engine.ChatMessage, toolSchemas []engine.ToolSchema, opts engine.ChatOptions) (engine.LLMResponse, error) {
	c.seen = messages
	return engine.LLMResponse{
		Assistant: engine.ChatMessage{Role: engine.RoleAssistant, Content: c.response},
	}, nil
}

func (c *canned) Stream(ctx context.Context, model string, messages []engine.ChatMessage, toolSchemas []engine.ToolSchema, opts engine.ChatOptions) (<-chan engine.StreamEvent, <-chan error) {
	return nil, nil
}

func TestSummarizerTitle(t *testing.T) {
	llm := &canned{response: "  Python Loop Basics \n"}
	s := NewSummarizer(llm, "test-model")

	transcript := []engine.ChatMessage{
		{Role: engine.RoleUser, Content: "teach me for loops"},
		{Role: engine.RoleAssistant, Content: "saved to loops.py"},
	}

	title, err := s.Title(context.Background(), transcript)
	if err != nil {
		t.Fatalf("Title: %v", err)
	}
	if title != "Python Loop Basics" {
		t.Errorf("Title = %q", title)
	}
	if len(llm.seen) != 2 {
		t.Fatalf("prompt had %d messages, want system+user", len(llm.seen))
	}
	if !strings.Contains(llm.seen[1].Content, "teach me for loops") {
		t.Errorf("prompt did not include the transcript: %q", llm.seen[1].Content)
	}
}

func TestSummarizerTitleEmptyTranscript(t *testing.T) {
	s := NewSummarizer(&canned{response: "unused"}, "test-model")
	title, err := s.Title(context.Background(), nil)
	if err != nil {
		t.Fatalf("Title: %v", err)
	}
	if title != "New Lesson" {
		t.Errorf("Title = %q, want default", title)
	}
}

func TestSummarizerRecap(t *testing.T) {
	llm := &canned{response: "Practiced for loops; built loops.py; next try while loops."}
	s := NewSummarizer(llm, "test-model")

	transcript := []engine.ChatMessage{
		{Role: engine.RoleUser, Content: "teach me for loops"},
		{Role: engine.RoleAssistant, Content: "saved to loops.py"},
	}

	recap, err := s.Recap(context.Background(), transcript)
	if err != nil {
		t.Fatalf("Recap: %v", err)
	}
	if !strings.Contains(recap, "for loops") {
		t.Errorf("Recap = %q", recap)
	}
}

func TestSummarizerRecapEmptyTranscript(t *testing.T) {
	s := NewSummarizer(&canned{response: "unused"}, "test-model")
	recap, err := s.Recap(context.Background(), nil)
	if err != nil {
		t.Fatalf("Recap: %v", err)
	}
	if recap != "" {
		t.Errorf("Recap = %q, want empty", recap)
	}
}
