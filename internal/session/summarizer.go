package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/dojo/internal/engine"
)

// Summarizer names and recaps sessions with a short backend call. Both
// calls are best-effort extras: the REPL ignores their errors so a
// dead backend never blocks saving.
type Summarizer struct {
	llm   engine.LLMClient
	model string
}

func NewSummarizer(llm engine.LLMClient, model string) *Summarizer {
	return &Summarizer{llm: llm, model: model}
}

// Title generates a 3-5 word lesson title from the opening exchange.
func (s *Summarizer) Title(ctx context.Context, transcript []engine.ChatMessage) (string, error) {
	if len(transcript) == 0 {
		return "New Lesson", nil
	}

	// The opening exchange is enough to name the lesson
	limit := 6
	if len(transcript) < limit {
		limit = len(transcript)
	}

	title, err := s.ask(ctx,
		"You name coding lessons. Generate a short title (3-5 words) for this tutoring session based on what the student asked to learn. No quotes, no punctuation.",
		fmt.Sprintf("Transcript:\n%s\n\nTitle:", renderTranscript(transcript[:limit])),
		20, 0.3)
	if err != nil {
		return "", fmt.Errorf("failed to generate title: %w", err)
	}
	return title, nil
}

// Recap generates a short study recap shown when the session is
// resumed: what the student practiced and where they left off.
func (s *Summarizer) Recap(ctx context.Context, transcript []engine.ChatMessage) (string, error) {
	if len(transcript) == 0 {
		return "", nil
	}

	recap, err := s.ask(ctx,
		"You are the memory of a coding tutor. Summarize this tutoring session for the next sitting. Focus on: what the student practiced, which files they built, what confused them, and a sensible next exercise. Be concise.",
		fmt.Sprintf("Summarize this session:\n\n%s", renderTranscript(transcript)),
		500, 0.1)
	if err != nil {
		return "", fmt.Errorf("failed to generate recap: %w", err)
	}
	return recap, nil
}

// ask runs one system+user exchange and returns the trimmed reply.
func (s *Summarizer) ask(ctx context.Context, system, user string, maxTokens int, temp float32) (string, error) {
	msgs := []engine.ChatMessage{
		{Role: engine.RoleSystem, Content: system},
		{Role: engine.RoleUser, Content: user},
	}
	resp, err := s.llm.Chat(ctx, s.model, msgs, nil, engine.ChatOptions{
		MaxOutputTokens: maxTokens,
		Temperature:     temp,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Assistant.Content), nil
}

// renderTranscript flattens messages into role-prefixed lines. Long
// replies are clipped; a recap needs shape, not every character.
func renderTranscript(msgs []engine.ChatMessage) string {
	var b strings.Builder
	for _, m := range msgs {
		content := m.Content
		if len(content) > 2000 {
			content = content[:2000] + "..."
		}
		fmt.Fprintf(&b, "[%s] %s\n", m.Role, content)
	}
	return b.String()
}
