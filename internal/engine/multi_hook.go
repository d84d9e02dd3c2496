package engine

import (
	"context"
	"time"

	"github.com/ChamsBouzaiene/dojo/internal/validate"
)

// Hooks fans out to every hook in order.
type Hooks []Hook

func (hs Hooks) OnTurnStart(ctx context.Context, st *State, input string) {
	for _, h := range hs {
		h.OnTurnStart(ctx, st, input)
	}
}
func (hs Hooks) OnBeforeLLM(ctx context.Context, st *State, m []ChatMessage, schemas []ToolSchema) {
	for _, h := range hs {
		h.OnBeforeLLM(ctx, st, m, schemas)
	}
}
func (hs Hooks) OnAfterLLM(ctx context.Context, st *State, r LLMResponse) {
	for _, h := range hs {
		h.OnAfterLLM(ctx, st, r)
	}
}
func (hs Hooks) OnToolCall(ctx context.Context, st *State, c ToolCall) {
	for _, h := range hs {
		h.OnToolCall(ctx, st, c)
	}
}
func (hs Hooks) OnToolResult(ctx context.Context, st *State, c ToolCall, s string, e error) {
	for _, h := range hs {
		h.OnToolResult(ctx, st, c, s, e)
	}
}
func (hs Hooks) OnValidation(ctx context.Context, st *State, art validate.Artifact, res validate.Result) {
	for _, h := range hs {
		h.OnValidation(ctx, st, art, res)
	}
}
func (hs Hooks) OnCorrection(ctx context.Context, st *State, attempt int, res validate.Result) {
	for _, h := range hs {
		h.OnCorrection(ctx, st, attempt, res)
	}
}
func (hs Hooks) OnNudge(ctx context.Context, st *State, count int) {
	for _, h := range hs {
		h.OnNudge(ctx, st, count)
	}
}
func (hs Hooks) OnScopeRefusal(ctx context.Context, st *State, input, topic string) {
	for _, h := range hs {
		h.OnScopeRefusal(ctx, st, input, topic)
	}
}
func (hs Hooks) OnBudgetExhausted(ctx context.Context, st *State) {
	for _, h := range hs {
		h.OnBudgetExhausted(ctx, st)
	}
}
func (hs Hooks) OnRetryAttempt(ctx context.Context, st *State, attempt int, maxAttempts int, delay time.Duration, err error) {
	for _, h := range hs {
		h.OnRetryAttempt(ctx, st, attempt, maxAttempts, delay, err)
	}
}
func (hs Hooks) OnRetryExhausted(ctx context.Context, st *State, err error) {
	for _, h := range hs {
		h.OnRetryExhausted(ctx, st, err)
	}
}
func (hs Hooks) OnTurnEnd(ctx context.Context, st *State, reply string) {
	for _, h := range hs {
		h.OnTurnEnd(ctx, st, reply)
	}
}
