// engine/hooks.go
package engine

import (
	"context"
	"time"

	"github.com/ChamsBouzaiene/dojo/internal/validate"
)

// Hook observes the loop. Hooks must not mutate State; they exist for
// logging, session recording and metrics. Everything the checks reject
// flows through OnValidation, so a recorder sees artifacts the user
// never does.
type Hook interface {
	OnTurnStart(ctx context.Context, st *State, input string)
	OnBeforeLLM(ctx context.Context, st *State, messages []ChatMessage, toolSchemas []ToolSchema)
	OnAfterLLM(ctx context.Context, st *State, resp LLMResponse)
	OnToolCall(ctx context.Context, st *State, call ToolCall)
	OnToolResult(ctx context.Context, st *State, call ToolCall, result string, err error)
	OnValidation(ctx context.Context, st *State, art validate.Artifact, res validate.Result)
	OnCorrection(ctx context.Context, st *State, attempt int, res validate.Result)
	OnNudge(ctx context.Context, st *State, count int)
	OnScopeRefusal(ctx context.Context, st *State, input, topic string)
	OnBudgetExhausted(ctx context.Context, st *State)
	// Retry hooks
	OnRetryAttempt(ctx context.Context, st *State, attempt int, maxAttempts int, delay time.Duration, err error)
	OnRetryExhausted(ctx context.Context, st *State, err error)
	OnTurnEnd(ctx context.Context, st *State, reply string)
}

// NopHook lets you implement only the hooks you need.
type NopHook struct{}

func (NopHook) OnTurnStart(context.Context, *State, string)                             {}
func (NopHook) OnBeforeLLM(context.Context, *State, []ChatMessage, []ToolSchema)        {}
func (NopHook) OnAfterLLM(context.Context, *State, LLMResponse)                         {}
func (NopHook) OnToolCall(context.Context, *State, ToolCall)                            {}
func (NopHook) OnToolResult(context.Context, *State, ToolCall, string, error)           {}
func (NopHook) OnValidation(context.Context, *State, validate.Artifact, validate.Result) {
}
func (NopHook) OnCorrection(context.Context, *State, int, validate.Result)          {}
func (NopHook) OnNudge(context.Context, *State, int)                                {}
func (NopHook) OnScopeRefusal(context.Context, *State, string, string)              {}
func (NopHook) OnBudgetExhausted(context.Context, *State)                           {}
func (NopHook) OnRetryAttempt(context.Context, *State, int, int, time.Duration, error) {
}
func (NopHook) OnRetryExhausted(context.Context, *State, error) {}
func (NopHook) OnTurnEnd(context.Context, *State, string)       {}
