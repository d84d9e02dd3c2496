// engine/hook_logger.go
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChamsBouzaiene/dojo/internal/validate"
)

// LoggerHook writes structured loop events. Debug level carries the
// chatty per-iteration detail; rejections and retries log at warn so
// they stand out in a default run.
type LoggerHook struct{ L zerolog.Logger }

func (h LoggerHook) OnTurnStart(_ context.Context, st *State, input string) {
	h.L.Debug().
		Int("turn", st.Turn).
		Int("budget_left", st.BudgetLeft()).
		Int("input_len", len(input)).
		Msg("turn start")
}

func (h LoggerHook) OnBeforeLLM(_ context.Context, st *State, msgs []ChatMessage, toolSchemas []ToolSchema) {
	h.L.Debug().
		Int("iteration", st.Iterations).
		Int("messages", len(msgs)).
		Int("tools", len(toolSchemas)).
		Str("model", st.Model).
		Msg("backend call")
}

func (h LoggerHook) OnAfterLLM(_ context.Context, st *State, r LLMResponse) {
	h.L.Debug().
		Str("finish", r.FinishReason).
		Int("prompt_tokens", r.Usage.Prompt).
		Int("completion_tokens", r.Usage.Completion).
		Int("cumulative_tokens", st.Totals.Total).
		Int("tool_calls", len(r.ToolCalls)).
		Msg("backend response")
}

func (h LoggerHook) OnToolCall(_ context.Context, _ *State, c ToolCall) {
	h.L.Debug().Str("tool", c.Name).Interface("args", c.Args).Msg("tool call")
}

func (h LoggerHook) OnToolResult(_ context.Context, _ *State, c ToolCall, result string, err error) {
	if err != nil {
		h.L.Warn().Str("tool", c.Name).Err(err).Msg("tool failed")
		return
	}
	preview := result
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	h.L.Debug().Str("tool", c.Name).Str("result", preview).Msg("tool result")
}

func (h LoggerHook) OnValidation(_ context.Context, st *State, art validate.Artifact, res validate.Result) {
	if res.OK() {
		h.L.Debug().
			Int("files", len(art.Files)).
			Int("snippets", len(art.Snippets)).
			Msg("response accepted")
		return
	}
	ev := h.L.Warn().Int("violations", len(res.Violations))
	for i, v := range res.Violations {
		if i >= 5 {
			break
		}
		ev = ev.Str(string(v.Kind), v.Detail)
	}
	ev.Msg("response rejected")
}

func (h LoggerHook) OnCorrection(_ context.Context, st *State, attempt int, res validate.Result) {
	h.L.Warn().
		Int("attempt", attempt).
		Int("max", st.MaxRetries).
		Strs("kinds", kindStrings(res)).
		Msg("correction requested")
}

func (h LoggerHook) OnNudge(_ context.Context, st *State, count int) {
	h.L.Info().Int("nudge", count).Int("max", st.MaxNudges).Msg("nudged model to use write tool")
}

func (h LoggerHook) OnScopeRefusal(_ context.Context, _ *State, _ string, topic string) {
	h.L.Info().Str("topic", topic).Msg("request refused as off-scope")
}

func (h LoggerHook) OnBudgetExhausted(_ context.Context, st *State) {
	h.L.Warn().Int("iterations", st.Iterations).Int("budget", st.Budget).Msg("iteration budget exhausted")
}

func (h LoggerHook) OnRetryAttempt(_ context.Context, _ *State, attempt int, maxAttempts int, delay time.Duration, err error) {
	h.L.Warn().
		Int("attempt", attempt).
		Int("max", maxAttempts).
		Dur("delay", delay).
		Err(err).
		Msg("backend retry")
}

func (h LoggerHook) OnRetryExhausted(_ context.Context, _ *State, err error) {
	h.L.Error().Err(err).Msg("backend retries exhausted")
}

func (h LoggerHook) OnTurnEnd(_ context.Context, st *State, reply string) {
	h.L.Debug().
		Int("turn", st.Turn).
		Int("iterations", st.Iterations).
		Int("retries", st.Retries).
		Int("reply_len", len(reply)).
		Msg("turn end")
}

func kindStrings(res validate.Result) []string {
	kinds := res.Kinds()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
