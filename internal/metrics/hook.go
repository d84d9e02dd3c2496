package metrics

import (
	"context"

	"github.com/ChamsBouzaiene/dojo/internal/engine"
	"github.com/ChamsBouzaiene/dojo/internal/validate"
)

// Hook feeds the collector from loop events. Concept counting is not
// wired here; the curriculum tracker owns that and calls AddConcepts
// itself after inspecting accepted turns.
type Hook struct {
	engine.NopHook
	c *Collector
}

func NewHook(c *Collector) *Hook {
	return &Hook{c: c}
}

func (h *Hook) OnAfterLLM(ctx context.Context, st *engine.State, resp engine.LLMResponse) {
	h.c.AddIteration()
	h.c.AddTokens(resp.Usage.Prompt, resp.Usage.Completion)
}

func (h *Hook) OnToolCall(ctx context.Context, st *engine.State, call engine.ToolCall) {
	h.c.AddToolCall(call.Name)
}

func (h *Hook) OnValidation(ctx context.Context, st *engine.State, art validate.Artifact, res validate.Result) {
	for _, v := range res.Violations {
		h.c.AddViolation(string(v.Kind))
	}
}

func (h *Hook) OnCorrection(ctx context.Context, st *engine.State, attempt int, res validate.Result) {
	h.c.AddRetry()
}

func (h *Hook) OnNudge(ctx context.Context, st *engine.State, count int) {
	h.c.AddNudge()
}

func (h *Hook) OnScopeRefusal(ctx context.Context, st *engine.State, input, topic string) {
	h.c.AddScopeRefusal()
}
