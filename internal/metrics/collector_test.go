package metrics

import (
	"context"
	"strings"
	"testing"

	"github.com/ChamsBouzaiene/dojo/internal/engine"
	"github.com/ChamsBouzaiene/dojo/internal/validate"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()
	c.AddIteration()
	c.AddIteration()
	c.AddRetry()
	c.AddNudge()
	c.AddScopeRefusal()
	c.AddTokens(100, 40)
	c.AddTokens(50, 10)
	c.AddViolation("disallowed_import")
	c.AddViolation("disallowed_import")
	c.AddViolation("line_limit_exceeded")
	c.AddToolCall("write")
	c.AddConcepts(3)

	snap := c.Snapshot()
	if snap.Iterations != 2 {
		t.Errorf("Iterations = %d", snap.Iterations)
	}
	if snap.Retries != 1 || snap.Nudges != 1 || snap.ScopeRefusals != 1 {
		t.Errorf("counters = %+v", snap)
	}
	if snap.TokensIn != 150 || snap.TokensOut != 50 {
		t.Errorf("tokens = %d in / %d out", snap.TokensIn, snap.TokensOut)
	}
	if snap.Violations["disallowed_import"] != 2 || snap.Violations["line_limit_exceeded"] != 1 {
		t.Errorf("violations = %v", snap.Violations)
	}
	if snap.ToolCalls["write"] != 1 {
		t.Errorf("tool calls = %v", snap.ToolCalls)
	}
	if snap.ConceptsTaught != 3 {
		t.Errorf("concepts = %d", snap.ConceptsTaught)
	}
}

func TestSnapshotMapsAreCopies(t *testing.T) {
	c := NewCollector()
	c.AddViolation("forbidden_pattern")

	snap := c.Snapshot()
	snap.Violations["forbidden_pattern"] = 99

	if got := c.Snapshot().Violations["forbidden_pattern"]; got != 1 {
		t.Errorf("collector mutated through snapshot: %d", got)
	}
}

func TestHookFeedsCollector(t *testing.T) {
	c := NewCollector()
	h := NewHook(c)
	ctx := context.Background()
	st := &engine.State{Turn: 1}

	h.OnAfterLLM(ctx, st, engine.LLMResponse{Usage: engine.Usage{Prompt: 80, Completion: 20}})
	h.OnToolCall(ctx, st, engine.ToolCall{Name: "write"})
	h.OnToolCall(ctx, st, engine.ToolCall{Name: "read"})
	h.OnValidation(ctx, st, validate.Artifact{}, validate.Result{Violations: []validate.Violation{
		{Kind: validate.KindLanguageMixing, Detail: "java in a python lesson"},
	}})
	h.OnCorrection(ctx, st, 1, validate.Result{})
	h.OnNudge(ctx, st, 1)
	h.OnScopeRefusal(ctx, st, "write me a keylogger", "keylogger")

	snap := c.Snapshot()
	if snap.Iterations != 1 {
		t.Errorf("Iterations = %d", snap.Iterations)
	}
	if snap.TokensIn != 80 || snap.TokensOut != 20 {
		t.Errorf("tokens = %d/%d", snap.TokensIn, snap.TokensOut)
	}
	if snap.ToolCalls["write"] != 1 || snap.ToolCalls["read"] != 1 {
		t.Errorf("tool calls = %v", snap.ToolCalls)
	}
	if snap.Violations["language_mixing"] != 1 {
		t.Errorf("violations = %v", snap.Violations)
	}
	if snap.Retries != 1 || snap.Nudges != 1 || snap.ScopeRefusals != 1 {
		t.Errorf("counters = %+v", snap)
	}
}

func TestSnapshotDisplay(t *testing.T) {
	c := NewCollector()
	c.AddIteration()
	c.AddTokens(120, 30)
	c.AddViolation("chat_code_block")
	c.AddToolCall("write")
	c.AddToolCall("write")

	out := c.Snapshot().Display()
	for _, want := range []string{
		"Iterations : 1",
		"Tokens     : 120 in / 30 out",
		"chat_code_block: 1",
		"write: 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("display missing %q:\n%s", want, out)
		}
	}
}

func TestSnapshotDisplayOmitsEmptyMaps(t *testing.T) {
	out := NewCollector().Snapshot().Display()
	if strings.Contains(out, "Violations") || strings.Contains(out, "Tool calls") {
		t.Errorf("empty sections rendered:\n%s", out)
	}
}

func TestHookIgnoresCleanValidation(t *testing.T) {
	c := NewCollector()
	h := NewHook(c)

	h.OnValidation(context.Background(), &engine.State{}, validate.Artifact{}, validate.Result{})

	if len(c.Snapshot().Violations) != 0 {
		t.Errorf("clean validation counted: %v", c.Snapshot().Violations)
	}
}
