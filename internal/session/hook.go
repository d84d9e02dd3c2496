package session

import (
	"context"

	"github.com/ChamsBouzaiene/dojo/internal/engine"
	"github.com/ChamsBouzaiene/dojo/internal/validate"
	"github.com/rs/zerolog"
)

// Recorder is an engine hook that appends loop events to the store. A
// failed append is logged and dropped; persistence trouble must not
// break the conversation.
type Recorder struct {
	engine.NopHook
	store    *Store
	id       string
	research bool
	log      zerolog.Logger
}

// NewRecorder records into the given session. research turns on
// storage of full rejected artifacts.
func NewRecorder(store *Store, sessionID string, research bool, log zerolog.Logger) *Recorder {
	return &Recorder{store: store, id: sessionID, research: research, log: log}
}

func (r *Recorder) record(ctx context.Context, kind Kind, payload any) {
	if err := r.store.Append(ctx, r.id, kind, payload); err != nil {
		r.log.Warn().Err(err).Str("kind", string(kind)).Msg("session record dropped")
	}
}

func (r *Recorder) OnTurnStart(ctx context.Context, st *engine.State, input string) {
	r.record(ctx, KindUserInput, UserInputPayload{Turn: st.Turn, Input: input})
}

func (r *Recorder) OnToolCall(ctx context.Context, st *engine.State, call engine.ToolCall) {
	r.record(ctx, KindToolCall, ToolCallPayload{Turn: st.Turn, Name: call.Name, Args: call.Args})
}

func (r *Recorder) OnToolResult(ctx context.Context, st *engine.State, call engine.ToolCall, result string, err error) {
	p := ToolResultPayload{Turn: st.Turn, Name: call.Name, Result: clip(result, 4096)}
	if err != nil {
		p.Error = err.Error()
	}
	r.record(ctx, KindToolResult, p)
}

func (r *Recorder) OnValidation(ctx context.Context, st *engine.State, art validate.Artifact, res validate.Result) {
	if res.OK() {
		return
	}
	r.record(ctx, KindViolation, ViolationPayload{Turn: st.Turn, Violations: res.Violations})
	if r.research {
		r.record(ctx, KindRejectedArtifact, RejectedArtifactPayload{
			Turn:       st.Turn,
			Artifact:   art,
			Violations: res.Violations,
		})
	}
}

func (r *Recorder) OnCorrection(ctx context.Context, st *engine.State, attempt int, res validate.Result) {
	kinds := res.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	r.record(ctx, KindCorrection, CorrectionPayload{Turn: st.Turn, Attempt: attempt, Kinds: names})
}

func (r *Recorder) OnNudge(ctx context.Context, st *engine.State, count int) {
	r.record(ctx, KindNudge, NudgePayload{Turn: st.Turn, Count: count})
}

func (r *Recorder) OnScopeRefusal(ctx context.Context, st *engine.State, input, topic string) {
	r.record(ctx, KindScopeRefusal, ScopeRefusalPayload{Turn: st.Turn, Input: input, Topic: topic})
}

func (r *Recorder) OnBudgetExhausted(ctx context.Context, st *engine.State) {
	r.record(ctx, KindBudget, BudgetPayload{Turn: st.Turn, Iterations: st.Iterations, Budget: st.Budget})
}

func (r *Recorder) OnTurnEnd(ctx context.Context, st *engine.State, reply string) {
	r.record(ctx, KindAssistant, AssistantPayload{
		Turn:       st.Turn,
		Reply:      reply,
		Iterations: st.Iterations,
		Retries:    st.Retries,
		Nudges:     st.Nudges,
	})
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
