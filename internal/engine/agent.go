// Package engine drives the gated tutoring loop: one user turn in, one
// validated reply out, with corrections, nudges and budget enforcement
// in between. The loop never shows the user a response that failed the
// mode's checks.
package engine

import (
	"context"
	"strings"

	"github.com/ChamsBouzaiene/dojo/internal/policy"
	"github.com/ChamsBouzaiene/dojo/internal/prompts"
)

// Agent drives one tutoring session: one mode, one model, one
// conversation. All methods belong to the REPL goroutine; nothing here
// is safe for concurrent use, and nothing needs to be.
type Agent struct {
	llm     LLMClient
	tools   ToolRegistry
	profile policy.ModeProfile
	work    WorkDir
	config  AgentConfig
	hooks   Hooks
	state   *State
}

// New builds an agent for the given mode. The registry must already be
// restricted to the mode's tools; New does not filter it. work may be
// nil, in which case written files are not re-checked after execution.
func New(llm LLMClient, tools ToolRegistry, profile policy.ModeProfile, work WorkDir, cfg AgentConfig, hooks ...Hook) *Agent {
	if cfg.Budget <= 0 {
		cfg.Budget = DefaultIterationBudget
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.MaxNudges < 0 {
		cfg.MaxNudges = DefaultMaxNudges
	}

	a := &Agent{
		llm:     llm,
		tools:   tools,
		profile: profile,
		work:    work,
		config:  cfg,
		hooks:   Hooks(hooks),
	}
	a.state = a.freshState()
	return a
}

func (a *Agent) freshState() *State {
	st := &State{
		Run:        StateAwaitingInput,
		Budget:     a.config.Budget,
		MaxRetries: a.config.MaxRetries,
		MaxNudges:  a.config.MaxNudges,
		Model:      a.config.Model,
	}
	if a.config.SystemPrompt != "" {
		st.Append(ChatMessage{Role: RoleSystem, Content: a.config.SystemPrompt})
	}
	return st
}

// State exposes the session state read-only, for the REPL and tests.
func (a *Agent) State() *State { return a.state }

// Profile returns the active mode profile.
func (a *Agent) Profile() policy.ModeProfile { return a.profile }

// Reset starts the conversation over: history back to just the system
// prompt, counters zeroed, full iteration budget restored.
func (a *Agent) Reset() {
	a.state = a.freshState()
}

// Seed appends a previously recorded conversation after the system
// prompt, so a resumed session picks up where it stopped. Call it
// before the first Run; turn numbering continues past the seeded
// history.
func (a *Agent) Seed(history []ChatMessage) {
	for _, msg := range history {
		a.state.Append(msg)
		if msg.Role == RoleUser {
			a.state.Turn++
		}
	}
}

// Run executes one user turn and returns the reply to show. Off-scope
// requests are refused with a canned message before any backend call.
// A returned ErrBudgetExhausted ends the turn, not the session; a
// *BackendError means the model backend was unreachable and the input
// should be retried by the user.
func (a *Agent) Run(ctx context.Context, input string) (string, error) {
	st := a.state
	input = strings.TrimSpace(input)

	if ok, topic := policy.CheckScope(input); !ok {
		a.hooks.OnScopeRefusal(ctx, st, input, topic)
		return prompts.ScopeRefusal(topic), nil
	}

	st.Turn++
	st.Retries = 0
	st.Nudges = 0
	st.Done = false
	a.hooks.OnTurnStart(ctx, st, input)
	st.Append(ChatMessage{Role: RoleUser, Content: input})

	reply, err := a.runTurn(ctx)
	if st.Run != StateBudgetExhausted {
		st.Run = StateAwaitingInput
	}
	if err != nil {
		return "", err
	}
	a.hooks.OnTurnEnd(ctx, st, reply)
	return reply, nil
}
