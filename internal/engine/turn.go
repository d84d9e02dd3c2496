package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ChamsBouzaiene/dojo/internal/prompts"
	"github.com/ChamsBouzaiene/dojo/internal/validate"
)

// runTurn drives the loop until a reply is produced or the turn dies.
// Every pass is a full generate/check cycle; corrections and nudges
// just feed the next pass.
func (a *Agent) runTurn(ctx context.Context) (string, error) {
	st := a.state
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		// The budget gates every backend call, corrections included.
		if st.Iterations >= st.Budget {
			st.Run = StateBudgetExhausted
			a.hooks.OnBudgetExhausted(ctx, st)
			return "", ErrBudgetExhausted
		}

		reply, done, err := a.iterate(ctx)
		if err != nil {
			return "", err
		}
		if done {
			return reply, nil
		}
	}
}

// iterate runs one generate/validate/act cycle.
func (a *Agent) iterate(ctx context.Context) (string, bool, error) {
	st := a.state

	st.Run = StateGenerating
	st.Iterations++
	resp, err := a.generate(ctx)
	if err != nil {
		// The backend failing is not the model misbehaving: no
		// correction slot is spent, the turn just ends.
		return "", false, &BackendError{Err: err}
	}

	st.Run = StateValidating
	art := Decompose(resp)
	res := validate.Validate(a.profile, art)
	a.hooks.OnValidation(ctx, st, art, res)
	if !res.OK() {
		return a.reject(ctx, res)
	}

	if len(resp.ToolCalls) == 0 {
		// Code belongs in files. A chat-only reply that carries a
		// fenced block gets a reminder and another chance.
		if len(art.Snippets) > 0 && st.Nudges < st.MaxNudges {
			st.Nudges++
			st.Append(assistantMessage(resp))
			st.Append(ChatMessage{Role: RoleUser, Content: prompts.Nudge(a.profile)})
			a.hooks.OnNudge(ctx, st, st.Nudges)
			return "", false, nil
		}
		st.Append(assistantMessage(resp))
		st.Done = true
		return resp.Assistant.Content, true, nil
	}

	st.Run = StateExecuting
	return a.execute(ctx, resp)
}

// generate performs one backend call with retries.
func (a *Agent) generate(ctx context.Context) (LLMResponse, error) {
	st := a.state
	msgs := make([]ChatMessage, len(st.History))
	copy(msgs, st.History)
	schemas := a.tools.Schemas()
	a.hooks.OnBeforeLLM(ctx, st, msgs, schemas)

	rp := a.config.retryPolicy()
	resp, err := RetryBackendCall(ctx, rp, a.llm, st.Model, msgs, schemas, a.config.chatOptions(),
		func(attempt int, delay time.Duration, err error) {
			a.hooks.OnRetryAttempt(ctx, st, attempt, rp.MaxRetries, delay, err)
		})
	if err != nil {
		if IsRetryExhausted(err) {
			a.hooks.OnRetryExhausted(ctx, st, err)
		}
		return LLMResponse{}, err
	}

	st.AddUsage(resp.Usage)
	a.hooks.OnAfterLLM(ctx, st, resp)
	return resp, nil
}

// reject handles a response that failed the checks. The response is
// dropped before it reaches History or the user; either a correction
// round starts, or the turn ends with a limitation notice.
func (a *Agent) reject(ctx context.Context, res validate.Result) (string, bool, error) {
	st := a.state
	if st.Retries >= st.MaxRetries {
		notice := prompts.LimitationNotice(a.profile)
		st.Append(ChatMessage{Role: RoleAssistant, Content: notice})
		st.Done = true
		return notice, true, nil
	}
	st.Retries++
	st.Run = StateCorrecting
	st.Append(ChatMessage{Role: RoleUser, Content: validate.CorrectionMessage(a.profile, res)})
	a.hooks.OnCorrection(ctx, st, st.Retries, res)
	return "", false, nil
}

// execute runs the accepted tool calls in order, then re-checks what
// actually landed on disk. Only after the post-check passes do the
// assistant message and tool results enter History.
func (a *Agent) execute(ctx context.Context, resp LLMResponse) (string, bool, error) {
	st := a.state

	snaps := a.snapshot(resp.ToolCalls)

	type callResult struct {
		call    ToolCall
		content string
	}
	results := make([]callResult, 0, len(resp.ToolCalls))
	var written []FileResult

	for _, call := range resp.ToolCalls {
		a.hooks.OnToolCall(ctx, st, call)
		out, err := a.tools.Dispatch(ctx, call, a.profile)
		a.hooks.OnToolResult(ctx, st, call, out, err)

		content := out
		if err != nil {
			content = "ERROR: " + err.Error()
		}
		results = append(results, callResult{call: call, content: content})

		if err == nil && isFileTool(call.Name) {
			var fr FileResult
			if jsonErr := json.Unmarshal([]byte(out), &fr); jsonErr == nil && fr.Touched() {
				written = append(written, fr)
			}
		}
	}

	// Edits are checked as fragments before execution; only the merged
	// file tells the whole story. A violating result is rolled back and
	// treated exactly like a rejected response.
	if len(written) > 0 && a.work != nil {
		post := a.writtenArtifact(written)
		postRes := validate.Validate(a.profile, post)
		if !postRes.OK() {
			a.rollback(snaps, written)
			a.hooks.OnValidation(ctx, st, post, postRes)
			return a.reject(ctx, postRes)
		}
	}

	st.Append(assistantMessage(resp))
	for _, r := range results {
		name := r.call.ID
		if name == "" {
			name = r.call.Name
		}
		st.Append(ChatMessage{Role: RoleTool, Name: name, Content: r.content})
	}
	return "", false, nil
}

type fileSnapshot struct {
	data    []byte
	existed bool
}

// snapshot captures the prior state of every path a write or edit call
// names, so a failed post-check can put things back.
func (a *Agent) snapshot(calls []ToolCall) map[string]fileSnapshot {
	if a.work == nil {
		return nil
	}
	snaps := make(map[string]fileSnapshot)
	for _, call := range calls {
		if !isFileTool(call.Name) {
			continue
		}
		path, _ := call.Args["path"].(string)
		if path == "" {
			continue
		}
		if _, ok := snaps[path]; ok {
			continue
		}
		if data, err := a.work.ReadFile(path); err == nil {
			snaps[path] = fileSnapshot{data: data, existed: true}
		} else {
			snaps[path] = fileSnapshot{existed: false}
		}
	}
	return snaps
}

// rollback restores every touched path to its pre-execution state.
func (a *Agent) rollback(snaps map[string]fileSnapshot, written []FileResult) {
	for _, fr := range written {
		snap, ok := snaps[fr.Path]
		if !ok {
			continue
		}
		if snap.existed {
			_ = a.work.WriteFile(fr.Path, snap.data)
		} else {
			_ = a.work.Remove(fr.Path)
		}
	}
}

// writtenArtifact reads back the files the tools reported touching.
func (a *Agent) writtenArtifact(written []FileResult) validate.Artifact {
	var art validate.Artifact
	seen := make(map[string]bool)
	for _, fr := range written {
		if fr.Path == "" || seen[fr.Path] {
			continue
		}
		seen[fr.Path] = true
		data, err := a.work.ReadFile(fr.Path)
		if err != nil {
			continue
		}
		art.Files = append(art.Files, validate.File{Path: fr.Path, Content: string(data)})
	}
	return art
}

func isFileTool(name string) bool {
	return name == "write" || name == "edit"
}

func assistantMessage(resp LLMResponse) ChatMessage {
	msg := resp.Assistant
	msg.Role = RoleAssistant
	msg.ToolCalls = resp.ToolCalls
	return msg
}
