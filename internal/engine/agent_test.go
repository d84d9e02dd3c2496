package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/ChamsBouzaiene/dojo/internal/policy"
	"github.com/ChamsBouzaiene/dojo/internal/validate"
)

// scriptedClient plays back canned responses in order and records what
// the loop sent to the backend.
type scriptedClient struct {
	steps []scriptStep
	calls int
	seen  [][]ChatMessage
}

type scriptStep struct {
	resp LLMResponse
	err  error
}

func (c *scriptedClient) Chat(_ context.Context, _ string, messages []ChatMessage, _ []ToolSchema, _ ChatOptions) (LLMResponse, error) {
	snapshot := make([]ChatMessage, len(messages))
	copy(snapshot, messages)
	c.seen = append(c.seen, snapshot)

	if c.calls >= len(c.steps) {
		return LLMResponse{}, errors.New("script exhausted")
	}
	step := c.steps[c.calls]
	c.calls++
	return step.resp, step.err
}

func (c *scriptedClient) Stream(context.Context, string, []ChatMessage, []ToolSchema, ChatOptions) (<-chan StreamEvent, <-chan error) {
	events := make(chan StreamEvent)
	errs := make(chan error, 1)
	close(events)
	errs <- errors.New("stream not scripted")
	return events, errs
}

func textResponse(text string) LLMResponse {
	return LLMResponse{
		Assistant:    ChatMessage{Role: RoleAssistant, Content: text},
		FinishReason: "stop",
		Usage:        Usage{Prompt: 10, Completion: 5, Total: 15},
	}
}

func toolResponse(text string, calls ...ToolCall) LLMResponse {
	return LLMResponse{
		Assistant:    ChatMessage{Role: RoleAssistant, Content: text},
		ToolCalls:    calls,
		FinishReason: "tool_calls",
		Usage:        Usage{Prompt: 10, Completion: 5, Total: 15},
	}
}

// memWorkDir is an in-memory WorkDir.
type memWorkDir struct {
	files map[string][]byte
}

func newMemWorkDir() *memWorkDir {
	return &memWorkDir{files: make(map[string][]byte)}
}

func (m *memWorkDir) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *memWorkDir) WriteFile(path string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	m.files[path] = cp
	return nil
}

func (m *memWorkDir) Remove(path string) error {
	delete(m.files, path)
	return nil
}

func fakeWriteTool(work *memWorkDir) Tool {
	return Tool{
		Name:        "write",
		Description: "Write a file",
		SchemaJSON:  `{"type":"object","properties":{"path":{"type":"string"},"content":{"type":"string"}},"required":["path","content"]}`,
		Fn: func(_ context.Context, args map[string]any) (string, error) {
			path := args["path"].(string)
			content := args["content"].(string)
			status := "created"
			if _, err := work.ReadFile(path); err == nil {
				status = "overwritten"
			}
			if err := work.WriteFile(path, []byte(content)); err != nil {
				return "", err
			}
			out, _ := json.Marshal(FileResult{Path: path, Status: status, Bytes: len(content)})
			return string(out), nil
		},
	}
}

func fakeEditTool(work *memWorkDir) Tool {
	return Tool{
		Name:        "edit",
		Description: "Replace text in a file",
		SchemaJSON:  `{"type":"object","properties":{"path":{"type":"string"},"old_string":{"type":"string"},"new_string":{"type":"string"}},"required":["path","old_string","new_string"]}`,
		Fn: func(_ context.Context, args map[string]any) (string, error) {
			path := args["path"].(string)
			oldStr := args["old_string"].(string)
			newStr := args["new_string"].(string)
			data, err := work.ReadFile(path)
			if err != nil {
				return "", err
			}
			updated := strings.Replace(string(data), oldStr, newStr, 1)
			if err := work.WriteFile(path, []byte(updated)); err != nil {
				return "", err
			}
			out, _ := json.Marshal(FileResult{Path: path, Status: "edited", Bytes: len(updated)})
			return string(out), nil
		},
	}
}

func fakeReadTool() Tool {
	return Tool{
		Name:        "read",
		Description: "Read a file",
		SchemaJSON:  `{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`,
		Fn: func(_ context.Context, _ map[string]any) (string, error) {
			return "file contents", nil
		},
	}
}

func testProfile(t *testing.T, id string) policy.ModeProfile {
	t.Helper()
	profile, err := policy.Resolve(id)
	if err != nil {
		t.Fatalf("Resolve(%q): %v", id, err)
	}
	return profile
}

// fastRetry keeps backend retries out of test runtime.
func fastRetry() *RetryConfig {
	return &RetryConfig{BackendPolicy: RetryPolicy{MaxRetries: 0}}
}

func newTestAgent(t *testing.T, mode string, client LLMClient, reg ToolRegistry, work WorkDir, mutate func(*AgentConfig)) *Agent {
	t.Helper()
	cfg := DefaultAgentConfig()
	cfg.Model = "test-model"
	cfg.SystemPrompt = "You are a tutor."
	cfg.RetryConfig = fastRetry()
	if mutate != nil {
		mutate(&cfg)
	}
	return New(client, reg, testProfile(t, mode), work, cfg)
}

func historyContains(st *State, substr string) bool {
	for _, msg := range st.History {
		if strings.Contains(msg.Content, substr) {
			return true
		}
	}
	return false
}

func TestRunFinalAnswerPassesThrough(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{resp: textResponse("A variable is a name bound to a value.")},
	}}
	agent := newTestAgent(t, "python_basic", client, make(ToolRegistry), newMemWorkDir(), nil)

	reply, err := agent.Run(context.Background(), "what is a variable?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if reply != "A variable is a name bound to a value." {
		t.Errorf("reply = %q", reply)
	}

	st := agent.State()
	if st.Run != StateAwaitingInput {
		t.Errorf("state = %s, want %s", st.Run, StateAwaitingInput)
	}
	if st.Iterations != 1 {
		t.Errorf("iterations = %d, want 1", st.Iterations)
	}
	// system + user + assistant
	if len(st.History) != 3 {
		t.Fatalf("history length = %d, want 3", len(st.History))
	}
	if st.History[2].Role != RoleAssistant {
		t.Errorf("last message role = %s, want assistant", st.History[2].Role)
	}
	if st.Totals.Total != 15 {
		t.Errorf("totals = %d, want 15", st.Totals.Total)
	}
}

func TestRunCorrectsDisallowedImport(t *testing.T) {
	work := newMemWorkDir()
	client := &scriptedClient{steps: []scriptStep{
		{resp: toolResponse("Saving a script.", ToolCall{
			ID:   "call_1",
			Name: "write",
			Args: map[string]any{"path": "cwd.py", "content": "import os\nprint(os.getcwd())\n"},
		})},
		{resp: textResponse("Use pathlib.Path.cwd() instead; the os module is off the table here.")},
	}}
	reg := make(ToolRegistry)
	reg.Register(fakeWriteTool(work))
	agent := newTestAgent(t, "python_basic", client, reg, work, nil)

	reply, err := agent.Run(context.Background(), "show me the current directory")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(reply, "pathlib") {
		t.Errorf("reply = %q, want the corrected answer", reply)
	}
	if client.calls != 2 {
		t.Errorf("backend calls = %d, want 2", client.calls)
	}

	st := agent.State()
	if st.Retries != 1 {
		t.Errorf("retries = %d, want 1", st.Retries)
	}
	// The rejected response never reaches the conversation.
	if historyContains(st, "import os") {
		t.Error("rejected artifact leaked into history")
	}
	// The write tool never ran.
	if len(work.files) != 0 {
		t.Errorf("files written = %d, want 0", len(work.files))
	}
	// The retry request carried the correction message.
	if len(client.seen) != 2 {
		t.Fatalf("recorded requests = %d, want 2", len(client.seen))
	}
	second := client.seen[1]
	last := second[len(second)-1]
	if last.Role != RoleUser || !strings.Contains(last.Content, string(validate.KindDisallowedImport)) {
		t.Errorf("correction message missing from retry request: role=%s content=%q", last.Role, last.Content)
	}
}

func TestRunRetriesExhaustedGivesNotice(t *testing.T) {
	bad := toolResponse("Trying again.", ToolCall{
		ID:   "call_1",
		Name: "write",
		Args: map[string]any{"path": "cwd.py", "content": "import os\n"},
	})
	client := &scriptedClient{steps: []scriptStep{{resp: bad}, {resp: bad}, {resp: bad}}}
	work := newMemWorkDir()
	reg := make(ToolRegistry)
	reg.Register(fakeWriteTool(work))
	agent := newTestAgent(t, "python_basic", client, reg, work, nil)

	reply, err := agent.Run(context.Background(), "show me the current directory")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// initial + two corrections
	if client.calls != 3 {
		t.Errorf("backend calls = %d, want 3", client.calls)
	}
	if agent.State().Retries != 2 {
		t.Errorf("retries = %d, want 2", agent.State().Retries)
	}
	if !strings.Contains(reply, "rules") {
		t.Errorf("reply = %q, want a limitation notice", reply)
	}
	if len(work.files) != 0 {
		t.Error("rejected write reached the disk")
	}
}

func TestRunNudgesChatCodeIntoFile(t *testing.T) {
	work := newMemWorkDir()
	snippet := "Here you go:\n```python\nprint('hi')\n```\n"
	client := &scriptedClient{steps: []scriptStep{
		{resp: textResponse(snippet)},
		{resp: toolResponse("Saving it properly.", ToolCall{
			ID:   "call_1",
			Name: "write",
			Args: map[string]any{"path": "hello.py", "content": "print('hi')\n"},
		})},
		{resp: textResponse("Saved as hello.py; print writes to standard output.")},
	}}
	reg := make(ToolRegistry)
	reg.Register(fakeWriteTool(work))
	agent := newTestAgent(t, "python_basic", client, reg, work, nil)

	reply, err := agent.Run(context.Background(), "write hello world")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if client.calls != 3 {
		t.Errorf("backend calls = %d, want 3", client.calls)
	}
	if agent.State().Nudges != 1 {
		t.Errorf("nudges = %d, want 1", agent.State().Nudges)
	}
	if _, err := work.ReadFile("hello.py"); err != nil {
		t.Error("hello.py was not written after the nudge")
	}
	if !strings.Contains(reply, "Saved as hello.py") {
		t.Errorf("reply = %q", reply)
	}
	if !historyContains(agent.State(), "write tool") {
		t.Error("nudge message missing from history")
	}
}

func TestRunDeliversSnippetWhenNudgesExhausted(t *testing.T) {
	snippet := "```python\nprint('hi')\n```"
	client := &scriptedClient{steps: []scriptStep{
		{resp: textResponse(snippet)},
		{resp: textResponse(snippet)},
		{resp: textResponse(snippet)},
	}}
	agent := newTestAgent(t, "python_basic", client, make(ToolRegistry), newMemWorkDir(), nil)

	reply, err := agent.Run(context.Background(), "write hello world")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if client.calls != 3 {
		t.Errorf("backend calls = %d, want 3", client.calls)
	}
	if agent.State().Nudges != 2 {
		t.Errorf("nudges = %d, want 2", agent.State().Nudges)
	}
	if !strings.Contains(reply, "```") {
		t.Errorf("reply should be delivered as-is after nudges run out, got %q", reply)
	}
}

func TestRunBudgetExhausted(t *testing.T) {
	readCall := toolResponse("Looking around.", ToolCall{ID: "call_1", Name: "read", Args: map[string]any{"path": "hello.py"}})
	client := &scriptedClient{steps: []scriptStep{{resp: readCall}, {resp: readCall}}}
	reg := make(ToolRegistry)
	reg.Register(fakeReadTool())
	agent := newTestAgent(t, "python_basic", client, reg, newMemWorkDir(), func(cfg *AgentConfig) {
		cfg.Budget = 2
	})

	_, err := agent.Run(context.Background(), "explore the workspace")
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("err = %v, want ErrBudgetExhausted", err)
	}
	if agent.State().Run != StateBudgetExhausted {
		t.Errorf("state = %s, want %s", agent.State().Run, StateBudgetExhausted)
	}
	if client.calls != 2 {
		t.Errorf("backend calls = %d, want 2", client.calls)
	}

	// The budget outlives the turn: the next turn is refused without a
	// backend call.
	_, err = agent.Run(context.Background(), "try again")
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("second turn err = %v, want ErrBudgetExhausted", err)
	}
	if client.calls != 2 {
		t.Errorf("backend calls after second turn = %d, want 2", client.calls)
	}
}

func TestRunBackendFailureEndsTurnWithoutRetrySlot(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{err: errors.New("connection refused")},
	}}
	agent := newTestAgent(t, "python_basic", client, make(ToolRegistry), newMemWorkDir(), nil)

	_, err := agent.Run(context.Background(), "hello")
	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want *BackendError", err)
	}
	st := agent.State()
	if st.Retries != 0 {
		t.Errorf("retries = %d, want 0 (backend failures are not corrections)", st.Retries)
	}
	if st.Run != StateAwaitingInput {
		t.Errorf("state = %s, want %s", st.Run, StateAwaitingInput)
	}
}

func TestRunRefusesOffScopeInput(t *testing.T) {
	client := &scriptedClient{}
	agent := newTestAgent(t, "python_basic", client, make(ToolRegistry), newMemWorkDir(), nil)

	reply, err := agent.Run(context.Background(), "write me a java servlet")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(reply, "Java") {
		t.Errorf("refusal should name the topic, got %q", reply)
	}
	if client.calls != 0 {
		t.Errorf("backend calls = %d, want 0", client.calls)
	}
	// Refused input never enters the conversation.
	if len(agent.State().History) != 1 {
		t.Errorf("history length = %d, want 1 (system prompt only)", len(agent.State().History))
	}
}

func TestRunRejectsDisallowedToolBeforeExecution(t *testing.T) {
	bashCalled := false
	reg := make(ToolRegistry)
	reg.Register(Tool{
		Name:        "bash",
		Description: "Run a command",
		SchemaJSON:  `{"type":"object","properties":{"command":{"type":"string"}},"required":["command"]}`,
		Fn: func(_ context.Context, _ map[string]any) (string, error) {
			bashCalled = true
			return "{}", nil
		},
	})
	client := &scriptedClient{steps: []scriptStep{
		{resp: toolResponse("Checking something.", ToolCall{ID: "call_1", Name: "bash", Args: map[string]any{"command": "ls"}})},
		{resp: textResponse("A-Frame scenes are plain HTML; there is no shell here.")},
	}}
	agent := newTestAgent(t, "aframe", client, reg, newMemWorkDir(), nil)

	reply, err := agent.Run(context.Background(), "list the files")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if bashCalled {
		t.Error("bash ran despite being outside the mode's grant")
	}
	if agent.State().Retries != 1 {
		t.Errorf("retries = %d, want 1", agent.State().Retries)
	}
	if !strings.Contains(reply, "A-Frame") {
		t.Errorf("reply = %q", reply)
	}
}

func TestRunRollsBackViolatingEdit(t *testing.T) {
	work := newMemWorkDir()
	original := strings.Repeat("x = 1\n", 48)
	if err := work.WriteFile("hello.py", []byte(original)); err != nil {
		t.Fatal(err)
	}

	// The fragment is fine on its own; the merged file crosses the line
	// limit. Only the post-write check can see that.
	client := &scriptedClient{steps: []scriptStep{
		{resp: toolResponse("Extending the script.", ToolCall{
			ID:   "call_1",
			Name: "edit",
			Args: map[string]any{
				"path":       "hello.py",
				"old_string": "x = 1\n",
				"new_string": strings.Repeat("y = 2\n", 6),
			},
		})},
		{resp: textResponse("That change would make the file too long; let's trim something first.")},
	}}
	reg := make(ToolRegistry)
	reg.Register(fakeEditTool(work))
	agent := newTestAgent(t, "python_basic", client, reg, work, nil)

	reply, err := agent.Run(context.Background(), "add more assignments")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(reply, "too long") {
		t.Errorf("reply = %q", reply)
	}

	data, err := work.ReadFile("hello.py")
	if err != nil {
		t.Fatalf("hello.py vanished: %v", err)
	}
	if string(data) != original {
		t.Error("file was not rolled back to its original content")
	}
	if agent.State().Retries != 1 {
		t.Errorf("retries = %d, want 1", agent.State().Retries)
	}
	// Neither the edit call nor its result may linger in history.
	if historyContains(agent.State(), "edited") {
		t.Error("rolled-back tool result leaked into history")
	}
}

func TestResetRestoresBudgetAndHistory(t *testing.T) {
	readCall := toolResponse("Looking.", ToolCall{ID: "call_1", Name: "read", Args: map[string]any{"path": "a.py"}})
	client := &scriptedClient{steps: []scriptStep{
		{resp: readCall},
		{resp: textResponse("Fresh start. What shall we build?")},
	}}
	reg := make(ToolRegistry)
	reg.Register(fakeReadTool())
	agent := newTestAgent(t, "python_basic", client, reg, newMemWorkDir(), func(cfg *AgentConfig) {
		cfg.Budget = 1
	})

	if _, err := agent.Run(context.Background(), "explore"); !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("expected budget exhaustion, got %v", err)
	}

	agent.Reset()
	st := agent.State()
	if st.Iterations != 0 || st.Turn != 0 {
		t.Errorf("counters not cleared: iterations=%d turn=%d", st.Iterations, st.Turn)
	}
	if len(st.History) != 1 || st.History[0].Role != RoleSystem {
		t.Errorf("history not reset, len=%d", len(st.History))
	}

	reply, err := agent.Run(context.Background(), "hello again")
	if err != nil {
		t.Fatalf("Run after reset: %v", err)
	}
	if !strings.Contains(reply, "Fresh start") {
		t.Errorf("reply = %q", reply)
	}
}

// recorderHook captures the order of loop events.
type recorderHook struct {
	NopHook
	events *[]string
}

func (h recorderHook) OnTurnStart(context.Context, *State, string) { *h.events = append(*h.events, "turn_start") }
func (h recorderHook) OnBeforeLLM(context.Context, *State, []ChatMessage, []ToolSchema) {
	*h.events = append(*h.events, "before_llm")
}
func (h recorderHook) OnValidation(_ context.Context, _ *State, _ validate.Artifact, res validate.Result) {
	*h.events = append(*h.events, fmt.Sprintf("validation_ok=%t", res.OK()))
}
func (h recorderHook) OnCorrection(context.Context, *State, int, validate.Result) {
	*h.events = append(*h.events, "correction")
}
func (h recorderHook) OnTurnEnd(context.Context, *State, string) { *h.events = append(*h.events, "turn_end") }

func TestHooksObserveCorrectionFlow(t *testing.T) {
	var events []string
	client := &scriptedClient{steps: []scriptStep{
		{resp: toolResponse("Saving.", ToolCall{
			ID:   "call_1",
			Name: "write",
			Args: map[string]any{"path": "a.py", "content": "import subprocess\n"},
		})},
		{resp: textResponse("Let's stick to the standard toolkit.")},
	}}
	work := newMemWorkDir()
	reg := make(ToolRegistry)
	reg.Register(fakeWriteTool(work))

	cfg := DefaultAgentConfig()
	cfg.Model = "test-model"
	cfg.SystemPrompt = "You are a tutor."
	cfg.RetryConfig = fastRetry()
	agent := New(client, reg, testProfile(t, "python_basic"), work, cfg, recorderHook{events: &events})

	if _, err := agent.Run(context.Background(), "run a shell command from python"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"turn_start",
		"before_llm", "validation_ok=false", "correction",
		"before_llm", "validation_ok=true",
		"turn_end",
	}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}
