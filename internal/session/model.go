// Package session persists dojo sessions and their event records in a
// local SQLite database. One session is one tutoring conversation; its
// records are an append-only log of everything the loop did, detailed
// enough to replay the visible transcript or audit what the gate
// rejected.
package session

import (
	"encoding/json"
	"time"

	"github.com/ChamsBouzaiene/dojo/internal/validate"
)

// Kind tags one record in the session log.
type Kind string

const (
	KindUserInput     Kind = "user_input"
	KindAssistant     Kind = "assistant"
	KindToolCall      Kind = "tool_call"
	KindToolResult    Kind = "tool_result"
	KindViolation     Kind = "violation"
	KindCorrection    Kind = "correction"
	KindNudge         Kind = "nudge"
	KindBudget        Kind = "budget"
	KindScopeRefusal  Kind = "scope_refusal"
	KindArtifactEvent Kind = "artifact_event"
	KindMetricsFinal  Kind = "metrics_final"

	// KindRejectedArtifact stores full rejected model output. Written
	// only when the session runs in research mode; normal sessions keep
	// the violation summary and discard the artifact itself.
	KindRejectedArtifact Kind = "rejected_artifact"
)

// Session is the durable header of one conversation. Title and Recap
// are filled lazily by the Summarizer; both may stay empty when the
// backend is unreachable at save time.
type Session struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Model     string    `json:"model"`
	Provider  string    `json:"provider"`
	RootPath  string    `json:"root_path"`
	Research  bool      `json:"research,omitempty"`
	Title     string    `json:"title,omitempty"`
	Recap     string    `json:"recap,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Meta is a lightweight session row for listing.
type Meta struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Model     string    `json:"model"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Turns     int       `json:"turns"`
	Records   int       `json:"records"`
}

// Record is one appended event. Payload stays raw JSON so readers can
// decode only the kinds they care about.
type Record struct {
	Seq       int64           `json:"seq"`
	SessionID string          `json:"session_id"`
	Kind      Kind            `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Payload shapes for the kinds the recorder writes. Readers decode
// with these; writers may pass any JSON-marshalable value to Append.

type UserInputPayload struct {
	Turn  int    `json:"turn"`
	Input string `json:"input"`
}

type AssistantPayload struct {
	Turn       int    `json:"turn"`
	Reply      string `json:"reply"`
	Iterations int    `json:"iterations"`
	Retries    int    `json:"retries"`
	Nudges     int    `json:"nudges"`
}

type ToolCallPayload struct {
	Turn int            `json:"turn"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResultPayload struct {
	Turn   int    `json:"turn"`
	Name   string `json:"name"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

type ViolationPayload struct {
	Turn       int                  `json:"turn"`
	Violations []validate.Violation `json:"violations"`
}

type CorrectionPayload struct {
	Turn    int      `json:"turn"`
	Attempt int      `json:"attempt"`
	Kinds   []string `json:"kinds"`
}

type NudgePayload struct {
	Turn  int `json:"turn"`
	Count int `json:"count"`
}

type BudgetPayload struct {
	Turn       int `json:"turn"`
	Iterations int `json:"iterations"`
	Budget     int `json:"budget"`
}

type ScopeRefusalPayload struct {
	Turn  int    `json:"turn"`
	Input string `json:"input"`
	Topic string `json:"topic"`
}

// ArtifactEventPayload mirrors one workspace file change noticed by
// the tracker, so a session log shows what actually landed on disk.
type ArtifactEventPayload struct {
	Path string `json:"path"`
	Op   string `json:"op"`
	Size int64  `json:"size,omitempty"`
}

type RejectedArtifactPayload struct {
	Turn       int                  `json:"turn"`
	Artifact   validate.Artifact    `json:"artifact"`
	Violations []validate.Violation `json:"violations"`
}
