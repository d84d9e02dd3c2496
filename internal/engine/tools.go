package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ChamsBouzaiene/dojo/internal/policy"
)

type ToolFunc func(ctx context.Context, args map[string]any) (string, error)

type Tool struct {
	Name        string
	Description string
	SchemaJSON  string
	Fn          ToolFunc
}

// ValidateArgs validates the provided arguments against the tool's JSON schema.
func (t Tool) ValidateArgs(args map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(t.SchemaJSON)
	documentLoader := gojsonschema.NewGoLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		var errorMsgs []string
		for _, err := range result.Errors() {
			errorMsgs = append(errorMsgs, err.String())
		}
		return &ToolValidationError{
			ToolName: t.Name,
			Errors:   errorMsgs,
		}
	}

	return nil
}

// ToolRegistry holds the tools built for one session. It is
// constructed from the mode profile at startup and never mutated
// afterwards, so a tool outside the mode's grant simply does not
// exist here.
type ToolRegistry map[string]Tool

// Register adds a tool, overwriting any previous one with the same name.
func (r ToolRegistry) Register(t Tool) {
	r[t.Name] = t
}

// Names returns the registered tool names, sorted.
func (r ToolRegistry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns the tool schemas in name order, so the prompt the
// model sees is stable across runs.
func (r ToolRegistry) Schemas() []ToolSchema {
	s := make([]ToolSchema, 0, len(r))
	for _, name := range r.Names() {
		t := r[name]
		s = append(s, ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			JSONSchema:  t.SchemaJSON,
		})
	}
	return s
}

// Dispatch runs one tool call. The mode grant is checked first, before
// argument validation and before the tool function runs: a disallowed
// tool is refused without any side effect, even if it somehow slipped
// past the registry and the response check.
func (r ToolRegistry) Dispatch(ctx context.Context, call ToolCall, profile policy.ModeProfile) (string, error) {
	if !profile.AllowsTool(call.Name) {
		return "", &DisallowedToolError{Tool: call.Name, Mode: profile.ID}
	}

	t, ok := r[call.Name]
	if !ok {
		return "", fmt.Errorf("tool not found: %s (available: %s)", call.Name, strings.Join(r.Names(), ", "))
	}

	if err := t.ValidateArgs(call.Args); err != nil {
		return "", err
	}

	return t.Fn(ctx, call.Args)
}
