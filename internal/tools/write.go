package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ChamsBouzaiene/dojo/internal/engine"
	"github.com/ChamsBouzaiene/dojo/internal/security"
)

func writeImpl(gate *security.Gate, path, content string) (string, error) {
	if err := gate.CheckPath(path); err != nil {
		return "", err
	}
	abs, err := gate.Resolve(path)
	if err != nil {
		return "", err
	}

	// Identical content is a no-op; "skipped" keeps the loop from
	// re-validating a file that did not change.
	if prev, err := os.ReadFile(abs); err == nil && string(prev) == content {
		return marshalFileResult(engine.FileResult{
			Path:   path,
			Status: "skipped",
			Bytes:  len(content),
			Lines:  countLines(content),
		})
	}

	exists := false
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		exists = true
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return marshalFileResult(engine.FileResult{
			Path:   path,
			Status: "failed",
			Error:  fmt.Sprintf("failed to create directory: %v", err),
		})
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return marshalFileResult(engine.FileResult{
			Path:   path,
			Status: "failed",
			Error:  fmt.Sprintf("failed to write file: %v", err),
		})
	}

	status := "created"
	if exists {
		status = "overwritten"
	}
	return marshalFileResult(engine.FileResult{
		Path:   path,
		Status: status,
		Bytes:  len(content),
		Lines:  countLines(content),
	})
}

// NewWriteTool returns the write tool. The gate refuses paths outside
// the working root and extensions outside the mode before anything
// touches disk.
func NewWriteTool(gate *security.Gate) engine.Tool {
	return engine.Tool{
		Name:        "write",
		Description: "Writes complete file contents to the working directory. Creates new files or overwrites existing ones. Use edit to change part of an existing file.",
		SchemaJSON:  `{"type":"object","properties":{"path":{"type":"string","description":"Path relative to the working root"},"content":{"type":"string","description":"The complete content to write"}},"required":["path","content"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			path, ok := args["path"].(string)
			if !ok {
				return "", fmt.Errorf("path must be a string")
			}
			content, ok := args["content"].(string)
			if !ok {
				return "", fmt.Errorf("content must be a string")
			}
			return writeImpl(gate, path, content)
		},
	}
}

func marshalFileResult(fr engine.FileResult) (string, error) {
	out, err := json.Marshal(fr)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(out), nil
}

func countLines(content string) int {
	return strings.Count(content, "\n") + 1
}
