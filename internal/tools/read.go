package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ChamsBouzaiene/dojo/internal/engine"
	"github.com/ChamsBouzaiene/dojo/internal/security"
)

// maxReadBytes caps one read result. Lesson files stay far below this;
// the cap matters when a student points dojo at a folder with big files.
const maxReadBytes = 50 * 1024

const readTruncationMarker = "\n... [truncated: only the first 50KB is shown]"

func readImpl(gate *security.Gate, path string) (string, error) {
	if err := gate.CheckPath(path); err != nil {
		return "", err
	}
	abs, err := gate.Resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("file not found: %s", path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	content := string(data)
	truncated := false
	if len(content) > maxReadBytes {
		content = content[:maxReadBytes] + readTruncationMarker
		truncated = true
	}

	result := map[string]any{
		"path":      path,
		"content":   content,
		"lines":     strings.Count(string(data), "\n") + 1,
		"truncated": truncated,
	}
	out, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// NewReadTool returns the read tool. Paths go through the gate, so only
// files inside the working root with a mode-allowed extension are
// readable.
func NewReadTool(gate *security.Gate) engine.Tool {
	return engine.Tool{
		Name:        "read",
		Description: "Reads a file from the working directory. Provide the path relative to the working root.",
		SchemaJSON:  `{"type":"object","properties":{"path":{"type":"string","description":"Path relative to the working root"}},"required":["path"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			path, ok := args["path"].(string)
			if !ok {
				return "", fmt.Errorf("path must be a string")
			}
			return readImpl(gate, path)
		},
	}
}
