package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/ChamsBouzaiene/dojo/internal/engine"
	"github.com/ChamsBouzaiene/dojo/internal/workspace"
)

const maxGlobResults = 100

func globImpl(walker *workspace.Walker, pattern string) (string, error) {
	// filepath.Match reports bad patterns on any input; probe once so a
	// broken pattern is an error instead of an empty result.
	if _, err := filepath.Match(pattern, "probe"); err != nil {
		return "", fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	paths := make([]string, 0, 16)
	for entry := range walker.Files() {
		baseOK, _ := filepath.Match(pattern, filepath.Base(entry.Path))
		relOK, _ := filepath.Match(pattern, entry.Path)
		if baseOK || relOK {
			paths = append(paths, entry.Path)
		}
	}
	sort.Strings(paths)

	truncated := false
	if len(paths) > maxGlobResults {
		paths = paths[:maxGlobResults]
		truncated = true
	}

	out, err := json.Marshal(map[string]any{
		"pattern":   pattern,
		"paths":     paths,
		"count":     len(paths),
		"truncated": truncated,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// NewGlobTool returns the glob tool. The pattern matches either the
// file name or the whole root-relative path.
func NewGlobTool(walker *workspace.Walker) engine.Tool {
	return engine.Tool{
		Name:        "glob",
		Description: "Lists workspace files matching a shell-style pattern, e.g. *.py or exercises/*.html.",
		SchemaJSON:  `{"type":"object","properties":{"pattern":{"type":"string","description":"Shell-style pattern matched against file names and relative paths"}},"required":["pattern"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			pattern, ok := args["pattern"].(string)
			if !ok {
				return "", fmt.Errorf("pattern must be a string")
			}
			return globImpl(walker, pattern)
		},
	}
}
