package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ChamsBouzaiene/dojo/internal/engine"
	"github.com/ChamsBouzaiene/dojo/internal/workspace"
)

const (
	maxGrepMatches  = 50
	maxGrepLineLen  = 200
	maxGrepFileSize = 1 << 20
)

type grepMatch struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

func grepImpl(walker *workspace.Walker, pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid pattern: %w", err)
	}

	matches := make([]grepMatch, 0, 16)
	truncated := false
	for entry := range walker.Files() {
		if entry.Size > maxGrepFileSize {
			continue
		}
		data, err := os.ReadFile(filepath.Join(walker.Root(), entry.Path))
		if err != nil || bytes.IndexByte(data, 0) >= 0 {
			continue // unreadable or binary
		}
		for i, line := range strings.Split(string(data), "\n") {
			if !re.MatchString(line) {
				continue
			}
			text := strings.TrimSpace(line)
			if len(text) > maxGrepLineLen {
				text = text[:maxGrepLineLen]
			}
			matches = append(matches, grepMatch{Path: entry.Path, Line: i + 1, Text: text})
			if len(matches) >= maxGrepMatches {
				truncated = true
				break
			}
		}
		if truncated {
			break
		}
	}

	out, err := json.Marshal(map[string]any{
		"pattern":   pattern,
		"matches":   matches,
		"count":     len(matches),
		"truncated": truncated,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// NewGrepTool returns the grep tool: a regex scan over the workspace
// files the walker yields, so ignored directories never show up.
func NewGrepTool(walker *workspace.Walker) engine.Tool {
	return engine.Tool{
		Name:        "grep",
		Description: "Searches workspace files with a regular expression and returns matching lines with their locations.",
		SchemaJSON:  `{"type":"object","properties":{"pattern":{"type":"string","description":"Go regular expression to search for"}},"required":["pattern"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			pattern, ok := args["pattern"].(string)
			if !ok {
				return "", fmt.Errorf("pattern must be a string")
			}
			return grepImpl(walker, pattern)
		},
	}
}
