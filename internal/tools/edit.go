package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ChamsBouzaiene/dojo/internal/engine"
	"github.com/ChamsBouzaiene/dojo/internal/security"
)

// editImpl replaces old with new exactly once. Zero matches and
// multiple matches both fail without touching the file; an edit that
// cannot be located precisely must not be guessed at.
func editImpl(gate *security.Gate, path, oldString, newString string) (string, error) {
	if err := gate.CheckPath(path); err != nil {
		return "", err
	}
	abs, err := gate.Resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return marshalFileResult(engine.FileResult{
			Path:   path,
			Status: "failed",
			Error:  fmt.Sprintf("failed to read file: %v", err),
		})
	}
	content := string(data)

	if oldString == newString {
		return marshalFileResult(engine.FileResult{
			Path:   path,
			Status: "failed",
			Error:  "old_string and new_string are identical, nothing to change",
		})
	}

	count := strings.Count(content, oldString)
	if count == 0 {
		hint := ""
		normalizedContent := strings.Join(strings.Fields(content), " ")
		normalizedOld := strings.Join(strings.Fields(oldString), " ")
		if strings.Contains(normalizedContent, normalizedOld) {
			hint = " The text exists with different whitespace; the file indents with " + detectIndentation(content) + "."
		}
		return marshalFileResult(engine.FileResult{
			Path:   path,
			Status: "failed",
			Error:  "old_string not found in file. Read the file and copy the exact text." + hint,
		})
	}
	if count > 1 {
		return marshalFileResult(engine.FileResult{
			Path:   path,
			Status: "failed",
			Error: fmt.Sprintf("ambiguous (%d matches)%s: include more surrounding context in old_string so it matches exactly once",
				count, matchLineHint(content, oldString)),
		})
	}

	updated := strings.Replace(content, oldString, newString, 1)
	if err := os.WriteFile(abs, []byte(updated), 0o644); err != nil {
		return marshalFileResult(engine.FileResult{
			Path:   path,
			Status: "failed",
			Error:  fmt.Sprintf("failed to write file: %v", err),
		})
	}

	return marshalFileResult(engine.FileResult{
		Path:   path,
		Status: "edited",
		Bytes:  len(updated),
		Lines:  countLines(updated),
	})
}

// matchLineHint names the lines whose first line looks like the target,
// capped at five so the hint stays short.
func matchLineHint(content, oldString string) string {
	first := strings.TrimSpace(strings.SplitN(oldString, "\n", 2)[0])
	if first == "" {
		return ""
	}
	var lineNums []int
	for i, line := range strings.Split(content, "\n") {
		if strings.Contains(line, first) {
			lineNums = append(lineNums, i+1)
			if len(lineNums) == 5 {
				break
			}
		}
	}
	if len(lineNums) == 0 {
		return ""
	}
	return fmt.Sprintf(" near lines %v", lineNums)
}

func detectIndentation(content string) string {
	if strings.Contains(content, "\t") {
		return "tabs"
	}
	if strings.Contains(content, "    ") {
		return "4 spaces"
	}
	if strings.Contains(content, "  ") {
		return "2 spaces"
	}
	return "unknown indentation"
}

// NewEditTool returns the edit tool: exact-string replacement that must
// match exactly once.
func NewEditTool(gate *security.Gate) engine.Tool {
	return engine.Tool{
		Name:        "edit",
		Description: "Replaces an exact string in a file once. old_string must appear exactly one time; read the file first and copy the text verbatim, including indentation.",
		SchemaJSON:  `{"type":"object","properties":{"path":{"type":"string","description":"Path relative to the working root"},"old_string":{"type":"string","description":"Exact text to replace"},"new_string":{"type":"string","description":"Replacement text"}},"required":["path","old_string","new_string"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			path, ok := args["path"].(string)
			if !ok {
				return "", fmt.Errorf("path must be a string")
			}
			oldString, ok := args["old_string"].(string)
			if !ok {
				return "", fmt.Errorf("old_string must be a string")
			}
			newString, ok := args["new_string"].(string)
			if !ok {
				return "", fmt.Errorf("new_string must be a string")
			}
			return editImpl(gate, path, oldString, newString)
		},
	}
}
