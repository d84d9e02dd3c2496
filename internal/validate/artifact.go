// Package validate decides whether one model response is acceptable
// under the active mode. It never mutates anything: the loop hands it
// a decomposed artifact, it hands back every rule the artifact breaks.
package validate

import (
	"regexp"
	"strings"
)

// File is one proposed file in an artifact. Partial marks edit
// fragments, where only the changed text is known; size checks do not
// apply to those, content checks do.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Partial bool   `json:"partial,omitempty"`
}

// Artifact is one model response decomposed for validation: the files
// it wants to create or change, the fenced code blocks in its prose,
// and the tools it asked to run. Artifacts are transient; they live
// for one validation pass and the audit record.
type Artifact struct {
	Files    []File   `json:"files,omitempty"`
	Snippets []string `json:"snippets,omitempty"`
	Tools    []string `json:"tools,omitempty"`
}

// Empty reports whether the artifact proposes nothing checkable.
func (a Artifact) Empty() bool {
	return len(a.Files) == 0 && len(a.Snippets) == 0 && len(a.Tools) == 0
}

// fencedRe captures ```lang\n...\n``` blocks, language tag optional.
var fencedRe = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)\n(.*?)```")

// CodeBlock is a fenced block lifted out of assistant prose.
type CodeBlock struct {
	Lang string
	Body string
}

// ExtractCodeBlocks pulls fenced code blocks out of markdown-ish text.
// Unterminated fences are ignored rather than guessed at.
func ExtractCodeBlocks(text string) []CodeBlock {
	matches := fencedRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	blocks := make([]CodeBlock, 0, len(matches))
	for _, m := range matches {
		body := strings.TrimSuffix(m[2], "\n")
		if strings.TrimSpace(body) == "" {
			continue
		}
		blocks = append(blocks, CodeBlock{Lang: strings.ToLower(m[1]), Body: body})
	}
	return blocks
}
