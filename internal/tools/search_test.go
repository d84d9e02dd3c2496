package tools

import (
	"strings"
	"testing"
)

func TestGrepFindsMatches(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.py", "def greet():\n    print('hi')\n")
	writeTestFile(t, root, "sub/b.py", "def farewell():\n    print('bye')\n")
	writeTestFile(t, root, "notes.md", "no functions here\n")

	raw, err := grepImpl(testWalker(t, root), `def \w+`)
	if err != nil {
		t.Fatalf("grepImpl: %v", err)
	}
	got := unmarshalResult(t, raw)
	if got["count"] != float64(2) {
		t.Fatalf("count = %v, want 2\n%s", got["count"], raw)
	}

	matches := got["matches"].([]any)
	first := matches[0].(map[string]any)
	if first["path"] != "a.py" || first["line"] != float64(1) {
		t.Errorf("first match = %v", first)
	}
	if !strings.Contains(first["text"].(string), "def greet") {
		t.Errorf("text = %v", first["text"])
	}
}

func TestGrepInvalidPattern(t *testing.T) {
	if _, err := grepImpl(testWalker(t, t.TempDir()), "(unclosed"); err == nil {
		t.Error("expected an error for a broken pattern")
	}
}

func TestGrepCapsMatches(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "many.py", strings.Repeat("x = 1\n", 80))

	raw, err := grepImpl(testWalker(t, root), "x = 1")
	if err != nil {
		t.Fatalf("grepImpl: %v", err)
	}
	got := unmarshalResult(t, raw)
	if got["count"] != float64(maxGrepMatches) {
		t.Errorf("count = %v, want %d", got["count"], maxGrepMatches)
	}
	if got["truncated"] != true {
		t.Error("truncated = false after hitting the cap")
	}
}

func TestGrepClipsLongLines(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "long.py", "start"+strings.Repeat("y", 500)+"\n")

	raw, err := grepImpl(testWalker(t, root), "start")
	if err != nil {
		t.Fatalf("grepImpl: %v", err)
	}
	got := unmarshalResult(t, raw)
	matches := got["matches"].([]any)
	text := matches[0].(map[string]any)["text"].(string)
	if len(text) != maxGrepLineLen {
		t.Errorf("text length = %d, want %d", len(text), maxGrepLineLen)
	}
}

func TestGlobMatchesBaseAndPath(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "b.py", "x\n")
	writeTestFile(t, root, "a.py", "x\n")
	writeTestFile(t, root, "index.html", "<p>hi</p>\n")
	writeTestFile(t, root, "sub/c.py", "x\n")

	tests := []struct {
		pattern string
		want    []string
	}{
		{"*.py", []string{"a.py", "b.py", "sub/c.py"}},
		{"*.html", []string{"index.html"}},
		{"sub/*.py", []string{"sub/c.py"}},
		{"*.rs", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			raw, err := globImpl(testWalker(t, root), tt.pattern)
			if err != nil {
				t.Fatalf("globImpl: %v", err)
			}
			got := unmarshalResult(t, raw)
			paths := got["paths"].([]any)
			if len(paths) != len(tt.want) {
				t.Fatalf("paths = %v, want %v", paths, tt.want)
			}
			for i, p := range paths {
				if p != tt.want[i] {
					t.Errorf("paths[%d] = %v, want %v", i, p, tt.want[i])
				}
			}
		})
	}
}

func TestGlobInvalidPattern(t *testing.T) {
	if _, err := globImpl(testWalker(t, t.TempDir()), "[unclosed"); err == nil {
		t.Error("expected an error for a broken pattern")
	}
}
