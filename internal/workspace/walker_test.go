package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/ChamsBouzaiene/dojo/internal/policy"
)

// buildTree creates files under a fresh temp root. Keys are relative
// paths; parent directories are created as needed.
func buildTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

func collectPaths(t *testing.T, w *Walker) []string {
	t.Helper()
	var paths []string
	for entry := range w.Files() {
		paths = append(paths, entry.Path)
	}
	sort.Strings(paths)
	return paths
}

func TestWalkerSkipsDefaultIgnores(t *testing.T) {
	root := buildTree(t, map[string]string{
		"main.py":                  "print('hi')\n",
		"pages/index.html":         "<html></html>\n",
		"node_modules/pkg/x.js":    "junk\n",
		"__pycache__/main.cpython": "junk\n",
		".git/config":              "junk\n",
	})

	w, err := NewWalker(root)
	if err != nil {
		t.Fatalf("NewWalker: %v", err)
	}

	got := collectPaths(t, w)
	want := []string{"main.py", filepath.Join("pages", "index.html")}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("path %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWalkerHonorsGitignore(t *testing.T) {
	root := buildTree(t, map[string]string{
		".gitignore":     "*.log\nscratch/\n",
		"main.py":        "print('hi')\n",
		"debug.log":      "noise\n",
		"scratch/tmp.py": "x = 1\n",
	})

	w, err := NewWalker(root)
	if err != nil {
		t.Fatalf("NewWalker: %v", err)
	}

	for _, p := range collectPaths(t, w) {
		if p == "debug.log" || filepath.Dir(p) == "scratch" {
			t.Errorf("ignored path leaked: %s", p)
		}
	}
}

func TestWalkerStopsWhenConsumerBreaks(t *testing.T) {
	root := buildTree(t, map[string]string{
		"a.py": "1\n", "b.py": "2\n", "c.py": "3\n", "d.py": "4\n",
	})

	w, err := NewWalker(root)
	if err != nil {
		t.Fatalf("NewWalker: %v", err)
	}

	n := 0
	for range w.Files() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("consumed %d entries after break at 2", n)
	}
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name   string
		files  map[string]string
		want   policy.Family
		wantOK bool
	}{
		{
			name:   "python workspace",
			files:  map[string]string{"main.py": "x\n", "util.py": "y\n"},
			want:   policy.FamilyPython,
			wantOK: true,
		},
		{
			name:   "web workspace",
			files:  map[string]string{"index.html": "<p>\n", "style.css": "p{}\n"},
			want:   policy.FamilyWeb,
			wantOK: true,
		},
		{
			name:   "mixed workspace",
			files:  map[string]string{"main.py": "x\n", "index.html": "<p>\n"},
			wantOK: false,
		},
		{
			name:   "empty workspace",
			files:  map[string]string{},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := buildTree(t, tt.files)
			got, ok := DetectKind(root)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("family = %s, want %s", got, tt.want)
			}
		})
	}
}
