// Package workspace knows the student's working directory: walking it
// with gitignore rules, watching it for the files the tutor actually
// produces, and guessing a starting mode family from what's already
// there.
package workspace

import (
	"bufio"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// defaultIgnorePatterns are skipped even without a .gitignore. Tutor
// workspaces are small, but students point dojo at real folders too.
var defaultIgnorePatterns = []string{
	".git",
	"node_modules",
	"__pycache__",
	".venv",
	"venv",
	"dist",
	"build",
	".cache",
	".idea",
	".vscode",
	".DS_Store",
}

// maxWalkFiles bounds a single walk. Anything that large is not a
// student workspace and grep/glob results would be useless anyway.
const maxWalkFiles = 10000

// Entry is one regular file found under the root.
type Entry struct {
	Path string // relative to the walker root
	Size int64
}

// Walker enumerates workspace files, honoring the root .gitignore plus
// the default ignore set. Symlinks are never followed.
type Walker struct {
	root   string
	ignore gitignore.IgnoreParser
}

// NewWalker builds a walker for root. A missing or unreadable
// .gitignore is not an error; the defaults still apply.
func NewWalker(root string) (*Walker, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	patterns := make([]string, 0, len(defaultIgnorePatterns)+8)
	patterns = append(patterns, defaultIgnorePatterns...)
	if lines, err := readGitignoreLines(filepath.Join(abs, ".gitignore")); err == nil {
		patterns = append(patterns, lines...)
	}

	return &Walker{
		root:   abs,
		ignore: gitignore.CompileIgnoreLines(patterns...),
	}, nil
}

// Root returns the absolute walker root.
func (w *Walker) Root() string {
	return w.root
}

var errStopWalk = errors.New("walk stopped")

// Files yields root-relative paths of regular files in walk order. The
// sequence is lazy: consumers that stop early (grep hitting its match
// cap) stop the underlying walk too.
func (w *Walker) Files() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		n := 0
		filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable entries are skipped, not fatal
			}
			rel, err := filepath.Rel(w.root, path)
			if err != nil || rel == "." {
				return nil
			}
			if w.ignore.MatchesPath(rel) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || d.Type()&os.ModeSymlink != 0 {
				return nil
			}

			var size int64
			if info, err := d.Info(); err == nil {
				size = info.Size()
			}

			n++
			if n > maxWalkFiles {
				return errStopWalk
			}
			if !yield(Entry{Path: rel, Size: size}) {
				return errStopWalk
			}
			return nil
		})
	}
}

// readGitignoreLines reads patterns, dropping blanks and comments.
func readGitignoreLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
