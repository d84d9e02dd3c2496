package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OSWorkDir is the loop's filesystem view for post-write checks and
// rollback, rooted at the working root. Tool paths are re-confined here
// with a plain prefix check; the gate already did the symlink-resolving
// version before anything was written.
type OSWorkDir struct {
	root string
}

// NewWorkDir returns an OSWorkDir rooted at root.
func NewWorkDir(root string) *OSWorkDir {
	return &OSWorkDir{root: filepath.Clean(root)}
}

func (w *OSWorkDir) abs(path string) (string, error) {
	p := path
	if !filepath.IsAbs(p) {
		p = filepath.Join(w.root, p)
	}
	p = filepath.Clean(p)
	if p != w.root && !strings.HasPrefix(p, w.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes working root: %s", path)
	}
	return p, nil
}

func (w *OSWorkDir) ReadFile(path string) ([]byte, error) {
	p, err := w.abs(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (w *OSWorkDir) WriteFile(path string, data []byte) error {
	p, err := w.abs(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

func (w *OSWorkDir) Remove(path string) error {
	p, err := w.abs(path)
	if err != nil {
		return err
	}
	return os.Remove(p)
}
