package workspace

import (
	"path/filepath"
	"strings"

	"github.com/ChamsBouzaiene/dojo/internal/policy"
)

// DetectKind suggests a mode family from the files already in the
// working root, for the interactive mode picker's default. ok is false
// when the root is empty or mixed enough that no suggestion is safe.
// The suggestion never constrains anything; the chosen mode's profile
// does all gating.
func DetectKind(root string) (policy.Family, bool) {
	walker, err := NewWalker(root)
	if err != nil {
		return "", false
	}

	var pyCount, webCount int
	for entry := range walker.Files() {
		switch strings.ToLower(filepath.Ext(entry.Path)) {
		case ".py":
			pyCount++
		case ".html", ".htm", ".css", ".js":
			webCount++
		}
	}

	switch {
	case pyCount > 0 && webCount == 0:
		return policy.FamilyPython, true
	case webCount > 0 && pyCount == 0:
		return policy.FamilyWeb, true
	default:
		return "", false
	}
}
