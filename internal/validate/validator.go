package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ChamsBouzaiene/dojo/internal/policy"
)

// Kind labels one class of rule violation.
type Kind string

const (
	KindLanguageMixing      Kind = "language_mixing"
	KindDisallowedImport    Kind = "disallowed_import"
	KindLineLimitExceeded   Kind = "line_limit_exceeded"
	KindFileCountExceeded   Kind = "file_count_exceeded"
	KindDisallowedExtension Kind = "disallowed_extension"
	KindForbiddenPattern    Kind = "forbidden_pattern"
	KindDisallowedTool      Kind = "disallowed_tool"
)

// Violation is one broken rule. Violations are data, never panics: the
// loop turns them into a correction prompt, the store turns them into
// audit records.
type Violation struct {
	Kind   Kind   `json:"kind"`
	Path   string `json:"path,omitempty"` // offending file, "" for response-level findings
	Detail string `json:"detail"`
}

// Result is the outcome of one validation pass. Acceptance is atomic:
// a single violation rejects the whole artifact.
type Result struct {
	Violations []Violation
}

// OK reports whether the artifact passed every check.
func (r Result) OK() bool {
	return len(r.Violations) == 0
}

// Kinds returns the distinct violation kinds in order of appearance.
func (r Result) Kinds() []Kind {
	seen := make(map[Kind]bool, len(r.Violations))
	var kinds []Kind
	for _, v := range r.Violations {
		if !seen[v.Kind] {
			seen[v.Kind] = true
			kinds = append(kinds, v.Kind)
		}
	}
	return kinds
}

// Validate runs every check against the artifact and collects all
// findings. Checks run in a fixed order and none of them short-
// circuits, so a response that is too long AND imports the wrong
// module hears about both at once.
func Validate(profile policy.ModeProfile, art Artifact) Result {
	var out []Violation
	out = append(out, checkFileCount(profile, art)...)
	out = append(out, checkExtensions(profile, art)...)
	out = append(out, checkLanguage(profile, art)...)
	out = append(out, checkImports(profile, art)...)
	out = append(out, checkForbidden(art)...)
	out = append(out, checkLineCount(profile, art)...)
	out = append(out, checkTools(profile, art)...)
	return Result{Violations: out}
}

func checkFileCount(profile policy.ModeProfile, art Artifact) []Violation {
	distinct := make(map[string]bool)
	for _, f := range art.Files {
		distinct[f.Path] = true
	}
	if len(distinct) <= profile.MaxFiles {
		return nil
	}
	return []Violation{{
		Kind:   KindFileCountExceeded,
		Detail: fmt.Sprintf("response touches %d files, mode %s allows %d", len(distinct), profile.ID, profile.MaxFiles),
	}}
}

func checkExtensions(profile policy.ModeProfile, art Artifact) []Violation {
	var out []Violation
	seen := make(map[string]bool)
	for _, f := range art.Files {
		if seen[f.Path] {
			continue
		}
		seen[f.Path] = true
		ext := strings.ToLower(pathExt(f.Path))
		if ext == "" || !profile.AllowsExtension(ext) {
			out = append(out, Violation{
				Kind:   KindDisallowedExtension,
				Path:   f.Path,
				Detail: fmt.Sprintf("%s: extension %q not allowed (allowed: %s)", f.Path, ext, strings.Join(profile.Extensions, ", ")),
			})
		}
	}
	return out
}

func pathExt(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 && i < len(path)-1 {
		return path[i:]
	}
	return ""
}

// contentUnit pairs checkable text with the name used in findings.
type contentUnit struct {
	name string
	text string
}

func contentUnits(art Artifact) []contentUnit {
	units := make([]contentUnit, 0, len(art.Files)+len(art.Snippets))
	for _, f := range art.Files {
		units = append(units, contentUnit{name: f.Path, text: f.Content})
	}
	for _, s := range art.Snippets {
		units = append(units, contentUnit{name: "response text", text: s})
	}
	return units
}

func checkLanguage(profile policy.ModeProfile, art Artifact) []Violation {
	var out []Violation
	for _, u := range art.Files {
		out = append(out, languageFindings(profile.Family, u.Path, u.Content)...)
	}
	for _, s := range art.Snippets {
		out = append(out, languageFindings(profile.Family, "", s)...)
	}
	return out
}

func languageFindings(family policy.Family, path, content string) []Violation {
	label := path
	if label == "" {
		label = "response text"
	}
	var out []Violation
	switch family {
	case policy.FamilyPython:
		if looksLikeHTML(content) {
			out = append(out, Violation{
				Kind:   KindLanguageMixing,
				Path:   path,
				Detail: fmt.Sprintf("%s: HTML markup in a python-mode response", label),
			})
		}
		if looksLikeJS(content) {
			out = append(out, Violation{
				Kind:   KindLanguageMixing,
				Path:   path,
				Detail: fmt.Sprintf("%s: JavaScript in a python-mode response", label),
			})
		}
	case policy.FamilyWeb:
		if looksLikePython(content) {
			out = append(out, Violation{
				Kind:   KindLanguageMixing,
				Path:   path,
				Detail: fmt.Sprintf("%s: Python code in a web-mode response", label),
			})
		}
	}
	return out
}

var (
	importLineRe    = regexp.MustCompile(`(?m)^\s*import\s+([^\n#]+)`)
	fromImportRe    = regexp.MustCompile(`(?m)^\s*from\s+([\w.]+)\s+import\s+([^\n#]+)`)
	dynamicImportRe = regexp.MustCompile(`__import__\s*\(|\bimportlib\b`)
	moduleTokenRe   = regexp.MustCompile(`^[\w.]+$`)
)

// checkImports structurally parses import statements in python-family
// content. Wildcard and dynamic imports are rejected outright; regular
// modules must sit under a whitelist entry.
func checkImports(profile policy.ModeProfile, art Artifact) []Violation {
	if profile.Family != policy.FamilyPython {
		return nil
	}

	var out []Violation
	reported := make(map[string]bool)
	flag := func(path, module, why string) {
		key := path + "\x00" + module
		if reported[key] {
			return
		}
		reported[key] = true
		label := path
		if label == "" {
			label = "response text"
		}
		out = append(out, Violation{
			Kind:   KindDisallowedImport,
			Path:   path,
			Detail: fmt.Sprintf("%s: import %q %s", label, module, why),
		})
	}

	for _, u := range contentUnits(art) {
		path := u.name
		if path == "response text" {
			path = ""
		}

		if dynamicImportRe.MatchString(u.text) {
			flag(path, "__import__", "uses dynamic importing, which is never allowed")
		}

		for _, m := range importLineRe.FindAllStringSubmatch(u.text, -1) {
			for _, module := range splitImportList(m[1]) {
				if !profile.AllowsImport(module) {
					flag(path, module, fmt.Sprintf("is not on the %s whitelist", profile.ID))
				}
			}
		}

		for _, m := range fromImportRe.FindAllStringSubmatch(u.text, -1) {
			module, names := m[1], m[2]
			if strings.Contains(names, "*") {
				flag(path, module, "uses a wildcard, which is never allowed")
				continue
			}
			if !profile.AllowsImport(module) {
				flag(path, module, fmt.Sprintf("is not on the %s whitelist", profile.ID))
			}
		}
	}
	return out
}

// splitImportList turns "a, b as c" into ["a", "b"].
func splitImportList(list string) []string {
	var modules []string
	for _, part := range strings.Split(list, ",") {
		token := strings.TrimSpace(part)
		if i := strings.Index(token, " as "); i >= 0 {
			token = strings.TrimSpace(token[:i])
		}
		if moduleTokenRe.MatchString(token) {
			modules = append(modules, token)
		}
	}
	return modules
}

var forbiddenPatterns = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`https?://`), "URL literal"},
	{regexp.MustCompile(`\b(pip3?|npm|yarn)\s+install\b`), "package installation"},
	{regexp.MustCompile(`\byarn\s+add\b`), "package installation"},
	{regexp.MustCompile(`os\.system\s*\(`), "shell escape via os.system"},
	{regexp.MustCompile(`subprocess\.`), "subprocess use"},
}

func checkForbidden(art Artifact) []Violation {
	var out []Violation
	for _, u := range contentUnits(art) {
		reported := make(map[string]bool)
		for _, p := range forbiddenPatterns {
			if !p.re.MatchString(u.text) || reported[p.name] {
				continue
			}
			reported[p.name] = true
			path := u.name
			if path == "response text" {
				path = ""
			}
			out = append(out, Violation{
				Kind:   KindForbiddenPattern,
				Path:   path,
				Detail: fmt.Sprintf("%s: %s", u.name, p.name),
			})
		}
	}
	return out
}

func checkLineCount(profile policy.ModeProfile, art Artifact) []Violation {
	var out []Violation
	for _, f := range art.Files {
		if f.Partial {
			continue // edit fragments: the full file is re-checked after the edit lands
		}
		lines := countLines(f.Content)
		if lines > profile.MaxLines {
			out = append(out, Violation{
				Kind:   KindLineLimitExceeded,
				Path:   f.Path,
				Detail: fmt.Sprintf("%s: %d lines (limit %d)", f.Path, lines, profile.MaxLines),
			})
		}
	}
	return out
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(content, "\n"), "\n") + 1
}

func checkTools(profile policy.ModeProfile, art Artifact) []Violation {
	var out []Violation
	seen := make(map[string]bool)
	for _, tool := range art.Tools {
		if seen[tool] {
			continue
		}
		seen[tool] = true
		if !profile.AllowsTool(tool) {
			out = append(out, Violation{
				Kind:   KindDisallowedTool,
				Detail: fmt.Sprintf("tool %q is not available in mode %s", tool, profile.ID),
			})
		}
	}
	return out
}
