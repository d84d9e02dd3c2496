// Package policy defines the closed set of teaching modes and the rules
// attached to each one. The mode table is built at compile time and is
// never mutated at runtime; everything else in the system treats a
// ModeProfile as read-only data.
package policy

import (
	"fmt"
	"sort"
	"strings"
)

// Family is the language family a mode teaches. The set is closed:
// every mode is either python or web, and validation keys off it.
type Family string

const (
	FamilyPython Family = "python"
	FamilyWeb    Family = "web"
)

// Defaults applied to every profile in the table. Individual profiles
// could override them, but the shipped table keeps outputs small on
// purpose: short artifacts are easier to explain line by line.
const (
	DefaultMaxLines = 50
	DefaultMaxFiles = 1
)

// ModeProfile describes everything the agent is allowed to produce in
// one teaching mode: the language family, the import whitelist, the
// file extensions, the tools, and the per-response size caps.
//
// Profiles are value types. Treat the slices as immutable; they are
// shared with the package-level table.
type ModeProfile struct {
	ID             string
	Family         Family
	AllowedImports []string // python families only; empty for web
	Extensions     []string // e.g. {".py"} or {".html", ".js", ".css"}
	Tools          []string // tool names the registry may expose
	Instructions   string   // per-mode tutor instructions (system prompt core)
	MaxLines       int      // max lines per produced file
	MaxFiles       int      // max files per response
}

// AllowsTool reports whether the profile permits the named tool.
func (p ModeProfile) AllowsTool(name string) bool {
	for _, t := range p.Tools {
		if t == name {
			return true
		}
	}
	return false
}

// AllowsExtension reports whether the profile permits the extension.
// The comparison is case-insensitive and expects a leading dot.
func (p ModeProfile) AllowsExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range p.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// AllowsImport reports whether a python module path is whitelisted.
// A module is allowed when it equals a whitelist entry or sits below
// one: a whitelist containing "os.path" admits "os.path.join" but not
// bare "os"; "matplotlib" admits "matplotlib.pyplot".
func (p ModeProfile) AllowsImport(module string) bool {
	for _, allowed := range p.AllowedImports {
		if module == allowed || strings.HasPrefix(module, allowed+".") {
			return true
		}
	}
	return false
}

// UnknownModeError is returned by Resolve for IDs outside the table.
// It is fatal at startup: there is no fallback mode.
type UnknownModeError struct {
	ID string
}

func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("unknown mode %q (known modes: %s)", e.ID, strings.Join(IDs(), ", "))
}

// Shared tool sets. Web modes never get bash: there is nothing for a
// static page to execute, and the shell is the riskiest capability.
var (
	pythonTools = []string{"bash", "read", "write", "edit", "grep", "glob"}
	webTools    = []string{"read", "write", "edit", "grep", "glob"}
)

// pythonBasicImports is the stdlib subset beginners actually need.
// Note os.path rather than os: path manipulation is fine, process and
// environment access is not.
var pythonBasicImports = []string{
	"math", "random", "string", "collections", "itertools", "functools",
	"operator", "copy", "pprint", "typing", "dataclasses", "enum",
	"json", "csv", "datetime", "re", "os.path", "pathlib", "textwrap",
	"decimal", "fractions", "statistics", "abc", "contextlib", "io",
	"struct",
}

var py5Imports = []string{
	"math", "random", "py5", "typing", "dataclasses", "enum",
	"collections", "itertools", "functools", "copy", "json",
}

var sklearnImports = appendImports(pythonBasicImports, "numpy", "sklearn")

var pandasImports = appendImports(pythonBasicImports, "numpy", "pandas", "matplotlib", "seaborn")

func appendImports(base []string, extra ...string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	out = append(out, extra...)
	return out
}

// modes is the complete table. Adding a mode means editing this file
// and recompiling; there is deliberately no registration API.
var modes = map[string]ModeProfile{
	"python_basic": {
		ID:             "python_basic",
		Family:         FamilyPython,
		AllowedImports: pythonBasicImports,
		Extensions:     []string{".py"},
		Tools:          pythonTools,
		MaxLines:       DefaultMaxLines,
		MaxFiles:       DefaultMaxFiles,
		Instructions: "You are a patient Python tutor for beginners. Teach core Python " +
			"only: variables, control flow, functions, data structures, and the " +
			"standard library modules you are given. Write one short, runnable .py " +
			"file per answer and explain it simply. Never use third-party packages, " +
			"never touch the network, and never install anything.",
	},
	"py5": {
		ID:             "py5",
		Family:         FamilyPython,
		AllowedImports: py5Imports,
		Extensions:     []string{".py"},
		Tools:          pythonTools,
		MaxLines:       DefaultMaxLines,
		MaxFiles:       DefaultMaxFiles,
		Instructions: "You are a creative-coding tutor using py5, the Python port of " +
			"Processing. Teach sketching: setup(), draw(), shapes, color, and simple " +
			"motion. Every answer is a single runnable py5 sketch in one .py file. " +
			"Stay inside py5 and the small stdlib whitelist you are given.",
	},
	"sklearn": {
		ID:             "sklearn",
		Family:         FamilyPython,
		AllowedImports: sklearnImports,
		Extensions:     []string{".py"},
		Tools:          pythonTools,
		MaxLines:       DefaultMaxLines,
		MaxFiles:       DefaultMaxFiles,
		Instructions: "You are a machine-learning tutor using scikit-learn. Teach the " +
			"classic workflow: load a toy dataset, split, fit an estimator, evaluate. " +
			"Use numpy and sklearn only, one small .py script per answer, and explain " +
			"what each step does in plain words. No downloads, no external data.",
	},
	"pandas": {
		ID:             "pandas",
		Family:         FamilyPython,
		AllowedImports: pandasImports,
		Extensions:     []string{".py"},
		Tools:          pythonTools,
		MaxLines:       DefaultMaxLines,
		MaxFiles:       DefaultMaxFiles,
		Instructions: "You are a data-analysis tutor using pandas. Teach DataFrames: " +
			"loading small inline datasets, selecting, filtering, grouping, and basic " +
			"plots with matplotlib or seaborn. One focused .py script per answer, " +
			"built on data constructed in the script itself, never fetched.",
	},
	"web_basic": {
		ID:         "web_basic",
		Family:     FamilyWeb,
		Extensions: []string{".html", ".js", ".css"},
		Tools:      webTools,
		MaxLines:   DefaultMaxLines,
		MaxFiles:   DefaultMaxFiles,
		Instructions: "You are a web tutor for beginners. Teach plain HTML, CSS and " +
			"vanilla JavaScript: structure, styling, and small DOM interactions. " +
			"Every answer is one self-contained file that opens directly in a " +
			"browser. No frameworks, no CDNs, no external resources.",
	},
	"aframe": {
		ID:         "aframe",
		Family:     FamilyWeb,
		Extensions: []string{".html", ".js", ".css"},
		Tools:      webTools,
		MaxLines:   DefaultMaxLines,
		MaxFiles:   DefaultMaxFiles,
		Instructions: "You are a WebVR tutor using A-Frame. Teach scenes built from " +
			"a-scene and entity primitives: geometry, materials, lights, and simple " +
			"animation. One self-contained .html file per answer. Assume the A-Frame " +
			"runtime is available locally; never reference external URLs.",
	},
	"threejs": {
		ID:         "threejs",
		Family:     FamilyWeb,
		Extensions: []string{".html", ".js", ".css"},
		Tools:      webTools,
		MaxLines:   DefaultMaxLines,
		MaxFiles:   DefaultMaxFiles,
		Instructions: "You are a 3D graphics tutor using three.js. Teach the scene, " +
			"camera, renderer triad, meshes, materials, and the animation loop. One " +
			"self-contained example per answer. Assume three.js is available " +
			"locally; never load it or anything else from a URL.",
	},
}

// Resolve looks up a mode by ID. Unknown IDs are an error; callers are
// expected to treat that error as fatal during startup.
func Resolve(id string) (ModeProfile, error) {
	p, ok := modes[id]
	if !ok {
		return ModeProfile{}, &UnknownModeError{ID: id}
	}
	return p, nil
}

// IDs returns all mode IDs in sorted order, for pickers and usage text.
func IDs() []string {
	ids := make([]string, 0, len(modes))
	for id := range modes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
