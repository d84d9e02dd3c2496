package validate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ChamsBouzaiene/dojo/internal/policy"
)

func mustProfile(t *testing.T, id string) policy.ModeProfile {
	t.Helper()
	p, err := policy.Resolve(id)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func kindsOf(res Result) []Kind {
	kinds := make([]Kind, 0, len(res.Violations))
	for _, v := range res.Violations {
		kinds = append(kinds, v.Kind)
	}
	return kinds
}

func TestValidateCleanPythonArtifact(t *testing.T) {
	profile := mustProfile(t, "python_basic")
	art := Artifact{
		Files: []File{{
			Path:    "fizzbuzz.py",
			Content: "import math\n\nfor i in range(1, 16):\n    print(i)\n",
		}},
		Tools: []string{"write"},
	}

	res := Validate(profile, art)
	if !res.OK() {
		t.Fatalf("expected pass, got violations: %v", res.Violations)
	}
}

func TestDisallowedImportCitesModule(t *testing.T) {
	profile := mustProfile(t, "python_basic")
	art := Artifact{
		Files: []File{{
			Path:    "peek.py",
			Content: "import os\nimport math\nprint(os.getcwd())\n",
		}},
	}

	res := Validate(profile, art)
	if res.OK() {
		t.Fatal("expected rejection")
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected exactly one violation, got %v", res.Violations)
	}
	v := res.Violations[0]
	if v.Kind != KindDisallowedImport {
		t.Errorf("kind = %s, want %s", v.Kind, KindDisallowedImport)
	}
	if !strings.Contains(v.Detail, `"os"`) {
		t.Errorf("detail does not cite os: %q", v.Detail)
	}
}

func TestImportEdgeCases(t *testing.T) {
	profile := mustProfile(t, "python_basic")

	tests := []struct {
		name    string
		content string
		bad     bool
	}{
		{"submodule of whitelisted prefix", "from os.path import join\n", false},
		{"bare parent of whitelisted submodule", "import os\n", true},
		{"aliased import", "import statistics as stats\n", false},
		{"comma list with one offender", "import math, socket\n", true},
		{"wildcard always rejected", "from math import *\n", true},
		{"dynamic import rejected", "mod = __import__('os')\n", true},
		{"importlib rejected", "import importlib\n", true},
		{"commented import ignored", "# import os\nprint('hi')\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			art := Artifact{Files: []File{{Path: "t.py", Content: tt.content}}}
			res := Validate(profile, art)
			if got := !res.OK(); got != tt.bad {
				t.Errorf("bad = %v, want %v (violations %v)", got, tt.bad, res.Violations)
			}
		})
	}
}

func TestLanguageMixingPythonWithHTML(t *testing.T) {
	profile := mustProfile(t, "python_basic")
	// Compliant imports and line count; the lone HTML block must still
	// reject the artifact.
	art := Artifact{
		Files: []File{{
			Path:    "page.py",
			Content: "print('hello')\nhtml = \"<div>hello</div>\"\n",
		}},
	}

	res := Validate(profile, art)
	if res.OK() {
		t.Fatal("expected LanguageMixing rejection")
	}
	found := false
	for _, v := range res.Violations {
		if v.Kind == KindLanguageMixing {
			found = true
		}
	}
	if !found {
		t.Errorf("no LanguageMixing violation in %v", res.Violations)
	}
}

func TestLanguageMixingWebWithPython(t *testing.T) {
	profile := mustProfile(t, "web_basic")
	art := Artifact{
		Files: []File{{
			Path:    "app.js",
			Content: "def handler(x):\n    print(x)\nimport math\n",
		}},
	}

	res := Validate(profile, art)
	if res.OK() {
		t.Fatal("expected rejection of python in web mode")
	}
	if res.Violations[0].Kind != KindLanguageMixing {
		t.Errorf("first violation = %s, want %s", res.Violations[0].Kind, KindLanguageMixing)
	}
}

func TestWebPrintCallAloneIsNotPython(t *testing.T) {
	profile := mustProfile(t, "web_basic")
	art := Artifact{
		Files: []File{{
			Path:    "page.html",
			Content: "<html><body><button onclick=\"window.print()\">Print</button></body></html>\n",
		}},
	}

	if res := Validate(profile, art); !res.OK() {
		t.Errorf("window.print() alone should not read as python: %v", res.Violations)
	}
}

func TestLineLimit(t *testing.T) {
	// Custom cap, mirroring a session tuned for longer data-analysis
	// scripts.
	profile := mustProfile(t, "pandas")
	profile.MaxLines = 300

	longFile := strings.Repeat("x = 1\n", 310)
	res := Validate(profile, Artifact{Files: []File{{Path: "a.py", Content: longFile}}})
	if res.OK() {
		t.Fatal("310 lines should exceed a 300-line cap")
	}
	if res.Violations[0].Kind != KindLineLimitExceeded {
		t.Errorf("kind = %s, want %s", res.Violations[0].Kind, KindLineLimitExceeded)
	}

	shortFile := strings.Repeat("x = 1\n", 280)
	if res := Validate(profile, Artifact{Files: []File{{Path: "a.py", Content: shortFile}}}); !res.OK() {
		t.Errorf("280 lines should pass a 300-line cap: %v", res.Violations)
	}
}

func TestEditFragmentsSkipLineLimit(t *testing.T) {
	profile := mustProfile(t, "python_basic")
	fragment := strings.Repeat("y = 2\n", 80)
	art := Artifact{Files: []File{{Path: "a.py", Content: fragment, Partial: true}}}
	if res := Validate(profile, art); !res.OK() {
		t.Errorf("partial fragment should skip the line limit: %v", res.Violations)
	}
}

func TestFileCountAndExtension(t *testing.T) {
	profile := mustProfile(t, "python_basic")
	art := Artifact{
		Files: []File{
			{Path: "a.py", Content: "print('a')\n"},
			{Path: "b.py", Content: "print('b')\n"},
			{Path: "notes.txt", Content: "remember\n"},
		},
	}

	res := Validate(profile, art)
	kinds := kindsOf(res)
	if len(kinds) < 2 {
		t.Fatalf("expected file-count and extension findings, got %v", res.Violations)
	}
	if kinds[0] != KindFileCountExceeded {
		t.Errorf("first finding = %s, want %s (fixed check order)", kinds[0], KindFileCountExceeded)
	}
	foundExt := false
	for _, k := range kinds {
		if k == KindDisallowedExtension {
			foundExt = true
		}
	}
	if !foundExt {
		t.Errorf("no extension finding in %v", res.Violations)
	}
}

func TestForbiddenPatterns(t *testing.T) {
	profile := mustProfile(t, "python_basic")

	tests := []struct {
		name    string
		content string
	}{
		{"url literal", "u = 'https://example.com/data.csv'\n"},
		{"pip install", "# run: pip install requests\n"},
		{"os.system", "import os.path\nos.system('ls')\n"},
		{"subprocess", "subprocess.run(['ls'])\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			art := Artifact{Files: []File{{Path: "t.py", Content: tt.content}}}
			res := Validate(profile, art)
			found := false
			for _, v := range res.Violations {
				if v.Kind == KindForbiddenPattern {
					found = true
				}
			}
			if !found {
				t.Errorf("no ForbiddenPattern finding for %q: %v", tt.content, res.Violations)
			}
		})
	}
}

func TestDisallowedToolInWebMode(t *testing.T) {
	profile := mustProfile(t, "aframe")
	art := Artifact{Tools: []string{"bash"}}

	res := Validate(profile, art)
	if res.OK() {
		t.Fatal("bash must be flagged in a web mode")
	}
	if res.Violations[0].Kind != KindDisallowedTool {
		t.Errorf("kind = %s, want %s", res.Violations[0].Kind, KindDisallowedTool)
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	profile := mustProfile(t, "python_basic")
	content := "import os\nimport socket\n" + strings.Repeat("print('x')\n", 60) +
		"os.system('curl https://example.com')\n"
	art := Artifact{
		Files: []File{{Path: "bad.py", Content: content}},
		Tools: []string{"bash"},
	}

	res := Validate(profile, art)
	kindSet := make(map[Kind]bool)
	for _, v := range res.Violations {
		kindSet[v.Kind] = true
	}
	for _, want := range []Kind{KindDisallowedImport, KindForbiddenPattern, KindLineLimitExceeded} {
		if !kindSet[want] {
			t.Errorf("missing %s in %v", want, kindsOf(res))
		}
	}
	// Two bad imports, individually reported.
	imports := 0
	for _, v := range res.Violations {
		if v.Kind == KindDisallowedImport {
			imports++
		}
	}
	if imports != 2 {
		t.Errorf("expected 2 import findings, got %d", imports)
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	profile := mustProfile(t, "python_basic")
	art := Artifact{Files: []File{{Path: "bad.py", Content: "import os\n"}}}

	first := Validate(profile, art)
	second := Validate(profile, art)
	if fmt.Sprint(first) != fmt.Sprint(second) {
		t.Errorf("same artifact classified differently:\n%v\n%v", first, second)
	}
}

func TestCorrectionMessage(t *testing.T) {
	profile := mustProfile(t, "python_basic")
	res := Validate(profile, Artifact{Files: []File{{Path: "bad.py", Content: "import os\n"}}})

	msg := CorrectionMessage(profile, res)
	if !strings.Contains(msg, "- [disallowed_import]") {
		t.Errorf("correction missing bullet list:\n%s", msg)
	}
	if !strings.Contains(msg, "Rules for mode python_basic") {
		t.Errorf("correction missing rules restatement:\n%s", msg)
	}
	if !strings.Contains(msg, `"os"`) {
		t.Errorf("correction does not cite the module:\n%s", msg)
	}
}

func TestExtractCodeBlocks(t *testing.T) {
	text := "Here you go:\n```python\nprint('hi')\n```\nand markup:\n```html\n<div>x</div>\n```\n"
	blocks := ExtractCodeBlocks(text)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Lang != "python" || blocks[0].Body != "print('hi')" {
		t.Errorf("first block = %+v", blocks[0])
	}
	if blocks[1].Lang != "html" {
		t.Errorf("second block lang = %q", blocks[1].Lang)
	}

	if got := ExtractCodeBlocks("no code here"); got != nil {
		t.Errorf("expected nil for plain prose, got %v", got)
	}
}
