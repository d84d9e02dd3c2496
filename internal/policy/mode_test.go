package policy

import (
	"errors"
	"testing"
)

func TestResolveKnownModes(t *testing.T) {
	tests := []struct {
		id       string
		family   Family
		wantBash bool
	}{
		{"python_basic", FamilyPython, true},
		{"py5", FamilyPython, true},
		{"sklearn", FamilyPython, true},
		{"pandas", FamilyPython, true},
		{"web_basic", FamilyWeb, false},
		{"aframe", FamilyWeb, false},
		{"threejs", FamilyWeb, false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, err := Resolve(tt.id)
			if err != nil {
				t.Fatalf("Resolve(%q) returned error: %v", tt.id, err)
			}
			if p.ID != tt.id {
				t.Errorf("profile ID = %q, want %q", p.ID, tt.id)
			}
			if p.Family != tt.family {
				t.Errorf("family = %q, want %q", p.Family, tt.family)
			}
			if got := p.AllowsTool("bash"); got != tt.wantBash {
				t.Errorf("AllowsTool(bash) = %v, want %v", got, tt.wantBash)
			}
			if p.MaxLines != DefaultMaxLines {
				t.Errorf("MaxLines = %d, want %d", p.MaxLines, DefaultMaxLines)
			}
			if p.MaxFiles != DefaultMaxFiles {
				t.Errorf("MaxFiles = %d, want %d", p.MaxFiles, DefaultMaxFiles)
			}
			if p.Instructions == "" {
				t.Error("profile has no instructions")
			}
		})
	}
}

func TestResolveUnknownMode(t *testing.T) {
	_, err := Resolve("fortran")
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
	var unknownErr *UnknownModeError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownModeError, got %T: %v", err, err)
	}
	if unknownErr.ID != "fortran" {
		t.Errorf("error ID = %q, want %q", unknownErr.ID, "fortran")
	}
}

func TestAllowsImport(t *testing.T) {
	basic, err := Resolve("python_basic")
	if err != nil {
		t.Fatal(err)
	}
	pandas, err := Resolve("pandas")
	if err != nil {
		t.Fatal(err)
	}
	web, err := Resolve("web_basic")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		profile ModeProfile
		module  string
		want    bool
	}{
		{"exact match", basic, "math", true},
		{"submodule of whitelisted prefix", basic, "os.path", true},
		{"deeper submodule", basic, "os.path.join", true},
		{"parent of whitelisted submodule", basic, "os", false},
		{"prefix is not a dotted ancestor", basic, "osmium", false},
		{"not whitelisted", basic, "subprocess", false},
		{"numpy only in data modes", basic, "numpy", false},
		{"pandas allows numpy", pandas, "numpy", true},
		{"pandas allows matplotlib.pyplot", pandas, "matplotlib.pyplot", true},
		{"pandas rejects sklearn", pandas, "sklearn", false},
		{"web has empty whitelist", web, "math", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.AllowsImport(tt.module); got != tt.want {
				t.Errorf("AllowsImport(%q) = %v, want %v", tt.module, got, tt.want)
			}
		})
	}
}

func TestAllowsExtension(t *testing.T) {
	web, err := Resolve("threejs")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		ext  string
		want bool
	}{
		{".html", true},
		{".HTML", true},
		{".js", true},
		{".css", true},
		{".py", false},
		{".exe", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := web.AllowsExtension(tt.ext); got != tt.want {
				t.Errorf("AllowsExtension(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

func TestIDsSortedAndComplete(t *testing.T) {
	ids := IDs()
	if len(ids) != 7 {
		t.Fatalf("expected 7 modes, got %d: %v", len(ids), ids)
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Errorf("IDs not sorted: %q before %q", ids[i-1], ids[i])
		}
	}
}
