package curriculum

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestTrackerMasteryThreshold(t *testing.T) {
	tr := NewTracker("python_basic")

	tr.Record([]string{"loops"})
	tr.Record([]string{"loops"})
	if tr.Mastered()["loops"] {
		t.Fatal("two sightings should not master a concept")
	}

	tr.Record([]string{"loops"})
	if !tr.Mastered()["loops"] {
		t.Fatal("three sightings should master a concept")
	}
}

func TestTrackerLevelUp(t *testing.T) {
	tr := NewTracker("python_basic")

	fiveBeginner := []string{"variables", "types", "print", "conditionals", "loops"}
	for i := 0; i < MasteryThreshold; i++ {
		tr.Record(fiveBeginner)
	}

	level, changed := tr.UpdateLevel()
	if level != Intermediate || !changed {
		t.Fatalf("UpdateLevel = (%s, %v), want (intermediate, true)", level, changed)
	}

	level, changed = tr.UpdateLevel()
	if level != Intermediate || changed {
		t.Fatalf("second UpdateLevel = (%s, %v), want (intermediate, false)", level, changed)
	}
}

func TestTrackerSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	tr := NewTracker("pandas")
	for i := 0; i < MasteryThreshold; i++ {
		tr.Record([]string{"dataframes", "reading csv", "selecting columns", "filtering rows", "summary statistics"})
	}
	tr.Record([]string{"groupby"})
	tr.UpdateLevel()

	if err := tr.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := LoadTracker(dir, "pandas")
	if loaded.Level() != Intermediate {
		t.Errorf("loaded level = %s, want intermediate", loaded.Level())
	}
	if loaded.counts["groupby"] != 1 {
		t.Errorf("groupby count = %d, want 1", loaded.counts["groupby"])
	}
	if !loaded.Mastered()["dataframes"] {
		t.Error("mastered concept lost in round trip")
	}
}

func TestLoadTrackerToleratesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "py5.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tr := LoadTracker(dir, "py5")
	if tr.Level() != Beginner {
		t.Errorf("corrupt file should start fresh, level = %s", tr.Level())
	}
	if len(tr.counts) != 0 {
		t.Errorf("corrupt file should start fresh, counts = %v", tr.counts)
	}
}

func TestLoadTrackerMissingFile(t *testing.T) {
	tr := LoadTracker(t.TempDir(), "sklearn")
	if tr.Level() != Beginner || len(tr.counts) != 0 {
		t.Errorf("missing file should start fresh, got level=%s counts=%v", tr.Level(), tr.counts)
	}
}

func TestMasteredListKeepsTeachingOrder(t *testing.T) {
	tr := NewTracker("python_basic")
	for i := 0; i < MasteryThreshold; i++ {
		tr.Record([]string{"loops", "variables"})
	}

	got := tr.MasteredList()
	want := []string{"variables", "loops"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MasteredList = %v, want %v", got, want)
	}
}

func TestTrackerDisplay(t *testing.T) {
	tr := NewTracker("python_basic")
	for i := 0; i < MasteryThreshold; i++ {
		tr.Record([]string{"variables"})
	}
	tr.Record([]string{"loops"})

	out := tr.Display()
	for _, want := range []string{
		"Progress — python_basic (level: beginner)",
		"[x] variables",
		"[1/3] loops",
		"[ ] functions",
		"Mastered 1 of 18 concepts",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Display missing %q:\n%s", want, out)
		}
	}
}

func TestEducationBlock(t *testing.T) {
	block := EducationBlock("python_basic", Beginner, nil)
	if !strings.Contains(block, "Student level: beginner.") {
		t.Errorf("missing level line:\n%s", block)
	}
	if !strings.Contains(block, "none yet") {
		t.Errorf("empty mastery should read 'none yet':\n%s", block)
	}
	if strings.Contains(block, "small test") {
		t.Errorf("beginner block should not carry intermediate rules:\n%s", block)
	}

	block = EducationBlock("python_basic", Intermediate, []string{"variables", "loops"})
	if !strings.Contains(block, "variables, loops") {
		t.Errorf("mastered concepts missing:\n%s", block)
	}
	if !strings.Contains(block, "small test") {
		t.Errorf("intermediate rules missing:\n%s", block)
	}
	if strings.Contains(block, "security pitfalls") {
		t.Errorf("intermediate block should not carry advanced rules:\n%s", block)
	}

	block = EducationBlock("python_basic", Advanced, nil)
	if !strings.Contains(block, "security pitfalls") {
		t.Errorf("advanced rules missing:\n%s", block)
	}

	if EducationBlock("cobol", Beginner, nil) != "" {
		t.Error("unknown mode should produce an empty block")
	}
}
