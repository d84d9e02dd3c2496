package curriculum

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MasteryThreshold is how many sightings turn a concept into a
// mastered one.
const MasteryThreshold = 3

// Tracker counts concept sightings for one mode and derives the
// student's level from them. Progress survives sessions as a small
// JSON file per mode.
type Tracker struct {
	mode   string
	level  Level
	counts map[string]int
}

type progressFile struct {
	Mode          string         `json:"mode"`
	Level         string         `json:"level"`
	ConceptCounts map[string]int `json:"concept_counts"`
}

// NewTracker starts fresh at beginner.
func NewTracker(mode string) *Tracker {
	return &Tracker{
		mode:   mode,
		level:  Beginner,
		counts: make(map[string]int),
	}
}

// LoadTracker reads the persisted progress for a mode. Anything wrong
// with the file (absent, unreadable, corrupt) yields a fresh tracker;
// losing counts is cheaper than refusing to start.
func LoadTracker(dir, mode string) *Tracker {
	data, err := os.ReadFile(filepath.Join(dir, mode+".json"))
	if err != nil {
		return NewTracker(mode)
	}

	var pf progressFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return NewTracker(mode)
	}

	t := NewTracker(mode)
	t.level = ParseLevel(pf.Level)
	for c, n := range pf.ConceptCounts {
		if n > 0 {
			t.counts[c] = n
		}
	}
	return t
}

// Save writes the progress file for this tracker's mode.
func (t *Tracker) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create progress dir: %w", err)
	}

	data, err := json.MarshalIndent(progressFile{
		Mode:          t.mode,
		Level:         string(t.level),
		ConceptCounts: t.counts,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	path := filepath.Join(dir, t.mode+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write progress file: %w", err)
	}
	return nil
}

// Mode returns the mode this tracker belongs to.
func (t *Tracker) Mode() string { return t.mode }

// Level returns the current level without re-judging it.
func (t *Tracker) Level() Level { return t.level }

// Record adds one sighting per concept.
func (t *Tracker) Record(concepts []string) {
	for _, c := range concepts {
		t.counts[c]++
	}
}

// Mastered returns the set of concepts seen at least MasteryThreshold
// times.
func (t *Tracker) Mastered() map[string]bool {
	out := make(map[string]bool)
	for c, n := range t.counts {
		if n >= MasteryThreshold {
			out[c] = true
		}
	}
	return out
}

// MasteredList returns mastered concepts in teaching order, for the
// education block.
func (t *Tracker) MasteredList() []string {
	mastered := t.Mastered()
	catalog, ok := Catalogs[t.mode]
	if !ok {
		return nil
	}
	var out []string
	for _, c := range catalog.All() {
		if mastered[c] {
			out = append(out, c)
		}
	}
	return out
}

// UpdateLevel re-judges the level from mastered concepts. The second
// return reports whether it changed; a change takes effect in the next
// session's system message.
func (t *Tracker) UpdateLevel() (Level, bool) {
	old := t.level
	t.level = JudgeLevel(t.mode, t.Mastered())
	return t.level, t.level != old
}

// Display renders the /progress checklist.
func (t *Tracker) Display() string {
	catalog, ok := Catalogs[t.mode]
	if !ok {
		return "No curriculum is defined for this mode."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Progress — %s (level: %s)\n", t.mode, t.level)

	mastered := t.Mastered()
	for _, level := range LevelOrder {
		concepts := catalog.ForLevel(level)
		if len(concepts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", level)
		for _, c := range concepts {
			switch {
			case mastered[c]:
				fmt.Fprintf(&b, "  [x] %s\n", c)
			case t.counts[c] > 0:
				fmt.Fprintf(&b, "  [%d/%d] %s\n", t.counts[c], MasteryThreshold, c)
			default:
				fmt.Fprintf(&b, "  [ ] %s\n", c)
			}
		}
	}

	all := catalog.All()
	count := 0
	for _, c := range all {
		if mastered[c] {
			count++
		}
	}
	pct := 0
	if len(all) > 0 {
		pct = count * 100 / len(all)
	}
	fmt.Fprintf(&b, "\nMastered %d of %d concepts (%d%%).\n", count, len(all), pct)
	return b.String()
}
