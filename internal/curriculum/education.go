package curriculum

import (
	"fmt"
	"strings"
)

// EducationBlock renders the student-level fragment that the system
// message carries for the whole session. It shapes tone and assumed
// knowledge only; the mode's hard rules do not change with level.
func EducationBlock(modeID string, level Level, mastered []string) string {
	catalog, ok := Catalogs[modeID]
	if !ok {
		return ""
	}

	masteredLine := "none yet"
	if len(mastered) > 0 {
		masteredLine = strings.Join(mastered, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Student level: %s.\n", level)
	fmt.Fprintf(&b, "Concepts already mastered (no need to re-explain or quiz these): %s.\n", masteredLine)
	fmt.Fprintf(&b, "Current topics: %s.\n", strings.Join(catalog.ForLevel(level), ", "))

	b.WriteString(`Level rules:
- One step per reply, then stop. Wait for the student to say they ran it before moving on.
- Name every new term the first time it comes up, and ask whether it is familiar before explaining at length.
- Never hand over a finished program or announce future steps; the student sets the pace.`)

	if level == Intermediate || level == Advanced {
		b.WriteString(`
- Where it matters, spend a sentence or two on handling errors.
- When a function settles, suggest writing a small test for it.`)
	}
	if level == Advanced {
		b.WriteString(`
- Add a short note on design or performance when the code invites one.
- Point out security pitfalls briefly as they come up.`)
	}

	return b.String()
}
