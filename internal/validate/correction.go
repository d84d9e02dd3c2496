package validate

import (
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/dojo/internal/policy"
)

// CorrectionMessage renders a rejected result into the instruction the
// model sees on its retry: every finding as a bullet, then the mode
// rules restated. The rejected content itself is not echoed back.
func CorrectionMessage(profile policy.ModeProfile, res Result) string {
	var b strings.Builder
	b.WriteString("Your previous response broke the rules of this session and was discarded:\n")
	for _, v := range res.Violations {
		fmt.Fprintf(&b, "- [%s] %s\n", v.Kind, v.Detail)
	}
	b.WriteString("\n")
	b.WriteString(RulesSummary(profile))
	b.WriteString("\nProduce a corrected response that satisfies every rule.")
	return b.String()
}

// RulesSummary restates a profile's hard rules in a few lines. It is
// shared by the system prompt and the correction prompt so the model
// always sees one consistent phrasing.
func RulesSummary(profile policy.ModeProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rules for mode %s:\n", profile.ID)
	fmt.Fprintf(&b, "- Language family: %s; file extensions: %s\n", profile.Family, strings.Join(profile.Extensions, ", "))
	if profile.Family == policy.FamilyPython {
		fmt.Fprintf(&b, "- Allowed imports: %s\n", strings.Join(profile.AllowedImports, ", "))
	} else {
		b.WriteString("- No imports or external resources of any kind\n")
	}
	fmt.Fprintf(&b, "- At most %d file(s) and %d lines per response\n", profile.MaxFiles, profile.MaxLines)
	fmt.Fprintf(&b, "- Available tools: %s\n", strings.Join(profile.Tools, ", "))
	b.WriteString("- No URLs, no package installation, no shell escapes, no other languages\n")
	return b.String()
}
