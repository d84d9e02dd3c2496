// Package prompts holds every piece of text the tutor says that the
// model did not write: the base system prompt, the per-turn nudge, and
// the canned notices for refusals and exhausted budgets.
package prompts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ChamsBouzaiene/dojo/internal/policy"
	"github.com/ChamsBouzaiene/dojo/internal/validate"
)

// System composes the session's system message: the filled base prompt,
// the mode's own teaching instructions, and an optional education block
// describing the student's current level. The result is fixed for the
// life of the session.
func System(profile policy.ModeProfile, education string) string {
	base := fill(tutorBase, map[string]string{
		"domain":    domainName(profile),
		"max_lines": strconv.Itoa(profile.MaxLines),
		"rules":     validate.RulesSummary(profile),
	})
	sections := []string{
		base,
		"[MODE: " + profile.ID + "]\n" + profile.Instructions,
	}
	if edu := strings.TrimSpace(education); edu != "" {
		sections = append(sections, "[STUDENT]\n"+edu)
	}
	return strings.Join(sections, "\n\n")
}

// fill substitutes {{key}} slots. Keys missing from vars stay in place,
// which makes a forgotten slot visible in the composed prompt instead
// of silently vanishing.
func fill(template string, vars map[string]string) string {
	for key, value := range vars {
		template = strings.ReplaceAll(template, "{{"+key+"}}", value)
	}
	return template
}

func domainName(profile policy.ModeProfile) string {
	switch profile.Family {
	case policy.FamilyWeb:
		return "front-end web pages (HTML, CSS and vanilla JavaScript)"
	default:
		return "beginner-friendly Python"
	}
}

// Nudge reminds the model to deliver code through the write tool. It
// is appended when a reply carries a fenced code block but no tool
// call.
func Nudge(profile policy.ModeProfile) string {
	return fmt.Sprintf(
		"You pasted code into the chat instead of saving it. Use the write tool to save it as a file (%s, at most %d lines), then explain the interesting lines in prose. Do not repeat the code in your reply.",
		strings.Join(profile.Extensions, " or "), profile.MaxLines)
}

// ScopeRefusal is the canned reply for requests the tutor will not
// forward to the model at all.
func ScopeRefusal(topic string) string {
	return fmt.Sprintf("Sorry, %s is outside what this dojo teaches. %s", topic, policy.ScopeDescription)
}

// LimitationNotice is shown when every correction attempt for a turn
// produced another rule-breaking response.
func LimitationNotice(profile policy.ModeProfile) string {
	return fmt.Sprintf(
		"I couldn't put together an answer that fits the %s mode's rules this time. Try a smaller step, for example one function or one concept, and I'll have another go.",
		profile.ID)
}

// BudgetNotice is shown when the session's iteration budget runs out.
func BudgetNotice() string {
	return "This session has used up its thinking budget. Your files and progress are saved; use /reset or start a new session to keep going."
}
