package validate

import "regexp"

// Language detection is deliberately crude. A single strong HTML tag
// is enough to call content HTML; JavaScript and Python need two
// independent signals so that an innocent word in a string does not
// condemn a whole file. Erring toward rejection is fine here, the cost
// of a false positive is one correction round.

var htmlTagRe = regexp.MustCompile(`(?i)<(!DOCTYPE|html|head|body|div|script|style)\b`)

var jsSignals = []*regexp.Regexp{
	regexp.MustCompile(`document\.(getElementById|querySelector|createElement)`),
	regexp.MustCompile(`console\.log`),
	regexp.MustCompile(`window\.`),
	regexp.MustCompile(`addEventListener`),
	regexp.MustCompile(`\bfunction\s+\w+\s*\(`),
}

var pythonSignals = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*def\s+\w+\s*\(`),
	regexp.MustCompile(`(?m)^\s*class\s+\w+`),
	regexp.MustCompile(`(?m)^\s*import\s+\w`),
	regexp.MustCompile(`(?m)^\s*from\s+[\w.]+\s+import\b`),
	regexp.MustCompile(`\bprint\s*\(`),
}

func signalCount(signals []*regexp.Regexp, content string) int {
	n := 0
	for _, re := range signals {
		if re.MatchString(content) {
			n++
		}
	}
	return n
}

func looksLikeHTML(content string) bool {
	return htmlTagRe.MatchString(content)
}

func looksLikeJS(content string) bool {
	return signalCount(jsSignals, content) >= 2
}

func looksLikePython(content string) bool {
	return signalCount(pythonSignals, content) >= 2
}
