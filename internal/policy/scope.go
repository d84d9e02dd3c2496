package policy

import (
	"regexp"
	"strings"
)

// offTopic pairs a detection pattern with the topic named in the
// refusal. Patterns are matched against lowercased input and use word
// boundaries so "javascript" never trips the "java" rule. The list is
// deliberately conservative: it only catches requests that are clearly
// about another language or domain, and lets everything ambiguous
// through to the model.
var offTopic = []struct {
	re    *regexp.Regexp
	topic string
}{
	{regexp.MustCompile(`\bjava\b`), "Java"},
	{regexp.MustCompile(`\brust\b`), "Rust"},
	{regexp.MustCompile(`\bgolang\b`), "Go"},
	{regexp.MustCompile(`\bkotlin\b`), "Kotlin"},
	{regexp.MustCompile(`\bswift\b`), "Swift"},
	{regexp.MustCompile(`\bc\+\+`), "C++"},
	{regexp.MustCompile(`\bc#`), "C#"},
	{regexp.MustCompile(`\bruby\b`), "Ruby"},
	{regexp.MustCompile(`\bphp\b`), "PHP"},
	{regexp.MustCompile(`\bperl\b`), "Perl"},
	{regexp.MustCompile(`\bscala\b`), "Scala"},
	{regexp.MustCompile(`\bhaskell\b`), "Haskell"},
	{regexp.MustCompile(`\belixir\b`), "Elixir"},
	{regexp.MustCompile(`\bdart\b`), "Dart"},
	{regexp.MustCompile(`\bflutter\b`), "Flutter"},
	{regexp.MustCompile(`\breact native\b`), "React Native"},
	{regexp.MustCompile(`\bandroid app\b`), "Android development"},
	{regexp.MustCompile(`\bios app\b`), "iOS development"},
	{regexp.MustCompile(`\bunity\b`), "Unity"},
	{regexp.MustCompile(`\bunreal engine\b`), "Unreal Engine"},
	{regexp.MustCompile(`\bterraform\b`), "Terraform"},
	{regexp.MustCompile(`\bkubernetes\b`), "Kubernetes"},
	{regexp.MustCompile(`\bdocker\b`), "Docker"},
	{regexp.MustCompile(`\bansible\b`), "Ansible"},
	{regexp.MustCompile(`\bblockchain\b`), "blockchain"},
	{regexp.MustCompile(`\bsolidity\b`), "Solidity"},
	{regexp.MustCompile(`\bweb3\b`), "web3"},
	{regexp.MustCompile(`\bcrypto trading\b`), "crypto trading"},
	{regexp.MustCompile(`\bsql server\b`), "SQL Server administration"},
	{regexp.MustCompile(`\bmongodb\b`), "MongoDB"},
}

// ScopeDescription is the canned notice shown instead of a response
// when a request is refused as out of scope.
const ScopeDescription = "I can only help with the topics this tutor covers: " +
	"core Python, py5 creative coding, scikit-learn, pandas, plain web pages " +
	"(HTML/CSS/JS), A-Frame, and three.js. Pick one of those and I'm all yours."

// CheckScope screens a user request before it reaches the model. It
// returns ok=false with the offending topic when the request is
// clearly about a language or domain this tutor does not teach.
// Anything without a strong signal passes; the output validator is the
// real enforcement layer.
func CheckScope(input string) (bool, string) {
	lowered := strings.ToLower(input)
	for _, rule := range offTopic {
		if rule.re.MatchString(lowered) {
			return false, rule.topic
		}
	}
	return true, ""
}
