// Package metrics keeps per-session counters for the /metrics command
// and the final session record. Counters never leave the session; there
// is no cross-session aggregation anywhere.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Snapshot is a point-in-time copy of every counter. The maps belong
// to the caller.
type Snapshot struct {
	Iterations     int            `json:"iterations"`
	Retries        int            `json:"retries"`
	Nudges         int            `json:"nudges"`
	ScopeRefusals  int            `json:"scope_refusals"`
	TokensIn       int            `json:"tokens_in"`
	TokensOut      int            `json:"tokens_out"`
	ConceptsTaught int            `json:"concepts_taught"`
	Violations     map[string]int `json:"violations"`
	ToolCalls      map[string]int `json:"tool_calls"`
}

// Collector accumulates counters behind a mutex. All methods are safe
// for concurrent use, though in practice one session drives one
// collector from one goroutine.
type Collector struct {
	mu             sync.Mutex
	iterations     int
	retries        int
	nudges         int
	scopeRefusals  int
	tokensIn       int
	tokensOut      int
	conceptsTaught int
	violations     map[string]int
	toolCalls      map[string]int
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{
		violations: make(map[string]int),
		toolCalls:  make(map[string]int),
	}
}

func (c *Collector) AddIteration() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.iterations++
}

func (c *Collector) AddRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries++
}

func (c *Collector) AddNudge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nudges++
}

func (c *Collector) AddScopeRefusal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scopeRefusals++
}

func (c *Collector) AddTokens(in, out int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokensIn += in
	c.tokensOut += out
}

func (c *Collector) AddViolation(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.violations[kind]++
}

func (c *Collector) AddToolCall(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toolCalls[name]++
}

func (c *Collector) AddConcepts(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conceptsTaught += n
}

// Snapshot copies every counter. The returned maps are fresh; callers
// may keep or mutate them freely.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	violations := make(map[string]int, len(c.violations))
	for k, v := range c.violations {
		violations[k] = v
	}
	toolCalls := make(map[string]int, len(c.toolCalls))
	for k, v := range c.toolCalls {
		toolCalls[k] = v
	}

	return Snapshot{
		Iterations:     c.iterations,
		Retries:        c.retries,
		Nudges:         c.nudges,
		ScopeRefusals:  c.scopeRefusals,
		TokensIn:       c.tokensIn,
		TokensOut:      c.tokensOut,
		ConceptsTaught: c.conceptsTaught,
		Violations:     violations,
		ToolCalls:      toolCalls,
	}
}

// Display renders the counters for the /metrics command.
func (s Snapshot) Display() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Iterations : %d\n", s.Iterations)
	fmt.Fprintf(&b, "Retries    : %d\n", s.Retries)
	fmt.Fprintf(&b, "Nudges     : %d\n", s.Nudges)
	fmt.Fprintf(&b, "Refusals   : %d\n", s.ScopeRefusals)
	fmt.Fprintf(&b, "Tokens     : %d in / %d out\n", s.TokensIn, s.TokensOut)
	fmt.Fprintf(&b, "Concepts   : %d\n", s.ConceptsTaught)
	if len(s.Violations) > 0 {
		b.WriteString("Violations :\n")
		for _, k := range sortedKeys(s.Violations) {
			fmt.Fprintf(&b, "  %s: %d\n", k, s.Violations[k])
		}
	}
	if len(s.ToolCalls) > 0 {
		b.WriteString("Tool calls :\n")
		for _, k := range sortedKeys(s.ToolCalls) {
			fmt.Fprintf(&b, "  %s: %d\n", k, s.ToolCalls[k])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
