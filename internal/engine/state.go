package engine

// RunState tracks where the loop is inside a turn.
type RunState string

const (
	// StateAwaitingInput means no turn is in flight.
	StateAwaitingInput RunState = "awaiting_input"
	// StateGenerating means a backend call is in flight.
	StateGenerating RunState = "generating"
	// StateValidating means a response is being checked against the mode rules.
	StateValidating RunState = "validating"
	// StateExecuting means accepted tool calls are running.
	StateExecuting RunState = "executing"
	// StateCorrecting means a rejected response is being retried.
	StateCorrecting RunState = "correcting"
	// StateBudgetExhausted means the session iteration budget ran out.
	// It ends the turn, never the session: the next Run call reports it again.
	StateBudgetExhausted RunState = "budget_exhausted"
)

// State carries everything the loop mutates across a session. It is
// owned by a single goroutine; hooks receive it read-only.
type State struct {
	// History is the model-facing conversation. It only ever grows:
	// rejected responses are never appended, so nothing here has to be
	// unsaid later.
	History []ChatMessage

	Run  RunState
	Turn int // completed user turns

	// Iterations counts backend calls across the whole session against
	// Budget. Corrections and nudges consume iterations like any other
	// generation; only Reset restores the budget.
	Iterations int
	Budget     int

	// Retries counts rejected responses this turn, Nudges counts
	// delivery reminders this turn. Both reset when a new turn starts.
	Retries    int
	MaxRetries int
	Nudges     int
	MaxNudges  int

	// Done marks the current turn finished (final reply produced).
	Done bool

	Model  string
	Totals Usage
}

// Append adds a message to the conversation.
func (s *State) Append(msg ChatMessage) {
	s.History = append(s.History, msg)
}

// BudgetLeft returns how many backend calls remain in the session.
func (s *State) BudgetLeft() int {
	left := s.Budget - s.Iterations
	if left < 0 {
		return 0
	}
	return left
}

// AddUsage folds one response's token counts into the session totals.
func (s *State) AddUsage(u Usage) {
	s.Totals.Prompt += u.Prompt
	s.Totals.Completion += u.Completion
	s.Totals.Total += u.Total
}
