package engine

import "time"

// Loop defaults. The iteration budget is per session, the retry and
// nudge caps are per turn.
const (
	DefaultIterationBudget = 50
	DefaultMaxRetries      = 2
	DefaultMaxNudges       = 2
)

// AgentConfig holds everything the loop needs beyond its collaborators.
type AgentConfig struct {
	Model        string
	SystemPrompt string

	// MaxRetries caps correction rounds per turn; MaxNudges caps
	// "use the write tool" reminders per turn. Budget caps backend
	// calls per session.
	MaxRetries int
	MaxNudges  int
	Budget     int

	Temperature     float32
	MaxOutputTokens int

	RetryConfig *RetryConfig // nil = DefaultRetryConfig
}

// DefaultAgentConfig returns the standard tutoring configuration.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		MaxRetries:      DefaultMaxRetries,
		MaxNudges:       DefaultMaxNudges,
		Budget:          DefaultIterationBudget,
		Temperature:     0.2,
		MaxOutputTokens: 2048,
	}
}

// DefaultRetryConfig returns sensible default retry policies for
// backend calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		BackendPolicy: RetryPolicy{
			MaxRetries:   3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			Jitter:       true,
		},
	}
}

func (c AgentConfig) retryPolicy() RetryPolicy {
	if c.RetryConfig != nil {
		return c.RetryConfig.BackendPolicy
	}
	return DefaultRetryConfig().BackendPolicy
}

func (c AgentConfig) chatOptions() ChatOptions {
	return ChatOptions{
		Temperature:     c.Temperature,
		MaxOutputTokens: c.MaxOutputTokens,
		RetryConfig:     c.RetryConfig,
	}
}
