package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// guardedAttempts caps retries for RetryClassMaybe errors regardless
// of the policy: a request that overflows the context window will not
// shrink by being resent.
const guardedAttempts = 2

// RetryPolicy shapes the backoff for one kind of operation.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// RetryConfig holds the retry policy for backend calls. Tool
// executions are never retried: a failed tool result goes back to the
// model, which decides what to do with it.
type RetryConfig struct {
	BackendPolicy RetryPolicy
}

// RetryableFunc is one attempt of a retried operation.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// RetryWithPolicy runs fn until it succeeds, the error class says
// stop, or the attempts run out. onRetry fires before each wait.
func RetryWithPolicy[T any](
	ctx context.Context,
	policy RetryPolicy,
	fn RetryableFunc[T],
	classify func(error) RetryClass,
	onRetry func(attempt int, delay time.Duration, err error),
) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		class := classify(err)
		switch {
		case class == RetryClassNonRetryable:
			return zero, err
		case attempt >= policy.MaxRetries:
			return zero, &RetryExhaustedError{Err: err, Attempts: attempt, MaxAttempts: policy.MaxRetries}
		case class == RetryClassMaybe && attempt >= guardedAttempts:
			return zero, &RetryExhaustedError{Err: err, Attempts: attempt, MaxAttempts: guardedAttempts, IsGuarded: true}
		}

		delay := nextDelay(policy, attempt, err)
		if onRetry != nil {
			onRetry(attempt+1, delay, err)
		}

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
}

// nextDelay honors a server-sent Retry-After when there is one,
// otherwise exponential backoff capped at MaxDelay. Jitter adds up to
// 20% on top so synchronized clients fan out.
func nextDelay(policy RetryPolicy, attempt int, err error) time.Duration {
	if wait := ExtractRetryAfter(err); wait > 0 {
		return min(wait, policy.MaxDelay)
	}

	backoff := float64(policy.InitialDelay) * math.Pow(policy.Multiplier, float64(attempt))
	backoff = math.Min(backoff, float64(policy.MaxDelay))
	if policy.Jitter {
		backoff += rand.Float64() * 0.2 * backoff
	}
	return time.Duration(backoff)
}

// RetryBackendCall is the retry wrapper the loop uses for every
// generation.
func RetryBackendCall(
	ctx context.Context,
	policy RetryPolicy,
	llm LLMClient,
	model string,
	messages []ChatMessage,
	toolSchemas []ToolSchema,
	opts ChatOptions,
	onRetry func(attempt int, delay time.Duration, err error),
) (LLMResponse, error) {
	return RetryWithPolicy(
		ctx,
		policy,
		func(ctx context.Context) (LLMResponse, error) {
			return llm.Chat(ctx, model, messages, toolSchemas, opts)
		},
		ClassifyBackendError,
		onRetry,
	)
}
