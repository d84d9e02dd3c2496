package engine

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrBudgetExhausted is returned by Run when the session iteration
// budget is spent. It ends the turn, not the session.
var ErrBudgetExhausted = errors.New("iteration budget exhausted")

// RetryClass sorts backend errors by what a retry could achieve.
type RetryClass string

const (
	// RetryClassRetryable errors are transient: rate limits, 5xx,
	// connection trouble, a local model still loading.
	RetryClassRetryable RetryClass = "retryable"
	// RetryClassMaybe errors might clear but usually mean the request
	// itself is too heavy; they get at most two attempts.
	RetryClassMaybe RetryClass = "maybe"
	// RetryClassNonRetryable errors will fail identically next time.
	RetryClassNonRetryable RetryClass = "non_retryable"
)

// EngineError carries what the provider layer learned about a failed
// backend call: the class, the HTTP status when there was one, and any
// Retry-After hint the server sent.
type EngineError struct {
	Err        error
	Class      RetryClass
	HTTPStatus int
	RetryAfter string
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("backend error (%s)", e.Class)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// WrapLLMError attaches transport metadata to a failed backend call.
// The HTTP status decides the class when one is known; otherwise the
// message is sniffed, which is all local backends give us.
func WrapLLMError(err error, httpStatus int, retryAfter string) error {
	if err == nil {
		return nil
	}
	class, ok := classifyStatus(httpStatus)
	if !ok {
		class = classifyMessage(err.Error())
	}
	return &EngineError{Err: err, Class: class, HTTPStatus: httpStatus, RetryAfter: retryAfter}
}

// ClassifyBackendError decides whether a backend error is worth
// retrying. Wrapped EngineErrors carry their class already; bare
// errors are classified by message.
func ClassifyBackendError(err error) RetryClass {
	if err == nil {
		return RetryClassNonRetryable
	}
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Class
	}
	return classifyMessage(err.Error())
}

func classifyStatus(status int) (RetryClass, bool) {
	switch {
	case status == 0:
		return "", false
	case status == http.StatusTooManyRequests, status >= 500:
		return RetryClassRetryable, true
	case status == http.StatusRequestTimeout:
		return RetryClassMaybe, true
	case status >= 400:
		return RetryClassNonRetryable, true
	default:
		return "", false
	}
}

// messageClasses is checked in order; the first marker hit wins. The
// retryable group covers rate limits, 5xx and connection trouble plus
// Ollama's "model is loading"; the maybe group is timeouts and context
// overflow; everything recognizably 4xx is hopeless.
var messageClasses = []struct {
	class   RetryClass
	markers []string
}{
	{RetryClassRetryable, []string{
		"429", "rate limit", "too many requests",
		"500", "502", "503", "504",
		"internal server error", "bad gateway", "service unavailable", "gateway timeout",
		"model is loading",
		"timeout", "connection reset", "connection refused", "no such host",
		"network", "dns", "temporary failure",
	}},
	{RetryClassMaybe, []string{
		"deadline exceeded",
		"context length", "token limit", "maximum context length",
	}},
	{RetryClassNonRetryable, []string{
		"401", "403", "unauthorized", "forbidden", "invalid api key", "authentication failed",
		"400", "bad request", "invalid request", "malformed",
		"404", "not found",
	}},
}

func classifyMessage(msg string) RetryClass {
	msg = strings.ToLower(msg)
	for _, group := range messageClasses {
		for _, marker := range group.markers {
			if strings.Contains(msg, marker) {
				return group.class
			}
		}
	}
	return RetryClassNonRetryable
}

// ExtractRetryAfter recovers a server-requested wait from an error.
// Zero means no usable hint was found.
func ExtractRetryAfter(err error) time.Duration {
	var engineErr *EngineError
	if errors.As(err, &engineErr) && engineErr.RetryAfter != "" {
		if d, ok := parseRetryAfter(engineErr.RetryAfter); ok {
			return d
		}
	}

	// Some backends only mention the wait in the message body.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "retry after") {
		var seconds int
		if _, err := fmt.Sscanf(msg, "retry after %d", &seconds); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}

// parseRetryAfter accepts the two header forms: delta seconds and an
// HTTP date.
func parseRetryAfter(value string) (time.Duration, bool) {
	var seconds int
	if _, err := fmt.Sscanf(value, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second, true
	}
	if t, err := time.Parse(time.RFC1123, value); err == nil {
		if wait := time.Until(t); wait > 0 {
			return wait, true
		}
	}
	return 0, false
}

// RetryExhaustedError means every allowed attempt failed. Guarded
// exhaustion is the tighter cap on "maybe" class errors.
type RetryExhaustedError struct {
	Err         error
	Attempts    int
	MaxAttempts int
	IsGuarded   bool
}

func (e *RetryExhaustedError) Error() string {
	if e.IsGuarded {
		return fmt.Sprintf("guarded retries exhausted after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// IsRetryExhausted reports whether err is a RetryExhaustedError.
func IsRetryExhausted(err error) bool {
	var exhausted *RetryExhaustedError
	return errors.As(err, &exhausted)
}

// BackendError means the model backend could not produce a response at
// all, retries included. It ends the turn without consuming a
// correction slot: the student did nothing wrong.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("model backend failed: %v", e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// ToolValidationError means the model's tool arguments failed the
// tool's JSON schema. The message goes back to the model verbatim.
type ToolValidationError struct {
	ToolName string
	Errors   []string
}

func (e *ToolValidationError) Error() string {
	return fmt.Sprintf("tool %s validation failed: %s", e.ToolName, strings.Join(e.Errors, "; "))
}

// DisallowedToolError means the model asked for a tool the active mode
// does not grant. Dispatch refuses before anything runs.
type DisallowedToolError struct {
	Tool string
	Mode string
}

func (e *DisallowedToolError) Error() string {
	return fmt.Sprintf("tool %q is not available in mode %s", e.Tool, e.Mode)
}
