package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ChamsBouzaiene/dojo/internal/engine"
	"github.com/ChamsBouzaiene/dojo/internal/sandbox"
	"github.com/ChamsBouzaiene/dojo/internal/security"
)

const (
	defaultBashTimeout = 30 * time.Second
	minBashTimeout     = 5 * time.Second
	maxBashTimeout     = 2 * time.Minute
	maxBashOutput      = 10 * 1024
)

func bashImpl(ctx context.Context, runner sandbox.Runner, dir, command string, timeout time.Duration) (string, error) {
	// The blocklist runs before anything reaches a runner, sandboxed or
	// not.
	if err := security.CheckCommand(command); err != nil {
		return "", err
	}

	res, err := runner.RunCmd(ctx, dir, command, timeout)
	if err != nil {
		return "", fmt.Errorf("command runner failed: %w", err)
	}

	out, err := json.Marshal(map[string]any{
		"stdout":    clipOutput(res.Stdout),
		"stderr":    clipOutput(res.Stderr),
		"exit_code": res.Code,
		"timed_out": res.TimedOut,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func clipOutput(s string) string {
	if len(s) <= maxBashOutput {
		return s
	}
	return s[:maxBashOutput] + "\n... [output truncated]"
}

// parseTimeoutSeconds accepts the optional timeout_seconds argument.
// JSON numbers arrive as float64; ints show up in tests.
func parseTimeoutSeconds(value any) time.Duration {
	var seconds float64
	switch v := value.(type) {
	case float64:
		seconds = v
	case int:
		seconds = float64(v)
	default:
		return defaultBashTimeout
	}
	if seconds <= 0 {
		return defaultBashTimeout
	}
	d := time.Duration(seconds * float64(time.Second))
	if d < minBashTimeout {
		return minBashTimeout
	}
	if d > maxBashTimeout {
		return maxBashTimeout
	}
	return d
}

// NewBashTool returns the bash tool, bound to the working root and a
// runner. Only python-family modes ever register it.
func NewBashTool(dir string, runner sandbox.Runner) engine.Tool {
	return engine.Tool{
		Name:        "bash",
		Description: "Runs a shell command in the working directory, typically to execute the lesson's Python file. Output is truncated past 10KB.",
		SchemaJSON:  `{"type":"object","properties":{"command":{"type":"string","description":"Shell command to run"},"timeout_seconds":{"type":"integer","minimum":5,"maximum":120,"description":"Seconds to allow the command to run (default 30)"}},"required":["command"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			command, ok := args["command"].(string)
			if !ok {
				return "", fmt.Errorf("command must be a string")
			}
			timeout := parseTimeoutSeconds(args["timeout_seconds"])
			return bashImpl(ctx, runner, dir, command, timeout)
		},
	}
}
