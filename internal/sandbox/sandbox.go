// Package sandbox runs student-facing shell commands with best-effort
// isolation. The Docker runner is a convenience layer, not a security
// boundary; the command blocklist in internal/security always runs
// before anything reaches a runner.
package sandbox

import (
	"context"
	"time"
)

// Result captures the output of one command.
type Result struct {
	Stdout   string
	Stderr   string
	Code     int
	TimedOut bool
}

// Runner executes one shell command line in a working directory.
// Implementations must kill the whole process tree on timeout; a
// student's runaway python script must not outlive its turn.
//
// The returned error means the runner itself failed. Command failure,
// nonzero exit or timeout, is expressed in Result so the model sees
// the output it needs to react to.
type Runner interface {
	// RunCmd runs command via `sh -c` in dir. timeout <= 0 selects the
	// runner's default.
	RunCmd(ctx context.Context, dir, command string, timeout time.Duration) (Result, error)
}
