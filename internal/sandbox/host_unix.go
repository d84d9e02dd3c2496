//go:build !windows
// +build !windows

package sandbox

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"syscall"
	"time"
)

// HostRunner executes commands directly on the host. No isolation
// beyond the process group; used when Docker is unavailable or the
// operator opted out.
type HostRunner struct {
	config Config
}

// RunCmd runs command via `sh -c` in dir, killing the whole process
// group when the timeout fires.
func (r *HostRunner) RunCmd(ctx context.Context, dir, command string, timeout time.Duration) (Result, error) {
	cctx, cancel := context.WithTimeout(ctx, r.config.timeoutOrDefault(timeout))
	defer cancel()

	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = dir
	// Own process group so children die with the parent on timeout
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{}, err
	}
	stop := killGroupOnCancel(cctx, cmd)
	waitErr := cmd.Wait()
	stop()

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		TimedOut: cctx.Err() != nil,
	}
	if waitErr == nil {
		return res, nil
	}

	res.Code = 1
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		// A nonzero exit is a result, not an error: the model needs to
		// see the failing output to react to it.
		res.Code = exitErr.ExitCode()
		return res, nil
	}
	if res.TimedOut {
		return res, nil
	}
	return res, waitErr
}

// killGroupOnCancel kills cmd's whole process group if ctx ends before
// the returned stop function is called.
func killGroupOnCancel(ctx context.Context, cmd *exec.Cmd) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if cmd.Process != nil {
				syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
			}
		case <-done:
		}
	}()
	return func() { close(done) }
}
