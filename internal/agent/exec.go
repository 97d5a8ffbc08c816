package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// killGrace is how long Wait lets output pipes drain after the process
// group has been killed.
const killGrace = 2 * time.Second

// execSpec describes one external analyzer invocation.
type execSpec struct {
	Command string
	Args    []string
	Dir     string
	Env     []string // Appended to the inherited environment
}

// ExecutionResult streams a running command's stdout. Exit code and
// stderr are available after Close.
type ExecutionResult struct {
	stdout    io.ReadCloser
	cmd       *exec.Cmd
	stderr    *bytes.Buffer
	exitCode  int
	waitErr   error
	closeOnce sync.Once
}

// Read implements io.Reader.
func (r *ExecutionResult) Read(p []byte) (int, error) {
	return r.stdout.Read(p)
}

// Close waits for the process. If the context was canceled the process
// group has already been killed by exec.Cmd.Cancel. Safe to call more than once.
func (r *ExecutionResult) Close() error {
	r.closeOnce.Do(func() {
		// Drain so the child never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, r.stdout)

		err := r.cmd.Wait()
		var exitErr *exec.ExitError
		switch {
		case err == nil:
			r.exitCode = 0
		case errors.As(err, &exitErr):
			r.exitCode = exitErr.ExitCode()
		default:
			r.exitCode = -1
			r.waitErr = err
		}
	})
	return r.waitErr
}

// ExitCode is the process exit code; -1 if the process could not be waited
// on or was killed by a signal. Valid after Close.
func (r *ExecutionResult) ExitCode() int {
	return r.exitCode
}

// Stderr is the captured stderr output. Valid after Close.
func (r *ExecutionResult) Stderr() string {
	return r.stderr.String()
}

// executeCommand starts spec in its own process group with stdout piped.
// Canceling ctx kills the whole group so no analyzer subprocess outlives
// the run.
func executeCommand(ctx context.Context, spec execSpec) (*ExecutionResult, error) {
	// #nosec G204 - command and args come from the user's own config file.
	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(cmd.Environ(), spec.Env...)
	}

	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Negative pid targets the process group.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = killGrace

	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", spec.Command, err)
	}

	return &ExecutionResult{stdout: stdout, cmd: cmd, stderr: stderr}, nil
}
