package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// ExecRunner runs commands as real child processes sharing the launcher's
// standard streams, so installer and server diagnostics pass through verbatim.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Env is appended to the launcher's environment.
	Env []string

	// WaitDelay bounds how long Run waits after forwarding an interrupt
	// before the child is killed.
	WaitDelay time.Duration
}

// NewExecRunner wires the runner to the process's own stdio.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		WaitDelay: 15 * time.Second,
	}
}

// Run starts cmd and waits. When ctx is cancelled the child receives an
// interrupt instead of being killed, and Run keeps waiting for it to exit.
func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = r.WaitDelay

	slog.Debug("running command", "command", c.String(), "dir", c.Dir)

	err := cmd.Run()
	if cmd.ProcessState == nil {
		if err == nil {
			return nil
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", c.Name, ErrNotFound)
		}
		return fmt.Errorf("starting %s: %w", c.Name, err)
	}

	if code := exitStatus(cmd.ProcessState); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// exitStatus returns the child's exit code, or 128+signal when it was
// terminated by a signal.
func exitStatus(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}
