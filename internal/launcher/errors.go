package launcher

import (
	"errors"
	"fmt"
	"os/exec"
)

// ExitNotFound is the shell convention for "command not found".
const ExitNotFound = 127

// ErrNotFound is returned by runners when the executable cannot be located.
var ErrNotFound = exec.ErrNotFound

// ExitError represents a non-zero exit from a sub-process.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.Code)
}

// ManifestError means the dependency manifest could not be resolved.
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("dependency manifest: %v", e.Err)
	}
	return fmt.Sprintf("dependency manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error { return e.Err }

// StepError wraps the failure of one launcher step with the exit status the
// launcher should report.
type StepError struct {
	Step string
	Code int
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ExitCode maps a Start error to the launcher's process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		if stepErr.Code == 0 {
			return 1
		}
		return stepErr.Code
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code != 0 {
		return exitErr.Code
	}
	return 1
}
