package build

import (
	"fmt"

	"buildcap/internal/errors"
)

// ErrInvalidPath is returned when the project or solution path is empty or
// does not name an existing file.
var ErrInvalidPath = errors.New("invalid project or solution path")

// LaunchFailure means the build driver could not be started at all.
type LaunchFailure struct {
	Path  string
	Cause error
}

func (e *LaunchFailure) Error() string {
	return fmt.Sprintf("unexpected failure when trying to build %s: %v", e.Path, e.Cause)
}

func (e *LaunchFailure) Unwrap() error { return e.Cause }

// BuildFailure means the driver ran but did not succeed. Output holds the
// merged stdout/stderr lines. Cause is set when the run was cut short, for
// example by a cancelled context.
type BuildFailure struct {
	Path     string
	ExitCode int
	Output   string
	Cause    error
}

func (e *BuildFailure) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unable to build %s: %v. Output:\n%s", e.Path, e.Cause, e.Output)
	}
	return fmt.Sprintf("unable to build %s (exit code %d). Reason:\n%s", e.Path, e.ExitCode, e.Output)
}

func (e *BuildFailure) Unwrap() error { return e.Cause }
