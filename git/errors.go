package git

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, check with errors.Is.
var (
	// ErrInvalidArgument is returned before any process runs when a command
	// cannot be built from its arguments.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrProcessExecution indicates a non-zero exit or a missing executable.
	ErrProcessExecution = errors.New("process execution failure")

	// ErrUnexpectedOutputShape indicates a command ran but its output could
	// not be used, e.g. a hash that is too short to truncate.
	ErrUnexpectedOutputShape = errors.New("unexpected output shape")

	// ErrRepositoryStateConflict indicates git refused the operation because
	// of the repository state (existing branch, dirty tree, unmerged files).
	ErrRepositoryStateConflict = errors.New("repository state conflict")
)

// ArgumentError describes a bad builder input.
type ArgumentError struct {
	Intent Intent
	Name   string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: argument %q %s", e.Intent, e.Name, e.Reason)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// OutputShapeError describes command output that can't be consumed.
type OutputShapeError struct {
	Output string
	Reason string
}

func (e *OutputShapeError) Error() string {
	return fmt.Sprintf("unexpected output %q: %s", e.Output, e.Reason)
}

func (e *OutputShapeError) Is(target error) bool {
	return target == ErrUnexpectedOutputShape
}

// CommandError is returned by executors when a step fails.
type CommandError struct {
	Command string
	Stdout  string
	Stderr  string
	Err     error

	// Conflict is set when stderr shows git refused because of repository state.
	Conflict bool
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command failed: %s", e.Command)
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func (e *CommandError) Is(target error) bool {
	if target == ErrProcessExecution {
		return true
	}
	return e.Conflict && target == ErrRepositoryStateConflict
}

var conflictMarkers = []string{
	"already exists",
	"would be overwritten",
	"unmerged files",
	"you have unmerged",
	"not possible because you have",
	"please commit your changes or stash them",
}

// NewCommandError builds a CommandError and classifies repository state
// conflicts from the captured stderr.
func NewCommandError(command, stdout, stderr string, err error) *CommandError {
	lower := strings.ToLower(stderr)
	conflict := false
	for _, marker := range conflictMarkers {
		if strings.Contains(lower, marker) {
			conflict = true
			break
		}
	}
	return &CommandError{
		Command:  command,
		Stdout:   stdout,
		Stderr:   stderr,
		Err:      err,
		Conflict: conflict,
	}
}
