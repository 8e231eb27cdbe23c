package cleanup

import (
	"errors"
	"fmt"
)

// Stage identifies where a pass failed.
type Stage string

const (
	StageBuild  Stage = "build"
	StageRun    Stage = "run"
	StageMutate Stage = "mutate"
)

// PassError is returned when a query could not be built or run, or when the
// mutation batch was cut short by cancellation. It aborts the affected pass
// only.
type PassError struct {
	Kind  DeleteKind
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *PassError) Error() string {
	return fmt.Sprintf("%s delete pass %s stage failed: %v", e.Kind, e.Stage, e.Err)
}

// Unwrap returns the underlying error for error chain support.
func (e *PassError) Unwrap() error {
	return e.Err
}

// NewPassError creates a new pass error.
func NewPassError(kind DeleteKind, stage Stage, err error) *PassError {
	return &PassError{Kind: kind, Stage: stage, Err: err}
}

// ErrRunInProgress is returned by Job.Run when another run holds the lock.
var ErrRunInProgress = errors.New("a cleanup run is already in progress")

// ErrAllPassesFailed is wrapped by Pipeline.Run when no pass completed.
var ErrAllPassesFailed = errors.New("all cleanup passes failed")
