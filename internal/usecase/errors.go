package usecase

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every failure returned by Run wraps exactly one of them.
var (
	ErrPrecondition      = errors.New("source too short")
	ErrProbe             = errors.New("probe failed")
	ErrWorkspace         = errors.New("workspace unavailable")
	ErrDetection         = errors.New("scene detection failed")
	ErrSegmentExtraction = errors.New("segment extraction failed")
	ErrConcatenation     = errors.New("concatenation failed")
	ErrMux               = errors.New("audio mux failed")
	ErrCleanup           = errors.New("workspace cleanup failed")
)

// StageError is the failure of one pipeline stage.
type StageError struct {
	Stage State
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v: %v", strings.ToLower(e.Stage.String()), e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error { return []error{e.Kind, e.Err} }

// Diagnostic returns the external tool output attached to the cause, if any.
func (e *StageError) Diagnostic() string {
	var d interface{ Diagnostic() string }
	if errors.As(e.Err, &d) {
		return d.Diagnostic()
	}
	return ""
}

func stageErr(stage State, kind, err error) error {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}
