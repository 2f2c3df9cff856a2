package services

import (
	"errors"
	"fmt"
)

var (
	ErrExportInProgress   = errors.New("export already in progress")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrFieldNotApplicable = errors.New("field does not belong to this letter type")
	ErrInvalidTimeSlot    = errors.New("time of death must be a half-hour slot HH:MM")
)

// ValidationError lists the hard-invalid fields that block preview, print
// and export.
type ValidationError struct {
	Fields map[string]LengthCheck
}

func (e *ValidationError) Error() string {
	for field, check := range e.Fields {
		return fmt.Sprintf("%s: %s", field, check.Guidance())
	}
	return "validation failed"
}

// ExportError wraps a failure of the export sink.
type ExportError struct {
	Filename string
	Err      error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Filename, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// transitionError reports an operation attempted in the wrong state.
func transitionError(op string, from State) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, op, from)
}
