package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a requested record, row or backup does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidation indicates a schema graph failed required-field validation.
	ErrValidation = errors.New("schema validation failed")

	// ErrBackupFailed indicates a requested backup could not be written, so the
	// destructive write that depended on it was not attempted.
	ErrBackupFailed = errors.New("backup failed")

	// ErrUnsupportedType indicates an unknown schema or page type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates no generative model is configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrDuplicateSchemaType indicates two entities would share one meta key.
	ErrDuplicateSchemaType = errors.New("duplicate schema type")
)

// TargetError attaches the failing URL or record to a collaborator error.
type TargetError struct {
	Target string
	Err    error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("%s: %v", e.Target, e.Err)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}

// WithTarget wraps err with target, or returns nil when err is nil.
func WithTarget(target string, err error) error {
	if err == nil {
		return nil
	}
	return &TargetError{Target: target, Err: err}
}
