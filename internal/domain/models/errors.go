package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures.
type ErrorKind int

const (
	InvalidInput ErrorKind = iota + 1
	InferenceFailure
	SchemaMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case InferenceFailure:
		return "inference_failure"
	case SchemaMismatch:
		return "schema_mismatch"
	default:
		return "unknown"
	}
}

// PredictionError is the single error type the pipeline returns.
type PredictionError struct {
	Kind  ErrorKind
	Field string
	Err   error
}

func (e *PredictionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return e.Err.Error()
}

func (e *PredictionError) Unwrap() error { return e.Err }

// NewInvalidInput reports a field whose value could not be used.
func NewInvalidInput(field string, err error) *PredictionError {
	return &PredictionError{Kind: InvalidInput, Field: field, Err: err}
}

// NewInferenceFailure wraps a predictor failure.
func NewInferenceFailure(err error) *PredictionError {
	return &PredictionError{Kind: InferenceFailure, Err: err}
}

// NewSchemaMismatch reports input that does not fit the model's columns.
func NewSchemaMismatch(err error) *PredictionError {
	return &PredictionError{Kind: SchemaMismatch, Err: err}
}

// KindOf extracts the ErrorKind from err, or 0 if err is not a PredictionError.
func KindOf(err error) ErrorKind {
	var pe *PredictionError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
