package matching

import (
	"errors"
	"fmt"
)

// Kind tags a pipeline stage failure. Only transient failures are worth
// retrying; every other kind is terminal for the run.
type Kind string

const (
	KindTransient     Kind = "transient"
	KindNoCandidates  Kind = "no_candidates"
	KindHallucination Kind = "hallucination"
	KindSchemaInvalid Kind = "schema_invalid"
)

// StageError wraps a failure from one pipeline stage with its kind.
type StageError struct {
	Stage   string
	Kind    Kind
	Message string
	cause   error
}

func newStageError(stage string, kind Kind, message string) *StageError {
	return &StageError{Stage: stage, Kind: kind, Message: message}
}

func wrapStageError(stage string, kind Kind, err error, message string) *StageError {
	return &StageError{Stage: stage, Kind: kind, Message: message, cause: err}
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// KindOf extracts the failure kind from an error chain; unclassified errors
// report transient so at-least-once delivery retries them.
func KindOf(err error) Kind {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Kind
	}
	return KindTransient
}

// IsTransient reports whether the error is worth another attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == KindTransient
}
