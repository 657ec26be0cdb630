// Package errors provides structured errors for the query pipeline. Each
// error carries a stage-level type so callers can distinguish recoverable
// failures (validation, execution) from terminal ones (generation).
package errors

import (
	"errors"
	"fmt"
)

// ErrorType categorizes pipeline errors.
type ErrorType string

const (
	// ErrTypeGeneration means no parsable SQL came back from the model;
	// terminal for the turn.
	ErrTypeGeneration ErrorType = "generation"
	// ErrTypeValidation covers syntax and table-whitelist failures.
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeDryRun covers write-path dry-run failures.
	ErrTypeDryRun ErrorType = "dry_run"
	// ErrTypeExecution covers runtime database errors.
	ErrTypeExecution ErrorType = "execution"
	// ErrTypeApprovalRejected records a user veto; a normal terminal state
	// for one statement, never fatal for the turn.
	ErrTypeApprovalRejected ErrorType = "approval_rejected"
	// ErrTypeConnectionNotFound means a routing comment named a database
	// with no live connection.
	ErrTypeConnectionNotFound ErrorType = "connection_not_found"
	// ErrTypeLLM covers completion-service transport failures.
	ErrTypeLLM ErrorType = "llm"
	// ErrTypeConfig covers configuration problems.
	ErrTypeConfig ErrorType = "config"
	// ErrTypeInternal is the catch-all for unclassified errors.
	ErrTypeInternal ErrorType = "internal"
)

// Error represents a structured error with type and optional suggestions.
type Error struct {
	Type        ErrorType
	Message     string
	Cause       error
	Suggestions []string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithSuggestion adds a suggestion for resolving the error.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// New creates a new structured error.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new structured error with a formatted message.
func Newf(errType ErrorType, format string, args ...any) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, errType ErrorType, format string, args ...any) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// IsType checks if an error is of a specific type.
func IsType(err error, errType ErrorType) bool {
	var structErr *Error
	if errors.As(err, &structErr) {
		return structErr.Type == errType
	}

	return false
}

// GetType returns the error type if it's a structured error.
func GetType(err error) ErrorType {
	var structErr *Error
	if errors.As(err, &structErr) {
		return structErr.Type
	}

	return ErrTypeInternal
}
