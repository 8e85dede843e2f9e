// Package errors provides structured error types for the Flowboard engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation and geometry failures
//   - NOT_FOUND_*: Resource not found
//   - Lifecycle codes: DUPLICATE_FLOWLINE, ORPHAN_TASK, CANNOT_DELETE_START_NODE
//   - REENTRANT_TRANSITION: a mode transition was requested while one is in flight
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDuplicateFlowline, "flowline %s -> %s exists", src, dst)
//	if errors.Is(err, errors.ErrCodeDuplicateFlowline) {
//	    // Handle duplicate
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStorage, origErr, "failed to load diagram %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation and geometry errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidGeometry Code = "INVALID_GEOMETRY"
	ErrCodeInvalidPathType Code = "INVALID_PATH_TYPE"
	ErrCodeInvalidNodeKind Code = "INVALID_NODE_KIND"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeNodeNotFound     Code = "NODE_NOT_FOUND"
	ErrCodeTaskNotFound     Code = "TASK_NOT_FOUND"
	ErrCodeFlowlineNotFound Code = "FLOWLINE_NOT_FOUND"
	ErrCodeDiagramNotFound  Code = "DIAGRAM_NOT_FOUND"

	// Topology lifecycle errors. These are always surfaced to the caller,
	// never recovered with a fallback.
	ErrCodeDuplicateFlowline     Code = "DUPLICATE_FLOWLINE"
	ErrCodeSelfFlowline          Code = "SELF_FLOWLINE"
	ErrCodeCannotDeleteStart     Code = "CANNOT_DELETE_START_NODE"
	ErrCodeOrphanTask            Code = "ORPHAN_TASK"
	ErrCodeReentrantTransition   Code = "REENTRANT_TRANSITION"
	ErrCodeTransitionInterrupted Code = "TRANSITION_INTERRUPTED"

	// Internal errors
	ErrCodeStorage  Code = "STORAGE_ERROR"
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
