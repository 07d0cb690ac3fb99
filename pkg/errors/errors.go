// Package errors provides structured error types for the texrecon pipeline.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the library surface
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Every failure the pipeline can hit maps to one code:
//   - CONFIG: precondition failures (missing destination directory, bad settings)
//   - LOAD: mesh, view set or data-cost file failed to read or parse
//   - LABELING_MISMATCH: a labeling override vector does not fit the graph
//   - FILESYSTEM: writing an output artifact failed
//   - INTERNAL: unexpected internal failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeLoad, "could not load mesh %s", path)
//	if errors.Is(err, errors.ErrCodeLoad) {
//	    // handle load failure
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFilesystem, cause, "write %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the pipeline's failure categories. All of them are fatal
// for the current run; there is no retry path anywhere in the pipeline.
const (
	// ErrCodeConfig marks precondition failures detected before any stage runs.
	ErrCodeConfig Code = "CONFIG"

	// ErrCodeLoad marks mesh, view-set or cost-file read/parse failures.
	ErrCodeLoad Code = "LOAD"

	// ErrCodeLabelingMismatch marks a labeling override vector that does not
	// match the adjacency graph (wrong length or out-of-range label).
	ErrCodeLabelingMismatch Code = "LABELING_MISMATCH"

	// ErrCodeFilesystem marks output serialization failures.
	ErrCodeFilesystem Code = "FILESYSTEM"

	// ErrCodeInternal marks unexpected internal errors.
	ErrCodeInternal Code = "INTERNAL"
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

// Is reports whether err carries the given error code.
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
