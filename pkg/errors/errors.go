// Package errors provides structured error types for magflat.
//
// This package defines error codes and types that enable:
//   - A fatal/non-fatal split between structural and reference failures
//   - Machine-readable error codes for the CLI and the HTTP service
//   - File and line positions on every parse failure
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes fall into four classes:
//   - Structural: STRUCTURAL (a recognized record is malformed or out of context)
//   - Reference: FILE_NOT_FOUND, REFERENCE_CYCLE, DEPTH_EXCEEDED
//   - Usage: EMPTY_BOUNDS, LAYER_NOT_FOUND, INVALID_*
//   - Internal: INTERNAL_ERROR
//
// # Usage
//
//	err := errors.At(errors.ErrCodeStructural, path, line, "rect record before any layer directive")
//	if errors.Is(err, errors.ErrCodeStructural) {
//	    // Handle parse error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Structural errors
	ErrCodeStructural Code = "STRUCTURAL"

	// Reference errors
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"
	ErrCodeCycle         Code = "REFERENCE_CYCLE"
	ErrCodeDepthExceeded Code = "DEPTH_EXCEEDED"

	// Usage errors
	ErrCodeEmptyBounds     Code = "EMPTY_BOUNDS"
	ErrCodeLayerNotFound   Code = "LAYER_NOT_FOUND"
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidCellName Code = "INVALID_CELL_NAME"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code, an optional source position and
// an optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Path    string // Source file (optional)
	Line    int    // 1-based line in Path, 0 if unknown
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if pos := e.Position(); pos != "" {
		msg = pos + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Position returns "path:line", "path" or "" depending on what is known.
func (e *Error) Position() string {
	switch {
	case e.Path == "":
		return ""
	case e.Line > 0:
		return fmt.Sprintf("%s:%d", e.Path, e.Line)
	default:
		return e.Path
	}
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

// At creates a new Error positioned at path:line.
func At(code Code, path string, line int, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Path:    path,
		Line:    line,
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

// As is errors.As from the standard library, re-exported so callers that
// import this package under the name errors keep access to it.
func As(err error, target any) bool {
	return errors.As(err, target)
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

// IsStructural reports whether err is a structural parse error.
func IsStructural(err error) bool {
	return GetCode(err) == ErrCodeStructural
}

// IsReference reports whether err is a reference error: a missing
// sub-cell file, a reference cycle or runaway nesting.
func IsReference(err error) bool {
	switch GetCode(err) {
	case ErrCodeFileNotFound, ErrCodeCycle, ErrCodeDepthExceeded:
		return true
	}
	return false
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the positioned message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if pos := e.Position(); pos != "" {
			return pos + ": " + e.Message
		}
		return e.Message
	}
	return err.Error()
}
