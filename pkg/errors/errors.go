// Package errors provides structured error types for graphbuilder.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the editor and the HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// Domain packages declare their sentinel errors as *Error values, so callers
// can match either the sentinel itself or its code:
//
//	var ErrUnknownNode = errors.New(errors.ErrCodeUnknownNode, "unknown node")
//
//	err := fmt.Errorf("connect %q: %w", id, ErrUnknownNode)
//	stderrors.Is(err, ErrUnknownNode)             // true
//	errors.Is(err, errors.ErrCodeUnknownNode)     // true
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*, MALFORMED_*: Input validation failures
//   - UNKNOWN_*, NOT_FOUND: Missing resources
//   - DUPLICATE_*, SELF_LOOP, NO_SELECTION: Rejected edits
//   - INTERNAL_*: Unexpected internal errors
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidName       Code = "INVALID_NAME"
	ErrCodeMalformedDocument Code = "MALFORMED_DOCUMENT"

	// Resource not found errors
	ErrCodeNotFound    Code = "NOT_FOUND"
	ErrCodeUnknownNode Code = "UNKNOWN_NODE"

	// Rejected edits
	ErrCodeDuplicateNode Code = "DUPLICATE_NODE"
	ErrCodeSelfLoop      Code = "SELF_LOOP"
	ErrCodeNoSelection   Code = "NO_SELECTION"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// HTTPStatus maps an error code to the HTTP status the API responds with.
// Unknown or empty codes map to 500.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeInvalidName, ErrCodeMalformedDocument, ErrCodeSelfLoop:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeUnknownNode:
		return http.StatusNotFound
	case ErrCodeDuplicateNode, ErrCodeNoSelection:
		return http.StatusConflict
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
