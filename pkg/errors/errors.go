// Package errors provides structured error types for Tessera.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the store, CLI, and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND: Unknown widget, layout, or scene
//   - CANNOT_CHANGE: An edit would break a scene's widget restrictions
//   - STORAGE_*: Persistence backend failures
//   - INTERNAL_*: Unexpected internal errors
//
// [ErrCodeCannotChange] doubles as the value of the store's one-shot error
// field, which is a bare [Code] rather than an error.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "invalid widget key: %q", key)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStorage, origErr, "failed to save %s", key)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// ErrCodeCannotChange reports an edit that would remove the last instance
	// of a required widget.
	ErrCodeCannotChange Code = "CANNOT_CHANGE"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidKey    Code = "INVALID_KEY"
	ErrCodeInvalidGrid   Code = "INVALID_GRID"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Persistence errors
	ErrCodeStorage Code = "STORAGE_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

var messages = map[Code]string{
	ErrCodeCannotChange:  "This widget is required and cannot be changed or removed",
	ErrCodeInvalidInput:  "The request is invalid",
	ErrCodeInvalidKey:    "The key is invalid",
	ErrCodeInvalidGrid:   "The grid size is invalid",
	ErrCodeInvalidConfig: "The configuration is invalid",
	ErrCodeNotFound:      "Not found",
	ErrCodeStorage:       "The layout could not be stored",
	ErrCodeInternal:      "Internal error",
	ErrCodeUnsupported:   "Not supported",
}

// Message returns the default English description of a code, or the code
// itself when none is registered.
func (c Code) Message() string {
	if m, ok := messages[c]; ok {
		return m
	}
	return string(c)
}

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

// FromCode creates an Error carrying the default message for code.
// It returns nil for the empty code, which makes it convenient for turning
// the store's one-shot error field into an error value.
func FromCode(code Code) error {
	if code == "" {
		return nil
	}
	return &Error{Code: code, Message: code.Message()}
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
