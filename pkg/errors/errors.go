// Package errors provides structured error types for paramdb.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library and CLI
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Each code corresponds to one failure class of the parameter store:
//   - VALIDATION_FAILED: a field value violates the declared type
//   - UNKNOWN_FIELD: assignment to a field the record type does not declare
//   - UNREGISTERED_TYPE: decoding met a type tag absent from the registry
//   - COMMIT_NOT_FOUND: load against an absent commit id or an empty store
//   - STORAGE_IO: underlying row-store failure (I/O, permissions, locks)
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownField, "record type %q has no field %q", rt, name)
//	if errors.Is(err, errors.ErrCodeUnknownField) {
//	    // Handle unknown field
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStorageIO, origErr, "append commit row")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Data model errors
	ErrCodeValidation   Code = "VALIDATION_FAILED"
	ErrCodeUnknownField Code = "UNKNOWN_FIELD"

	// Codec errors
	ErrCodeUnregisteredType Code = "UNREGISTERED_TYPE"
	ErrCodeInvalidPayload   Code = "INVALID_PAYLOAD"

	// Commit log errors
	ErrCodeCommitNotFound Code = "COMMIT_NOT_FOUND"
	ErrCodeStorageIO      Code = "STORAGE_IO"

	// General errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
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
