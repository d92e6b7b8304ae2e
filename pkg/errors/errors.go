// Package errors provides structured error types for stackchart.
//
// Every failure raised by the interval model, the qualification protocol,
// and the surfaces built on top of them (config, datasets, pipeline, API)
// carries a machine-readable [Code]. Callers branch on the code instead of
// matching message strings:
//
//	_, err := bounds.Parse("1..x")
//	if errors.Is(err, errors.ErrCodeParse) {
//	    // malformed range expression
//	}
//
// # Codes
//
// The core taxonomy:
//   - PARSE_ERROR: malformed range expression
//   - QUALIFICATION_ERROR: piecewise bounds, or no usable values for a field
//   - BOUNDS_UNQUALIFIED: reading bounds that are not yet complete
//   - RANGE_UNBOUND: a scale range left unqualified (ranges come from layout)
//
// Unknown stack order or offset names are deliberately not errors.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Interval and scale errors
	ErrCodeParse           Code = "PARSE_ERROR"
	ErrCodeQualification   Code = "QUALIFICATION_ERROR"
	ErrCodeUnqualified     Code = "BOUNDS_UNQUALIFIED"
	ErrCodeRangeUnbound    Code = "RANGE_UNBOUND"
	ErrCodeInvalidScale    Code = "INVALID_SCALE"
	ErrCodeInvalidAccessor Code = "INVALID_ACCESSOR"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

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

// UserMessage returns the message without the code prefix for *Error
// values, and the error string as-is otherwise.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsCaller reports whether err stems from caller input or configuration
// rather than an internal failure. The HTTP surface maps these to 4xx.
func IsCaller(err error) bool {
	switch GetCode(err) {
	case ErrCodeParse, ErrCodeQualification, ErrCodeUnqualified, ErrCodeRangeUnbound,
		ErrCodeInvalidScale, ErrCodeInvalidAccessor, ErrCodeInvalidInput,
		ErrCodeInvalidFormat, ErrCodeInvalidConfig, ErrCodeFileNotFound:
		return true
	}
	return false
}
