// Package errors provides structured error types for spatialgen.
//
// Every failure the engine can report carries a machine-readable [Code] so
// that the batch orchestrator can decide whether a combination is skipped,
// retried or whether the whole run must stop:
//
//   - INVALID_CONFIG: invalid or missing parameters, fatal before rendering
//   - UNKNOWN_ASSET: an object id that is not in the catalog, fatal
//   - CATALOG: unreadable or malformed asset properties, fatal
//   - OVERLAP: placement cannot satisfy the minimum separation, skip
//   - RENDER_ENGINE: the external renderer failed, reset and continue
//   - IO: image or metadata could not be persisted, retry once then skip
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownAsset, "unknown asset %q", id)
//	if errors.Is(err, errors.ErrCodeUnknownAsset) {
//	    // ...
//	}
//
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "write %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the engine's failure kinds.
const (
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeUnknownAsset  Code = "UNKNOWN_ASSET"
	ErrCodeCatalog       Code = "CATALOG"
	ErrCodeOverlap       Code = "OVERLAP"
	ErrCodeRenderEngine  Code = "RENDER_ENGINE"
	ErrCodeIO            Code = "IO"
	ErrCodeInternal      Code = "INTERNAL_ERROR"
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

// Is reports whether any *Error in err's chain carries the given code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
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
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// Recoverable reports whether a batch run may skip the failing combination
// and carry on. Configuration, catalog and unknown-asset errors are fatal.
func Recoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeOverlap, ErrCodeRenderEngine, ErrCodeIO:
		return true
	}
	return false
}
