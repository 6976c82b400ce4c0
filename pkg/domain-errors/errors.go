// Package domainerrors provides coded errors shared by all services. Codes
// classify failures for callers (and the HTTP layer) without leaking
// infrastructure detail; wrap the underlying cause so errors.Is still works.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeBadRequest rejects malformed or missing input before any I/O.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound means no matching record exists. For verification lookups
	// this is a valid outcome, not a failure; services decide which.
	CodeNotFound Code = "not_found"
	// CodePermissionDenied is a transition guard failure. No mutation occurred.
	CodePermissionDenied Code = "permission_denied"
	// CodeInvalidState means the entity's lifecycle state does not allow the
	// requested transition.
	CodeInvalidState Code = "invalid_state"
	// CodeConflict means a write clashed with existing state.
	CodeConflict Code = "conflict"
	// CodeUnavailable is a retryable transport or backend failure, distinct
	// from not_found.
	CodeUnavailable Code = "unavailable"
	// CodeInternal is everything else.
	CodeInternal Code = "internal"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the status the transport layer should write.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeInvalidState, CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
