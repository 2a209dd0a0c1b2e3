// Package domainerrors defines coded errors that cross service boundaries.
//
// Policy rejections are NOT errors — they are verdict values returned as
// data. Errors here represent caller mistakes (validation), idempotency
// conflicts, and infrastructure failures. Handlers translate codes to HTTP
// statuses with ToHTTPStatus; internal detail is never leaked for 5xx codes.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for transport mapping and retry semantics.
type Code string

const (
	// CodeValidation covers bad input the caller can fix (e.g. a
	// non-positive amount). Never retried as-is.
	CodeValidation Code = "validation"

	// CodeBadRequest covers malformed requests (unparseable body, missing
	// required fields).
	CodeBadRequest Code = "bad_request"

	// CodeNotFound covers missing entities.
	CodeNotFound Code = "not_found"

	// CodeConflict covers idempotency-guard hits: the exact same
	// contribution tuple was already processed. Callers treat it as
	// already-done, not as a retryable failure.
	CodeConflict Code = "conflict"

	// CodeUnavailable covers unreachable or timed-out backing stores. The
	// caller should retry with backoff and must never interpret it as a
	// policy rejection.
	CodeUnavailable Code = "unavailable"

	// CodeTimeout covers an exceeded storage deadline.
	CodeTimeout Code = "timeout"

	// CodeInternal covers everything else.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error, optionally wrapping a cause.
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

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
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

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable, CodeTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
