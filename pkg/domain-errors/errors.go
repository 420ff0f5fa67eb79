// Package domainerrors defines the error vocabulary services speak to
// transports. Stores report infrastructure facts via pkg/platform/sentinel;
// services translate those facts into coded errors here so handlers can map
// them to HTTP statuses without inspecting storage internals.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure. Authorization denials use one code per
// reason so callers can distinguish why they were refused without the error
// leaking anything beyond the enumerated reason.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"

	// Forbidden reasons. All map to HTTP 403; the code is the reason.
	CodeAccountDeactivated Code = "account_deactivated"
	CodeRoleMismatch       Code = "role_mismatch"
	CodePendingApproval    Code = "pending_approval"
	CodeMissingConsent     Code = "missing_consent"

	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvalidState       Code = "invalid_state"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal"
	CodeUnavailable        Code = "unavailable"
)

// Error carries a code, a caller-safe message, and an optional wrapped cause.
// The cause never crosses the transport boundary.
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

// New creates a domain error with the given code and caller-safe message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and caller-safe message to an underlying error.
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

// Is is a readability alias for HasCode.
func Is(err error, code Code) bool { return HasCode(err, code) }

// IsForbidden reports whether err is any of the authorization denial codes.
func IsForbidden(err error) bool {
	return HasCode(err, CodeAccountDeactivated) ||
		HasCode(err, CodeRoleMismatch) ||
		HasCode(err, CodePendingApproval) ||
		HasCode(err, CodeMissingConsent)
}

// ToHTTPStatus maps a code to its HTTP status. Unknown codes are treated as
// internal failures.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeAccountDeactivated, CodeRoleMismatch, CodePendingApproval, CodeMissingConsent:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeInvalidState, CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
