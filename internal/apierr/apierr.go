// Package apierr defines the typed errors surfaced by the chat core.
// Polling and presence loops log and swallow them; user-initiated
// operations propagate them to the caller unchanged.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkError wraps a transport-level failure (connect, timeout, 5xx).
// Transient: loop-driven callers retry on their next tick.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError marks a response whose shape could not be decoded. Treated
// as "no data this cycle": local state is left untouched.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed response for %s: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConflictError signals that the requested creation would duplicate an
// existing resource, e.g. a second direct room for the same member pair.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message == "" {
		return "conflict"
	}
	return e.Message
}

// PermissionError signals that the actor lacks the role required for the
// operation.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	if e.Message == "" {
		return "insufficient permissions"
	}
	return e.Message
}

// AuthError signals a missing, invalid or expired credential. Never
// retried here; the auth collaborator owns recovery.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return e.Message
}

// FromStatus maps an HTTP response status to the error taxonomy. The
// serverMsg, when present, is carried into the error message.
func FromStatus(op string, status int, serverMsg string) error {
	switch status {
	case http.StatusUnauthorized:
		return &AuthError{Message: serverMsg}
	case http.StatusForbidden:
		return &PermissionError{Message: serverMsg}
	case http.StatusConflict:
		return &ConflictError{Message: serverMsg}
	default:
		return &NetworkError{Op: op, Err: fmt.Errorf("server returned %d: %s", status, serverMsg)}
	}
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
