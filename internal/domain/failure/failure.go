// Package failure classifies errors raised while talking to the academy
// backend or validating user input, so callers can pick a recovery policy
// without inspecting transport details.
package failure

import (
	"errors"
	"fmt"
)

// Kind is the category of a failure.
type Kind string

const (
	// KindTransport is a network or transport failure (DNS, refused, timeout, undecodable body).
	KindTransport Kind = "transport"
	// KindUnauthorized is a rejected or expired bearer token.
	KindUnauthorized Kind = "unauthorized"
	// KindValidation is malformed input caught before transmission.
	KindValidation Kind = "validation"
	// KindRejected is a business-rule rejection reported by the server.
	KindRejected Kind = "rejected"
)

// ErrNotReady is returned for user actions attempted before startup has settled.
var ErrNotReady = errors.New("portal is still loading")

// Error is a classified failure.
type Error struct {
	Kind   Kind
	Op     string            // operation that failed, e.g. "create_booking"
	Status int               // HTTP status when one was received, 0 otherwise
	Detail string            // server-reported or user-facing detail
	Fields map[string]string // per-field messages for KindValidation
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Transport builds a KindTransport failure.
func Transport(op string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// Unauthorized builds a KindUnauthorized failure.
func Unauthorized(op string, status int, detail string) *Error {
	return &Error{Kind: KindUnauthorized, Op: op, Status: status, Detail: detail}
}

// Rejected builds a KindRejected failure.
func Rejected(op string, status int, detail string) *Error {
	return &Error{Kind: KindRejected, Op: op, Status: status, Detail: detail}
}

// Validation builds a KindValidation failure from per-field messages.
func Validation(op string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Op: op, Detail: "invalid input", Fields: fields}
}

// KindOf returns the Kind of err, or "" if err is not a classified failure.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsUnauthorized reports whether err is an authentication failure.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// IsRejected reports whether err is a server-side business-rule rejection.
func IsRejected(err error) bool {
	return KindOf(err) == KindRejected
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// DetailOf returns the detail of a classified failure, or "" otherwise.
func DetailOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Detail
	}
	return ""
}
