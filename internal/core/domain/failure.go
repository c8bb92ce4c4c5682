package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies a failed acquisition step for programmatic handling.
type FailureKind string

const (
	// NetworkError covers transport failures and timeouts
	NetworkError FailureKind = "NETWORK_ERROR"

	// NotFound is a 404 from the backend, i.e. unknown city
	NotFound FailureKind = "NOT_FOUND"

	// ServerError is any other non-2xx backend status
	ServerError FailureKind = "SERVER_ERROR"

	// MalformedResponse means the body failed schema validation
	MalformedResponse FailureKind = "MALFORMED_RESPONSE"

	// PermissionDenied means the user refused location access
	PermissionDenied FailureKind = "PERMISSION_DENIED"

	// Unavailable means the position could not be determined
	Unavailable FailureKind = "UNAVAILABLE"

	// InvalidInput means the caller passed an empty city or out-of-range coordinates
	InvalidInput FailureKind = "INVALID_INPUT"
)

// Failure is a typed error returned by the weather client and location probe.
// It carries the kind, the HTTP status for server errors and an optional cause.
type Failure struct {
	// Kind identifies the failure class
	Kind FailureKind

	// Status holds the HTTP status code for NotFound and ServerError, zero otherwise
	Status int

	// Detail provides a short human-readable description
	Detail string

	// Cause wraps an underlying error if applicable
	Cause error
}

// Error formats the failure including kind, status, detail and cause.
func (f *Failure) Error() string {
	msg := string(f.Kind)

	if f.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, f.Status)
	}

	if f.Detail != "" {
		msg += ": " + f.Detail
	}

	if f.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, f.Cause)
	}

	return msg
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (f *Failure) Unwrap() error {
	return f.Cause
}

// NewFailure builds a Failure of the given kind.
func NewFailure(kind FailureKind, detail string, cause error) *Failure {
	return &Failure{Kind: kind, Detail: detail, Cause: cause}
}

// KindOf returns the FailureKind carried by err, or the empty kind when err
// is nil or not a Failure.
func KindOf(err error) FailureKind {
	var f *Failure

	if errors.As(err, &f) {
		return f.Kind
	}

	return ""
}
