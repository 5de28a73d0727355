// Package fault classifies collaborator failures so retry loops can
// discriminate between transient and terminal conditions instead of
// retrying everything uniformly.
package fault

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind is the failure category of an external call.
type Kind int

const (
	// Unexpected covers anything not anticipated by the other kinds.
	Unexpected Kind = iota
	// RateLimited means the collaborator answered HTTP 429 or equivalent.
	RateLimited
	// Timeout means the call exceeded its deadline.
	Timeout
	// InvalidResponse means the collaborator answered but the payload was
	// malformed or too small to be usable.
	InvalidResponse
	// NotFound means an expected artifact, row, or remote object is absent.
	// Treated as data-not-found, never as a crash.
	NotFound
	// Unavailable means a 5xx-class failure worth retrying.
	Unavailable
)

func (k Kind) String() string {
	switch k {
	case RateLimited:
		return "rate limited"
	case Timeout:
		return "timeout"
	case InvalidResponse:
		return "invalid response"
	case NotFound:
		return "not found"
	case Unavailable:
		return "unavailable"
	}
	return "unexpected"
}

// Error wraps a collaborator failure with its category and the operation
// that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds a classified error from a format string.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the category of err, defaulting to Unexpected.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Timeout
	}
	return Unexpected
}

// FromStatus maps an HTTP status code to a failure kind. 2xx codes map to
// Unexpected and should not be passed here.
func FromStatus(code int) Kind {
	switch {
	case code == 429:
		return RateLimited
	case code == 404:
		return NotFound
	case code >= 500:
		return Unavailable
	}
	return InvalidResponse
}

// Retryable reports whether err is worth another attempt. Rate limits,
// timeouts, and 5xx-class failures are transient; malformed responses and
// missing data are not.
func Retryable(err error) bool {
	switch KindOf(err) {
	case RateLimited, Timeout, Unavailable:
		return true
	}
	return false
}
