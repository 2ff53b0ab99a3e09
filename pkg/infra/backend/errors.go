// Package backend defines the small fixed set of error kinds every remote
// detector backend failure is translated into. Adapters never leak
// backend-specific error shapes past this boundary.
package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a backend failure.
type Kind string

const (
	KindAuth            Kind = "auth_error"
	KindQuotaExceeded   Kind = "quota_exceeded"
	KindUnavailable     Kind = "unavailable"
	KindNotFound        Kind = "not_found"
	KindInvalidArgument Kind = "invalid_argument"
	KindFailure         Kind = "detector_failure"
)

// Error is the uniform backend failure type.
type Error struct {
	Kind    Kind
	Backend string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindAuth:
		return fmt.Sprintf("%s: permission denied, check API credentials", e.Backend)
	case KindQuotaExceeded:
		return fmt.Sprintf("%s: API quota exceeded", e.Backend)
	case KindUnavailable:
		return fmt.Sprintf("%s: service temporarily unavailable", e.Backend)
	case KindNotFound:
		return fmt.Sprintf("%s: resource not found, check configuration", e.Backend)
	case KindInvalidArgument:
		return fmt.Sprintf("%s: invalid input: %v", e.Backend, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Backend, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind and the backend name it came from.
func NewError(kind Kind, backendName string, err error) *Error {
	return &Error{Kind: kind, Backend: backendName, Err: err}
}

// FromStatus translates an HTTP status code into the matching error kind.
func FromStatus(status int, backendName string, body []byte) *Error {
	err := fmt.Errorf("status %d: %s", status, string(body))
	switch status {
	case http.StatusBadRequest:
		return NewError(KindInvalidArgument, backendName, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return NewError(KindAuth, backendName, err)
	case http.StatusNotFound:
		return NewError(KindNotFound, backendName, err)
	case http.StatusTooManyRequests:
		return NewError(KindQuotaExceeded, backendName, err)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return NewError(KindUnavailable, backendName, err)
	default:
		return NewError(KindFailure, backendName, err)
	}
}

// KindOf extracts the kind of err, or KindFailure when err is not a backend
// error.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindFailure
}
