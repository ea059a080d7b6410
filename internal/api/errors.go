package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches (via errors.Is) any NetworkError caused by a 401.
var ErrUnauthorized = errors.New("unauthorized")

// Fallback messages shown when the backend gives no message of its own.
const (
	LoginFailed    = "Login failed"
	RegisterFailed = "Registration failed"
)

// AuthError is a failed login or register. Message is safe to show the user.
type AuthError struct {
	Message string
	Status  int // 0 when no response was received
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

// Unwrap returns the underlying transport or HTTP error.
func (e *AuthError) Unwrap() error { return e.Err }

// NetworkError is any failed todo request. Status is 0 for transport failures.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying transport or HTTP error.
func (e *NetworkError) Unwrap() error { return e.Err }

// Is reports whether target is ErrUnauthorized and the response was a 401.
func (e *NetworkError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

func newAuthError(fallback string, err error) *AuthError {
	ae := &AuthError{Message: fallback, Err: err}
	var he *HTTPError
	if errors.As(err, &he) {
		ae.Status = he.Status
		if he.Message != "" {
			ae.Message = he.Message
		}
	}
	return ae
}

func newNetworkError(op string, err error) *NetworkError {
	ne := &NetworkError{Op: op, Err: err}
	var he *HTTPError
	if errors.As(err, &he) {
		ne.Status = he.Status
	}
	return ne
}
