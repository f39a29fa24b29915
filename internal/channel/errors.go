package channel

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// StatusPageExpired is Laravel's CSRF token mismatch status.
const StatusPageExpired = 419

// ErrVersionConflict is returned when the server's asset version moved on
// and it asked for a full reload (409 with X-Inertia-Location).
var ErrVersionConflict = errors.New("page version changed")

// TransportError is a failed round trip: the request never completed or the
// server answered outside 2xx.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthError indicates the session or token was rejected (401, or 419 when
// the CSRF token expired).
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%d): %s", e.Status, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Status
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

func statusError(op string, status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return &AuthError{Status: status, Message: "session rejected; sign in again"}
	case StatusPageExpired:
		return &AuthError{Status: status, Message: "page expired (CSRF token mismatch)"}
	}

	msg := http.StatusText(status)
	if len(body) > 0 && len(body) <= 256 {
		msg = string(body)
	}
	return &TransportError{Op: op, Status: status, Err: errors.New(msg)}
}
