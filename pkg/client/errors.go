package client

import (
	"errors"
	"fmt"
)

// ErrUnauthorized marks a status check rejected by the rail because
// the bearer credential was not accepted. Callers may clear the stored
// credential and re-authenticate.
var ErrUnauthorized = errors.New("credential rejected by payment rail")

// ErrorKind classifies a failed status check.
type ErrorKind string

const (
	// Transient failures (network blips, record not yet visible) are
	// expected to self-resolve; callers skip the tick and retry on the
	// next one without surfacing anything.
	Transient ErrorKind = "transient"
	// Permanent failures indicate a request/response problem that a
	// retry alone will not fix; callers surface them with a manual
	// retry action.
	Permanent ErrorKind = "permanent"
)

// StatusCheckError is a failed reconciliation call, classified so the
// polling session knows whether to stay silent or surface it.
type StatusCheckError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *StatusCheckError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("status check failed (%s, http %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("status check failed (%s): %v", e.Kind, e.Err)
}

func (e *StatusCheckError) Unwrap() error { return e.Err }

// Transient reports whether the error should be retried silently.
func (e *StatusCheckError) Transient() bool { return e.Kind == Transient }

// IsTransient reports whether err is a transient StatusCheckError.
func IsTransient(err error) bool {
	var sce *StatusCheckError
	return errors.As(err, &sce) && sce.Transient()
}

// AuthError means no credential could be obtained: nothing cached and
// no wallet address to exchange. Fatal to a polling session until the
// user reconnects a wallet.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication unavailable: %s", e.Reason)
}

// OrderNotFoundError means neither identifier path could resolve an
// order. It is a distinct navigable state, not a hard failure.
type OrderNotFoundError struct {
	OrderID string
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order '%s' not found", e.OrderID)
}
