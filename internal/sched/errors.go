package sched

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when an operation requires an owner
// but none was supplied. Callers should redirect to a login flow
// rather than show an inline error.
var ErrNotAuthenticated = errors.New("login required")

// ErrNotLinked is returned when the owner has no participant identity
// for the event being operated on.
var ErrNotLinked = errors.New("not linked to this event")

// ErrEventNotFound is returned when the named event does not exist.
var ErrEventNotFound = errors.New("event not found")

// ValidationError describes input rejected before any store access.
// Validation errors are surfaced verbatim and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsRedirect reports whether err is a failure the caller should handle
// by switching flows (login, linking) instead of showing it inline.
func IsRedirect(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrNotLinked)
}
