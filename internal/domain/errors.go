package domain

import "errors"

var (
	// ErrNotConfigured indicates the user has no training plan yet. Callers
	// should surface a plan-creation prompt, not a failure.
	ErrNotConfigured = errors.New("no training plan configured")
	// ErrNotFound is returned when an entity does not exist or is owned by
	// another user; the two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")
	// ErrValidation wraps malformed user input. No persisted state is touched
	// when it is returned.
	ErrValidation = errors.New("validation failed")
	// ErrInvariant marks a programming-contract violation, such as advancing
	// a non-progressive activity.
	ErrInvariant = errors.New("progression invariant violated")
)
