package events

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no event has the requested id.
	ErrNotFound = errors.New("event not found")

	// ErrForbidden is returned when a caller without admin privilege attempts
	// an admin-only operation.
	ErrForbidden = errors.New("caller is not an administrator")

	// ErrConflict is returned when the requested transition does not apply to
	// the event's current state.
	ErrConflict = errors.New("event conflict")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
