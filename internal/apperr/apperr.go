// Package apperr holds the error kinds shared by stores, services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteFailure marks any failed call to an external store.
	ErrRemoteFailure = errors.New("remote failure")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write would violate a uniqueness rule.
	ErrConflict = errors.New("conflict")

	// ErrForbidden is returned when the caller may not act on a record.
	ErrForbidden = errors.New("forbidden")

	// ErrUnavailable is returned when an optional backend is not configured.
	ErrUnavailable = errors.New("unavailable")

	ErrGameFull        = errors.New("game is full")
	ErrAlreadyReserved = errors.New("spot already reserved")
	ErrNoReservation   = errors.New("reservation not found")
)

// Remote wraps a store error so that errors.Is(err, ErrRemoteFailure) holds
// while the cause stays in the chain.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrRemoteFailure, err)
}

// ValidationError reports bad caller input on a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
