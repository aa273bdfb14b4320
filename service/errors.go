package service

import (
	"errors"
	"fmt"

	"github.com/joeyave/club-events/repository"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrAlreadyRegistered = errors.New("user already registered for this event")
	ErrNotRegistered     = errors.New("user is not registered for this event")
	ErrCapacityExceeded  = errors.New("event has reached maximum capacity")
	ErrInactiveEvent     = errors.New("event is not active")
	ErrConflict          = errors.New("conflicting concurrent update")
	ErrAlreadyMarked     = errors.New("attendance already marked")
	ErrDeliveryFailed    = errors.New("reminder delivery failed")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFound rewrites a repository miss as ErrNotFound naming what was missing.
func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return err
}
