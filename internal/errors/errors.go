package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session core and its collaborators
var (
	// Credential store errors
	ErrNotFound      = errors.New("not found")
	ErrCorruptRecord = errors.New("credential record is corrupt")

	// Session errors
	ErrInvalidTTL       = errors.New("token ttl must be positive")
	ErrEmptyToken       = errors.New("empty token")
	ErrNotInitialised   = errors.New("session not initialised")
	ErrInvalidExpiresAt = errors.New("invalid stored expiry")

	// Authentication API errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAuthUnavailable    = errors.New("authentication service unavailable")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternal       = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Join returns an error wrapping every non-nil err, or nil
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
