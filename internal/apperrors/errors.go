// Package apperrors defines the error taxonomy shared by storage, services and
// the HTTP boundary. Callers wrap these sentinels with fmt.Errorf("...: %w")
// and match them with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation error")
	// ErrDuplicateUser marks a username or email uniqueness violation.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrInvalidCredentials marks a failed password check or a bad session token.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound marks a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrStorageUnavailable marks a durable backend failure.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInternal marks an unexpected fault.
	ErrInternal = errors.New("internal error")
)

// ValidationError carries a detail that is safe to show to the client.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.Detail
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...any) error {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}
