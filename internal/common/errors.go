// Package common defines sentinel errors shared by the storage, service and
// transport layers of gophlocker. Callers should use errors.Is to match them.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")

	// Service-level errors.
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnsupportedType    = errors.New("unsupported file type")
	ErrInvalidName        = errors.New("invalid file name")

	// ErrStorage marks blob store or metadata store failures. The message of
	// an error wrapping it must never reach a client.
	ErrStorage = errors.New("storage failure")
)

// ValidationError is a user-correctable input problem. It matches
// ErrValidation with errors.Is and carries a human readable reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid returns a *ValidationError with the given reason.
func Invalid(reason string) error {
	return &ValidationError{Reason: reason}
}
