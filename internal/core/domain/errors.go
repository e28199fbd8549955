package domain

import "errors"

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEntityNotFound     = errors.New("entity not found")
)

// ValidationError reports the first rejected input field in human terms.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError is a convenience for services rejecting input.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}
