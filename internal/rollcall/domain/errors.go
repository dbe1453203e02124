package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials never says which of identifier or password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrNoSession          = errors.New("no active session")

	ErrEmailNotFound = errors.New("no account uses this email")
	ErrCodeInvalid   = errors.New("reset code is invalid")
	ErrCodeExpired   = errors.New("reset code has expired, request a new one")
	ErrTokenInvalid  = errors.New("reset token is invalid")
	ErrTokenExpired  = errors.New("reset token has expired, request a new one")
	ErrAlreadyUsed   = errors.New("reset code was already used, request a new one")
)

// ValidationError reports a single rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Unavailable wraps err so that errors.Is(err, ErrStorageUnavailable) holds.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}
