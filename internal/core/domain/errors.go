package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound maps to 404.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists maps to 409 on username/email uniqueness violations.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials maps to 401. Login failures surface this for both
	// unknown identifiers and wrong passwords so callers cannot enumerate
	// usernames; stale, expired, or foreign refresh tokens surface it too.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation maps to 400. Use NewValidationError to attach a message.
	ErrValidation = errors.New("validation failed")
	// ErrUploadFailed maps to 400: the external media store rejected the file.
	ErrUploadFailed = errors.New("media upload failed")
	// ErrTokenMismatch is returned by the credential store when a refresh
	// rotation loses the compare-and-swap. Never exposed directly; the
	// session service reports ErrInvalidCredentials instead.
	ErrTokenMismatch = errors.New("stored refresh token mismatch")
)

// NewValidationError wraps ErrValidation with a field-level message so the
// transport layer can match on kind while still showing the cause.
func NewValidationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
