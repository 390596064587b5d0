package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRoleMismatch       = errors.New("role mismatch")
	ErrValidationFailed   = errors.New("validation failed")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrCodeMismatch       = errors.New("verification code mismatch")
	ErrStoreCorrupted     = errors.New("stored record is corrupted")
	ErrInvalidState       = errors.New("operation not allowed in current session state")
	ErrResendTooSoon      = errors.New("verification code resend not yet allowed")
)
