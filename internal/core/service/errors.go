package service

import "errors"

var (
	// ErrInvalidCredentials is returned for both an unknown identifier and a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid email/username or password")

	// ErrInvalidResetToken is returned for unknown and expired reset tokens.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)
