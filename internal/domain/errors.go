package domain

import "errors"

var (
	// ErrUserNotFound is returned by identity lookups for unknown accounts.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnknownRecipient marks a send whose receiver could not be resolved.
	// The send still proceeds against the raw identifier.
	ErrUnknownRecipient = errors.New("unknown recipient")

	// ErrInvalidToken rejects a connect attempt before any presence mutation.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInvalidCredentials is returned on failed logins.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserExists is returned when registering an already-taken email or username.
	ErrUserExists = errors.New("user already exists")
)
