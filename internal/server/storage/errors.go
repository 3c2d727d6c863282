package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that account was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates that account with this username already exists
	ErrUsernameTaken = errors.New("username already exists")

	// ErrEmailTaken indicates that account with this email already exists
	ErrEmailTaken = errors.New("email already exists")

	// ErrTokenNotFound indicates that no reset token currently qualifies
	// (unknown, expired or already used)
	ErrTokenNotFound = errors.New("reset token not found")

	// ErrTokenExists indicates a reset token with the same hash is already stored
	ErrTokenExists = errors.New("reset token already exists")

	// ErrClosed indicates that the storage was already closed
	ErrClosed = errors.New("storage closed")
)
