package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidUser is returned when a user record cannot be stored.
	ErrInvalidUser = errors.New("invalid user")
)
