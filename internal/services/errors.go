package services

import "errors"

var (
	// ErrNotFound is returned when a resource does not exist in the caller's
	// visible set. A row owned by another user yields the same error as a row
	// that was never created.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials covers bad username/password pairs and invalid or
	// revoked tokens.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
