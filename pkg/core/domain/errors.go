package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when a guarded operation runs without a user.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrMissingCredential is returned when the bearer token is empty after the prefix.
	ErrMissingCredential = errors.New("no token found")

	// ErrInvalidCredential is returned when the token signature or claims do not verify.
	ErrInvalidCredential = errors.New("invalid token")

	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for out-of-range or malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrAlreadyVoted is returned when a user votes twice on the same link.
var ErrAlreadyVoted = fmt.Errorf("%w: already voted", ErrInvalidArgument)
