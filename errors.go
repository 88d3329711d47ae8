package gatehouse

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a user or file does not exist
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned for any authentication failure.
	// Callers must not be able to tell which check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPathRejected is returned when a requested path would leave the storage root
	ErrPathRejected = errors.New("path rejected")
	// ErrConflict is returned when a username or upload target already exists
	ErrConflict = errors.New("conflict")
)

// Token validation failures. All of them wrap ErrInvalidToken.
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrTokenSignature = fmt.Errorf("%w: bad signature", ErrInvalidToken)
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrInvalidToken)
)
