package http

import "errors"

var (
	// ErrUnauthorized is returned when a request carries no usable credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("request body too large")
)
