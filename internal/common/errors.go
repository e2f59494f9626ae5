package common

import "errors"

var (
	// ErrorNotFound is returned by in-memory stores for unknown keys.
	ErrorNotFound = errors.New("not found")

	// ErrorUnauthorized reports missing or invalid credentials.
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken reports a malformed session token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired reports a session token past its exp claim.
	ErrTokenExpired = errors.New("token expired")
)
