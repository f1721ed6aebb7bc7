// Package common defines shared constants and sentinel errors used across
// the server layers of contactkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrStaleToken      = errors.New("stored refresh token changed")

	// Service-level errors.
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrorValidation       = errors.New("validation error")
	ErrTooManyRequests    = errors.New("too many requests")

	// Token codec errors. ErrInvalidToken covers bad signatures,
	// malformed input, expiry and disallowed algorithms alike.
	ErrInvalidToken         = errors.New("invalid token")
	ErrEncoding             = errors.New("token encoding error")
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
)
