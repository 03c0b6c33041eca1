package service

import "errors"

var (
	// ErrInvalidCredential covers bad email/password pairs. Unknown email
	// and wrong password produce the same error so callers cannot probe
	// which accounts exist.
	ErrInvalidCredential = errors.New("invalid credentials")

	// ErrUnauthorized covers rejected refresh tokens and API keys.
	ErrUnauthorized = errors.New("unauthorized")

	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrFeatureDisabled is returned when the backing store rejects a
	// mutation, such as in demo mode.
	ErrFeatureDisabled = errors.New("feature disabled")
)
