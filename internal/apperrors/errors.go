package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Authentication failed: bad password, unknown user or unknown refresh token id
	ErrWrongCredentials = errors.New("wrong credentials")

	// A required claim is absent from a presented token
	ErrMissingCredentials = errors.New("missing credentials")

	// Access token could not be signed
	ErrTokenCreation = errors.New("token creation error")

	// Bad signature, wrong algorithm, malformed or expired token,
	// or refresh token that does not match the stored one
	ErrInvalidToken = errors.New("invalid token")
)
