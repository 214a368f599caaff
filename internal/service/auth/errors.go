package auth

import "errors"

var (
	// ErrMissingToken indicates a token was expected but not provided.
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrInvalidToken covers malformed tokens, bad signatures, unexpected
	// algorithms, and tokens without a usable user_id claim.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token is past its exp claim.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password; callers must not be able to tell which.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
