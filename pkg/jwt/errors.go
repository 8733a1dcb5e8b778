package jwt

import "errors"

var (
	ErrInvalidToken      = errors.New("jwt: invalid token")
	ErrExpiredToken      = errors.New("jwt: token is expired")
	ErrMissingSigningKey = errors.New("jwt: missing signing key")
	ErrInvalidClaims     = errors.New("jwt: invalid claims")
	ErrFailedToSign      = errors.New("jwt: failed to sign token")
)
