package totp

import "errors"

var (
	ErrEncryptionKeyNotSet          = errors.New("TOTP encryption key not set")
	ErrFailedToDeriveKey            = errors.New("failed to derive TOTP encryption key")
	ErrFailedToInitCipher           = errors.New("failed to initialize TOTP secret cipher")
	ErrFailedToEncryptSecret        = errors.New("failed to encrypt TOTP secret")
	ErrCryptoFailure                = errors.New("failed to decrypt TOTP secret")
	ErrMalformedSecretBlob          = errors.New("malformed encrypted secret")
	ErrInvalidCipherTooShort        = errors.New("cipher text too short")
	ErrFailedToGenerateProcessKey   = errors.New("failed to generate process key")
	ErrFailedToGenerateSecretKey    = errors.New("failed to generate TOTP secret key")
	ErrMissingSecret                = errors.New("missing secret")
	ErrInvalidSecret                = errors.New("invalid secret")
	ErrMissingAccountName           = errors.New("missing account name")
	ErrMissingIssuer                = errors.New("missing issuer")
	ErrFailedToGenerateTOTP         = errors.New("failed to generate TOTP")
	ErrInvalidRecoveryCodeCount     = errors.New("invalid recovery code count, must be greater than 0")
	ErrFailedToGenerateRecoveryCode = errors.New("failed to generate recovery code")
)
