package twofactor

import "errors"

var (
	ErrNotFound          = errors.New("user not found")
	ErrAlreadyEnabled    = errors.New("two-factor authentication is already enabled")
	ErrNotEnabled        = errors.New("two-factor authentication is not enabled")
	ErrNotConfigured     = errors.New("two-factor authentication is not configured")
	ErrInvalidToken      = errors.New("invalid two-factor token")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrReplayDetected    = errors.New("token has already been used")
	ErrCryptoFailure     = errors.New("two-factor secret cannot be decrypted")
	ErrConflict          = errors.New("record was modified concurrently")
	ErrTooManyAttempts   = errors.New("too many failed verification attempts")
	ErrEmailTaken        = errors.New("email is already registered")

	ErrFailedToLoadRecord          = errors.New("failed to load two-factor record")
	ErrFailedToSaveRecord          = errors.New("failed to save two-factor record")
	ErrFailedToGenerateSecret      = errors.New("failed to generate two-factor secret")
	ErrFailedToGenerateBackupCodes = errors.New("failed to generate backup codes")
	ErrFailedToGenerateQRCode      = errors.New("failed to generate QR code")
	ErrAttemptLimiterUnavailable   = errors.New("attempt limiter unavailable")
)
