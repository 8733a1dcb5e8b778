package twofactor

import (
	"context"

	"github.com/google/uuid"
)

// Storage persists two-factor records.
//
// Lookups return ErrNotFound for unknown users. Update must only succeed when the
// stored version equals rec.Version; on success it increments rec.Version, otherwise
// it returns ErrConflict and leaves the stored record untouched.
type Storage interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	GetByEmail(ctx context.Context, email string) (*Record, error)
	Update(ctx context.Context, rec *Record) error
}

// CredentialVerifier re-checks the primary password before 2FA can be turned off.
// Implementations return ErrInvalidCredential on mismatch.
type CredentialVerifier interface {
	VerifyPassword(ctx context.Context, userID uuid.UUID, password string) error
}

// SecretCipher encrypts TOTP secrets at rest. *totp.SecretCodec satisfies it.
type SecretCipher interface {
	Encrypt(plainText string) (string, error)
	Decrypt(blob string) (string, error)
}

// AttemptLimiter throttles failed verifications on the unauthenticated verify path.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// Notifier delivers security notices. It is called asynchronously after a change is persisted.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// QRCodeGenerator renders content as an image data URL of the given pixel size.
type QRCodeGenerator func(content string, size int) (string, error)
