package totp

import "time"

// Config holds the process-wide TOTP settings.
// It is loaded once at startup and passed by value to the components that need it.
type Config struct {
	EncryptionKey     string        `env:"TOTP_SECRET_KEY,required"`                 // Passphrase the secret encryption key is derived from
	KDFSalt           string        `env:"TOTP_KDF_SALT" envDefault:"salt"`          // Fixed salt for the key derivation
	Issuer            string        `env:"TOTP_ISSUER" envDefault:"EventPlanner"`    // Issuer shown by authenticator apps
	ReplayCooldown    time.Duration `env:"TOTP_REPLAY_COOLDOWN" envDefault:"90s"`    // How long an accepted token stays blocked
	RecoveryCodeCount int           `env:"TOTP_RECOVERY_CODE_COUNT" envDefault:"10"` // Backup codes issued per generation
}
