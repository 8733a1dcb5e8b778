package attempts

import "time"

// Config controls how many failures are tolerated before a key is locked out.
type Config struct {
	MaxAttempts int           `env:"TWOFACTOR_MAX_ATTEMPTS" envDefault:"5"`
	Cooldown    time.Duration `env:"TWOFACTOR_ATTEMPTS_COOLDOWN" envDefault:"1m"`
	KeyPrefix   string        `env:"TWOFACTOR_ATTEMPTS_PREFIX" envDefault:"2fa:att:"`
}
