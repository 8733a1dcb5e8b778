package jwt

import "time"

// Config holds session token settings loaded from the environment.
type Config struct {
	SigningKey string        `env:"JWT_SECRET,required"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"eventplanner"`
	TTL        time.Duration `env:"JWT_TTL" envDefault:"24h"`
}
