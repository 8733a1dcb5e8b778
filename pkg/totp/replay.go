package totp

import (
	"crypto/subtle"
	"time"
)

// DefaultReplayCooldown is how long the most recently accepted token stays blocked.
const DefaultReplayCooldown = 90 * time.Second

// ReplayGuard blocks immediate reuse of the last accepted token.
//
// Only the identical literal token is blocked. A different token that is still valid
// for the same or an adjacent step passes, so this is not a general step-window
// replay defence.
type ReplayGuard struct {
	cooldown time.Duration
}

// NewReplayGuard returns a guard with the given cooldown; non-positive values use DefaultReplayCooldown.
func NewReplayGuard(cooldown time.Duration) ReplayGuard {
	if cooldown <= 0 {
		cooldown = DefaultReplayCooldown
	}
	return ReplayGuard{cooldown: cooldown}
}

// Cooldown returns the configured block window.
func (g ReplayGuard) Cooldown() time.Duration {
	return g.cooldown
}

// IsBlocked reports whether submitted equals lastToken and lastUsedAt is less than the
// cooldown before now. An empty last token or zero timestamp never blocks.
func (g ReplayGuard) IsBlocked(lastToken string, lastUsedAt time.Time, submitted string, now time.Time) bool {
	if lastToken == "" || lastUsedAt.IsZero() {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(lastToken), []byte(submitted)) != 1 {
		return false
	}
	return now.Sub(lastUsedAt) < g.cooldown
}
