package attempts

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultMaxAttempts = 5
	DefaultCooldown    = time.Minute
	DefaultKeyPrefix   = "2fa:att:"
)

// Limiter counts failed attempts per key in Redis. The counter expires Cooldown
// after the first failure, so a locked key unlocks on its own.
type Limiter struct {
	redis       redis.UniversalClient
	maxAttempts int64
	cooldown    time.Duration
	prefix      string
}

// New creates a limiter. Zero-value fields in cfg fall back to 5 attempts per minute.
func New(client redis.UniversalClient, cfg Config) *Limiter {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Limiter{
		redis:       client,
		maxAttempts: int64(maxAttempts),
		cooldown:    cooldown,
		prefix:      prefix,
	}
}

func (l *Limiter) key(id string) string {
	return l.prefix + id
}

// Allow reports whether another attempt is permitted for id.
func (l *Limiter) Allow(ctx context.Context, id string) (bool, error) {
	count, err := l.redis.Get(ctx, l.key(id)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, nil
		}
		return false, errors.Join(ErrUnavailable, err)
	}
	return count < l.maxAttempts, nil
}

// RecordFailure increments the failure counter, starting the cooldown on the first failure.
func (l *Limiter) RecordFailure(ctx context.Context, id string) error {
	count, err := l.redis.Incr(ctx, l.key(id)).Result()
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, l.key(id), l.cooldown).Err(); err != nil {
			return errors.Join(ErrUnavailable, err)
		}
	}
	return nil
}

// Reset clears the counter after a successful attempt.
func (l *Limiter) Reset(ctx context.Context, id string) error {
	if err := l.redis.Del(ctx, l.key(id)).Err(); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}
