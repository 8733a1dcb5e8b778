// Package attempts throttles repeated failures per key using Redis counters.
//
// It backs the unauthenticated two-factor verify step, where the caller is only
// identified by email and brute forcing a 6 digit code must be bounded.
//
//	limiter := attempts.New(redisClient, attempts.Config{MaxAttempts: 5, Cooldown: time.Minute})
//	svc := twofactor.NewService(store, store, codec, engine, twofactor.WithAttemptLimiter(limiter))
package attempts
