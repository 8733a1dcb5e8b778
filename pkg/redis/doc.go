// Package redis connects to Redis with go-redis and exposes a health check
// closure for readiness probes. The client backs the verification attempt
// limiter (pkg/attempts).
//
// # Usage
//
//	var cfg redis.Config // populated with github.com/caarlos0/env
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	checker := redis.Healthcheck(client)
//
// # Errors
//
// Failures are joined with ErrFailedToParseRedisConnString, ErrRedisNotReady or
// ErrHealthcheckFailed so callers can match them with errors.Is.
package redis
