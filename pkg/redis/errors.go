package redis

import "errors"

var (
	ErrEmptyConnectionURL           = errors.New("empty redis connection url, use REDIS_URL env var")
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection url")
	ErrRedisNotReady                = errors.New("redis is not reachable")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
)
