package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// configCache stores one parsed value per config type.
type configCache struct {
	mu     sync.Mutex
	values map[reflect.Type]any
}

var (
	globalCache = &configCache{values: make(map[reflect.Type]any)}

	defaultEnvLoaded sync.Once
)

// LoadEnv reads the given .env files into the process environment without
// overriding variables that are already set. With no paths it reads ./.env and
// silently ignores a missing file.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// Load parses environment variables into T using its env struct tags.
// The first successful result for each type is cached for the life of the process.
//
//	cfg, err := config.Load[totp.Config]()
func Load[T any]() (T, error) {
	defaultEnvLoaded.Do(func() { _ = LoadEnv() })

	key := reflect.TypeFor[T]()

	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()

	if cached, ok := globalCache.values[key]; ok {
		return cached.(T), nil
	}

	v, err := env.ParseAs[T]()
	if err != nil {
		var zero T
		return zero, errors.Join(ErrParsingConfig, err)
	}
	globalCache.values[key] = v
	return v, nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any]() T {
	v, err := Load[T]()
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration %s: %v", reflect.TypeFor[T](), err))
	}
	return v
}

// Parse reads T from the given variables only, bypassing the process
// environment and the cache. Useful in tests and CLIs.
func Parse[T any](environment map[string]string) (T, error) {
	v, err := env.ParseAsWithOptions[T](env.Options{Environment: environment})
	if err != nil {
		var zero T
		return zero, errors.Join(ErrParsingConfig, err)
	}
	return v, nil
}

// Reset drops every cached value.
func Reset() {
	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()
	clear(globalCache.values)
}
