// Package config loads typed configuration from environment variables.
//
// Every package owns an env-tagged Config struct (see github.com/caarlos0/env);
// this package parses it, optionally after reading a .env file with
// github.com/joho/godotenv, and caches the result per type.
//
//	cfg, err := config.Load[httpserver.Config]()
//	if err != nil {
//	    return err
//	}
//
// Parse is the uncached variant that reads from an explicit map instead of the
// process environment.
package config
