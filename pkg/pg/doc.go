// Package pg wraps the pgx/v5 driver with the small amount of glue a service needs
// at start-up: a retrying pool constructor, goose migrations from an embedded
// filesystem, a health check closure and SQLSTATE helpers.
//
// # Usage
//
//	var cfg pg.Config
//	if err := env.Parse(&cfg); err != nil {
//	    return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	//go:embed migrations/*.sql
//	var migrations embed.FS
//
//	if err := pg.Migrate(ctx, pool, cfg, migrations, "migrations", slog.Default()); err != nil {
//	    return err
//	}
//
//	health := pg.Healthcheck(pool)
//
// # Error Handling
//
// Connection and migration failures are joined with package sentinels
// (ErrFailedToOpenDBConnection, ErrFailedToApplyMigrations). IsNotFoundError,
// IsDuplicateKeyError and IsSerializationError classify errors returned by queries.
package pg
