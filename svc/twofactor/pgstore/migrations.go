package pgstore

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventplanner/twofactor/pkg/pg"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

type migrationLogger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// Migrate brings the users table up to date.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log migrationLogger) error {
	return pg.Migrate(ctx, pool, cfg, migrations, migrationsDir, log)
}
