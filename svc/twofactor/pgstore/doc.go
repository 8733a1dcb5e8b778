// Package pgstore persists two-factor records in a PostgreSQL users table.
//
// The schema ships as embedded goose migrations; run Migrate before serving.
// Updates are guarded by WHERE id = $1 AND version = $2, so the losing side of
// a concurrent write receives twofactor.ErrConflict.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err := pgstore.Migrate(ctx, pool, cfg, log); err != nil {
//	    return err
//	}
//	store := pgstore.New(pool)
package pgstore
