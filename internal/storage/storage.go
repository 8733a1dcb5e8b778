// Package storage opens the user store selected by STORAGE_DRIVER together with
// its readiness check. Both binaries share it.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eventplanner/twofactor/pkg/config"
	"github.com/eventplanner/twofactor/pkg/httpserver"
	"github.com/eventplanner/twofactor/pkg/logger"
	"github.com/eventplanner/twofactor/pkg/mongo"
	"github.com/eventplanner/twofactor/pkg/pg"
	"github.com/eventplanner/twofactor/svc/twofactor"
	"github.com/eventplanner/twofactor/svc/twofactor/mongostore"
	"github.com/eventplanner/twofactor/svc/twofactor/pgstore"
)

const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

var (
	ErrUnknownDriver = errors.New("unknown storage driver")
	ErrFailedToOpen  = errors.New("failed to open storage")
)

type Config struct {
	Driver string `env:"STORAGE_DRIVER" envDefault:"memory"` // memory, mongo or postgres
}

// Store is what the binaries need from a backend: the service contracts plus user creation.
type Store interface {
	twofactor.Storage
	twofactor.CredentialVerifier
	Create(ctx context.Context, rec *twofactor.Record, passwordHash []byte) error
}

// Backend is an opened store. Close releases its connections.
type Backend struct {
	Driver string
	Store  Store
	Check  *httpserver.Check
	Close  func(context.Context) error
}

// Open connects to the configured backend. Driver specific settings are read
// with config.Load, so only the selected driver's variables are required.
func Open(ctx context.Context, driver string, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	switch driver {
	case DriverMemory, "":
		return &Backend{
			Driver: DriverMemory,
			Store:  twofactor.NewMemoryStorage(),
			Close:  func(context.Context) error { return nil },
		}, nil

	case DriverMongo:
		cfg, err := config.Load[mongo.Config]()
		if err != nil {
			return nil, errors.Join(ErrFailedToOpen, err)
		}
		db, err := mongo.NewWithDatabase(ctx, cfg)
		if err != nil {
			return nil, errors.Join(ErrFailedToOpen, err)
		}
		store := mongostore.New(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(context.WithoutCancel(ctx))
			return nil, errors.Join(ErrFailedToOpen, err)
		}
		log.InfoContext(ctx, "storage opened", slog.String("driver", driver), slog.String("database", cfg.Database), logger.Component("storage"))
		return &Backend{
			Driver: DriverMongo,
			Store:  store,
			Check:  &httpserver.Check{Name: "mongo", Fn: mongo.Healthcheck(db.Client())},
			Close:  db.Client().Disconnect,
		}, nil

	case DriverPostgres:
		cfg, err := config.Load[pg.Config]()
		if err != nil {
			return nil, errors.Join(ErrFailedToOpen, err)
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, errors.Join(ErrFailedToOpen, err)
		}
		if err := pgstore.Migrate(ctx, pool, cfg, log); err != nil {
			pool.Close()
			return nil, errors.Join(ErrFailedToOpen, err)
		}
		log.InfoContext(ctx, "storage opened", slog.String("driver", driver), logger.Component("storage"))
		return &Backend{
			Driver: DriverPostgres,
			Store:  pgstore.New(pool),
			Check:  &httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
			Close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	default:
		return nil, errors.Join(ErrUnknownDriver, fmt.Errorf("driver %q", driver))
	}
}

// Checks returns the backend's readiness probe, if it has one.
func (b *Backend) Checks() []httpserver.Check {
	if b.Check == nil {
		return nil
	}
	return []httpserver.Check{*b.Check}
}
