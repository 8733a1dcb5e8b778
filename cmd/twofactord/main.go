package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/eventplanner/twofactor/internal/storage"
	"github.com/eventplanner/twofactor/pkg/attempts"
	"github.com/eventplanner/twofactor/pkg/config"
	"github.com/eventplanner/twofactor/pkg/email"
	"github.com/eventplanner/twofactor/pkg/httpserver"
	"github.com/eventplanner/twofactor/pkg/jwt"
	"github.com/eventplanner/twofactor/pkg/logger"
	"github.com/eventplanner/twofactor/pkg/qrcode"
	"github.com/eventplanner/twofactor/pkg/redis"
	"github.com/eventplanner/twofactor/pkg/totp"
	"github.com/eventplanner/twofactor/svc/twofactor"
	"github.com/eventplanner/twofactor/svc/twofactor/notify"
)

type appConfig struct {
	Env          string `env:"APP_ENV" envDefault:"development"`
	Service      string `env:"SERVICE_NAME" envDefault:"twofactord"`
	LogSource    bool   `env:"LOG_SOURCE" envDefault:"false"`
	AppName      string `env:"APP_NAME" envDefault:"EventPlanner"`
	Storage      string `env:"STORAGE_DRIVER" envDefault:"memory"`
	RateLimit    bool   `env:"TWOFACTOR_RATE_LIMIT" envDefault:"true"`
	Notify       bool   `env:"TWOFACTOR_NOTIFY" envDefault:"false"`
	QRCodeSize   int    `env:"TWOFACTOR_QR_SIZE" envDefault:"300"`
	DevUserEmail string `env:"DEV_USER_EMAIL"`
	DevUserPass  string `env:"DEV_USER_PASSWORD"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("twofactord stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load[appConfig]()
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Service),
		logger.WithHandlerOptions(&slog.HandlerOptions{AddSource: cfg.LogSource}),
		logger.WithRequestID(),
	)
	logger.SetAsDefault(log)

	backend, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(context.WithoutCancel(ctx)); err != nil {
			log.ErrorContext(ctx, "failed to close storage", logger.Error(err))
		}
	}()
	checks := backend.Checks()

	if cfg.DevUserEmail != "" && cfg.DevUserPass != "" {
		if err := seedUser(ctx, backend.Store, cfg.DevUserEmail, cfg.DevUserPass); err != nil {
			return err
		}
		log.InfoContext(ctx, "dev user ready", slog.String("email", cfg.DevUserEmail))
	}

	totpCfg, err := config.Load[totp.Config]()
	if err != nil {
		return err
	}
	codec, err := totp.NewSecretCodec(totpCfg)
	if err != nil {
		return err
	}
	engine := totp.NewEngine(totp.WithIssuer(totpCfg.Issuer))

	opts := []twofactor.Option{
		twofactor.WithLogger(log),
		twofactor.WithReplayGuard(totp.NewReplayGuard(totpCfg.ReplayCooldown)),
		twofactor.WithBackupCodeCount(totpCfg.RecoveryCodeCount),
		twofactor.WithQRCodeGenerator(qrcode.GenerateBase64Image, cfg.QRCodeSize),
	}

	if cfg.RateLimit {
		redisCfg, err := config.Load[redis.Config]()
		if err != nil {
			return err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()

		limiterCfg, err := config.Load[attempts.Config]()
		if err != nil {
			return err
		}
		opts = append(opts, twofactor.WithAttemptLimiter(attempts.New(client, limiterCfg)))
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
	}

	if cfg.Notify {
		emailCfg, err := config.Load[email.Config]()
		if err != nil {
			return err
		}
		sender, err := email.NewSender(emailCfg)
		if err != nil {
			return err
		}
		opts = append(opts, twofactor.WithNotifier(notify.NewEmailNotifier(sender,
			notify.WithAppName(cfg.AppName),
			notify.WithSupportEmail(emailCfg.SupportEmail),
		)))
	}

	jwtCfg, err := config.Load[jwt.Config]()
	if err != nil {
		return err
	}
	sessions, err := jwt.New(jwtCfg)
	if err != nil {
		return err
	}

	svc := twofactor.NewService(backend.Store, backend.Store, codec, engine, opts...)

	httpCfg, err := config.Load[httpserver.Config]()
	if err != nil {
		return err
	}
	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	log.InfoContext(ctx, "starting twofactord",
		slog.String("storage", backend.Driver),
		slog.Bool("rate_limit", cfg.RateLimit),
		slog.Bool("notify", cfg.Notify),
	)
	return srv.Run(ctx, newRouter(log, svc, sessions, checks))
}

// seedUser creates a local account for manual testing unless it already exists.
func seedUser(ctx context.Context, store storage.Store, addr, password string) error {
	hash, err := twofactor.HashPassword(password, 0)
	if err != nil {
		return err
	}
	err = store.Create(ctx, &twofactor.Record{ID: uuid.New(), Email: addr}, hash)
	if err != nil && !errors.Is(err, twofactor.ErrEmailTaken) {
		return err
	}
	return nil
}
