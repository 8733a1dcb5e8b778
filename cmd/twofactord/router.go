package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/eventplanner/twofactor/handler"
	"github.com/eventplanner/twofactor/modules/account"
	"github.com/eventplanner/twofactor/pkg/httpserver"
	"github.com/eventplanner/twofactor/pkg/jwt"
	"github.com/eventplanner/twofactor/pkg/logger"
)

func newRouter(log *slog.Logger, svc account.TwoFactorOperations, sessions *jwt.Service, checks []httpserver.Check) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		logger.RequestLogger(log),
		middleware.Recoverer,
	)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, checks...))

	authenticate := jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{
		Service:      sessions,
		Extractor:    jwt.BearerTokenExtractor,
		ErrorHandler: unauthorized(log),
	})

	tfa := account.NewTwoFactorService(svc, sessions, authenticate,
		handler.NewErrorHandler(log, account.MapError),
	)
	r.Mount("/", account.Router(account.RouterOptions{TwoFactor: tfa}))

	return r
}

// unauthorized renders the standard JSON error envelope for missing or invalid bearer tokens.
func unauthorized(log *slog.Logger) jwt.ErrorHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		log.DebugContext(r.Context(), "bearer token rejected", logger.Error(err), logger.Component("auth"))
		if rerr := handler.JSONError(handler.ErrUnauthorized).Render(w, r); rerr != nil {
			log.ErrorContext(r.Context(), "failed to render response", logger.Error(rerr))
		}
	}
}
