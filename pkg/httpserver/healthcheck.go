package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/eventplanner/twofactor/pkg/logger"
)

// DefaultHealthCheckTimeout bounds each readiness check.
const DefaultHealthCheckTimeout = 3 * time.Second

// Check is a named dependency probe such as pg.Healthcheck(pool).
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// LivenessHandler always answers 200 "ALIVE".
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ALIVE"))
	}
}

// ReadinessHandler runs every check with the request context and answers
// 200 "READY" or 503 "NOT_READY" on the first failure.
func ReadinessHandler(log *slog.Logger, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		for _, c := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), DefaultHealthCheckTimeout)
			err := c.Fn(ctx)
			cancel()
			if err != nil {
				log.ErrorContext(r.Context(), "readiness check failed",
					slog.String("check", c.Name),
					logger.Error(err),
					logger.Component("healthcheck"),
				)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
