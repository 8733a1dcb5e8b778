package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/eventplanner/twofactor/pkg/logger"
)

// ErrorMapper translates domain errors into HTTPError values before rendering.
// Returning nil leaves the error unchanged.
type ErrorMapper func(err error) error

// ErrorInfo contains classified error information
type ErrorInfo struct {
	StatusCode int
	LogLevel   slog.Level
}

func isClientError(statusCode int) bool {
	return statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError
}

// determineLogLevel maps HTTP status codes to appropriate log levels
func determineLogLevel(statusCode int) slog.Level {
	if isClientError(statusCode) {
		return slog.LevelWarn
	}
	return slog.LevelError
}

// classifyError analyzes the error and returns structured error information
func classifyError(err error) ErrorInfo {
	info := ErrorInfo{StatusCode: http.StatusInternalServerError}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		info.StatusCode = httpErr.Code
	}

	var validationErr ValidationError
	if errors.As(err, &validationErr) {
		info.StatusCode = http.StatusUnprocessableEntity
	}

	info.LogLevel = determineLogLevel(info.StatusCode)
	return info
}

// logError logs the error with request context
func logError(log *slog.Logger, ctx Context, err error, info ErrorInfo) {
	r := ctx.Request()
	log.LogAttrs(r.Context(), info.LogLevel, "request error",
		logger.RequestID(middleware.GetReqID(r.Context())),
		logger.Error(err),
		slog.Int("status_code", info.StatusCode),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		logger.Component("error_handler"),
	)
}

// NewErrorHandler creates the JSON error handler shared by all API routes.
// Mappers run in order; the first non-nil result replaces the error.
// Configure this once in main.go and pass it to every module.
func NewErrorHandler(log *slog.Logger, mappers ...ErrorMapper) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		original := err
		for _, m := range mappers {
			if mapped := m(err); mapped != nil {
				err = mapped
				break
			}
		}

		info := classifyError(err)
		logError(log, ctx, original, info)

		if renderErr := JSONError(err).Render(ctx.ResponseWriter(), ctx.Request()); renderErr != nil {
			log.Error("failed to render error response",
				logger.Error(renderErr),
				logger.Event("render_error"),
				logger.Component("error_handler"),
			)
		}
	}
}
