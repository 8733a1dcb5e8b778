package handler_test

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventplanner/twofactor/handler"
)

var errDomain = errors.New("domain: thing not found")

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestNewErrorHandler(t *testing.T) {
	t.Parallel()

	t.Run("generic error renders 500 and logs at error level", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		errorHandler := handler.NewErrorHandler(newTestLogger(&buf))

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/2fa/verify", nil)
		errorHandler(handler.NewContext(w, r), errors.New("secret storage exploded"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "exploded")
		assert.Contains(t, w.Body.String(), "internal_error")

		assert.Contains(t, buf.String(), `"level":"ERROR"`)
		assert.Contains(t, buf.String(), "secret storage exploded")
		assert.Contains(t, buf.String(), `"path":"/2fa/verify"`)
	})

	t.Run("client error logs at warn level", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		errorHandler := handler.NewErrorHandler(newTestLogger(&buf))

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		errorHandler(handler.NewContext(w, r), handler.ErrBadRequest)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, buf.String(), `"level":"WARN"`)
	})

	t.Run("mappers translate domain errors", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		mapper := func(err error) error {
			if errors.Is(err, errDomain) {
				return handler.ErrNotFound
			}
			return nil
		}
		errorHandler := handler.NewErrorHandler(newTestLogger(&buf), mapper)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		errorHandler(handler.NewContext(w, r), errDomain)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"not_found"`)
		// The original error is logged, not the mapped one.
		assert.Contains(t, buf.String(), "domain: thing not found")
	})

	t.Run("validation error", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		errorHandler := handler.NewErrorHandler(newTestLogger(&buf))

		verr := handler.NewValidationError()
		verr.Add("token", "token is required")

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		errorHandler(handler.NewContext(w, r), verr)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "token is required")
	})

	t.Run("request id is logged", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		errorHandler := handler.NewErrorHandler(newTestLogger(&buf))

		var called bool
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			errorHandler(handler.NewContext(w, r), handler.ErrForbidden)
		}))

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(middleware.RequestIDHeader, "req-42")
		h.ServeHTTP(w, r)

		require.True(t, called)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, buf.String(), `"request_id":"req-42"`)
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		t.Parallel()
		errorHandler := handler.NewErrorHandler(nil)
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.NotPanics(t, func() { errorHandler(handler.NewContext(w, r), handler.ErrConflict) })
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
