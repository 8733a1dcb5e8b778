package handler_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventplanner/twofactor/handler"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) handler.JSONResponse {
	t.Helper()
	var got handler.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	return got
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("simple data", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		err := handler.JSON(map[string]string{"id": "123", "name": "test"}).Render(w, r)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, handler.JSONResponse{
			Data: map[string]any{"id": "123", "name": "test"},
		}, decodeEnvelope(t, w))
	})

	t.Run("with meta and status", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", nil)

		resp := handler.JSON(
			map[string]string{"id": "123"},
			handler.WithJSONMeta(map[string]any{"version": "1.0"}),
			handler.WithJSONStatus(http.StatusCreated),
		)
		require.NoError(t, resp.Render(w, r))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, handler.JSONResponse{
			Data: map[string]any{"id": "123"},
			Meta: map[string]any{"version": "1.0"},
		}, decodeEnvelope(t, w))
	})

	t.Run("nil data", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		require.NoError(t, handler.JSON(nil).Render(w, r))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, handler.JSONResponse{}, decodeEnvelope(t, w))
	})

	t.Run("error value", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		require.NoError(t, handler.JSON(handler.ErrNotFound).Render(w, r))
		assert.Equal(t, http.StatusNotFound, w.Code)
		got := decodeEnvelope(t, w)
		require.NotNil(t, got.Error)
		assert.Equal(t, "not_found", got.Error.Code)
	})
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "http error",
			err:        handler.ErrUnauthorized,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "unauthorized",
			wantMsg:    "Unauthorized",
		},
		{
			name:       "wrapped http error",
			err:        fmt.Errorf("verify: %w", handler.NewHTTPError(http.StatusTooManyRequests, "too_many_attempts")),
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "too_many_attempts",
			wantMsg:    "Too Many Requests",
		},
		{
			name:       "generic error is not leaked",
			err:        errors.New("pq: connection refused on 10.0.0.4"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
			wantMsg:    "An error occurred processing your request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", nil)

			require.NoError(t, handler.JSONError(tt.err).Render(w, r))
			assert.Equal(t, tt.wantStatus, w.Code)

			got := decodeEnvelope(t, w)
			require.NotNil(t, got.Error)
			assert.Equal(t, tt.wantCode, got.Error.Code)
			assert.Equal(t, tt.wantMsg, got.Error.Message)
			assert.Nil(t, got.Data)
			assert.NotContains(t, w.Body.String(), "10.0.0.4")
		})
	}

	t.Run("validation error", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", nil)

		verr := handler.NewValidationError()
		verr.Add("token", "token is required")
		verr.Add("token", "token must be 6 digits")
		verr.Add("user_id", "user_id is required")

		require.NoError(t, handler.JSONError(verr).Render(w, r))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		got := decodeEnvelope(t, w)
		require.NotNil(t, got.Error)
		assert.Equal(t, "validation_error", got.Error.Code)
		assert.Equal(t, "validation error: token: token is required, user_id: user_id is required", got.Error.Message)
		assert.Equal(t, []string{"token is required", "token must be 6 digits"}, got.Error.Details["token"])
	})

	t.Run("error detail", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", nil)

		detail := &handler.ErrorDetail{Code: "custom", Message: "custom message"}
		require.NoError(t, handler.JSONError(detail, handler.WithJSONStatus(http.StatusBadRequest)).Render(w, r))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, &handler.ErrorDetail{Code: "custom", Message: "custom message"}, decodeEnvelope(t, w).Error)
	})
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	verr := handler.NewValidationError()
	assert.True(t, verr.IsEmpty())
	assert.Equal(t, "validation failed", verr.Error())

	verr.Add("email", "email is required")
	assert.False(t, verr.IsEmpty())
	assert.True(t, verr.Has("email"))
	assert.False(t, verr.Has("password"))

	var target handler.ValidationError
	assert.True(t, errors.As(fmt.Errorf("bind: %w", verr), &target))
}
