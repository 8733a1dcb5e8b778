package account_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eventplanner/twofactor/handler"
	"github.com/eventplanner/twofactor/modules/account"
	"github.com/eventplanner/twofactor/pkg/binder"
	"github.com/eventplanner/twofactor/svc/twofactor"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKey    string
	}{
		{name: "not found", err: twofactor.ErrNotFound, wantStatus: http.StatusNotFound, wantKey: "not_found"},
		{name: "already enabled", err: twofactor.ErrAlreadyEnabled, wantStatus: http.StatusBadRequest, wantKey: "two_factor_already_enabled"},
		{name: "not enabled", err: twofactor.ErrNotEnabled, wantStatus: http.StatusBadRequest, wantKey: "two_factor_not_enabled"},
		{name: "not configured", err: twofactor.ErrNotConfigured, wantStatus: http.StatusBadRequest, wantKey: "two_factor_not_configured"},
		{name: "invalid token", err: twofactor.ErrInvalidToken, wantStatus: http.StatusBadRequest, wantKey: "invalid_token"},
		{name: "unknown user on verify", err: errors.Join(twofactor.ErrNotConfigured, twofactor.ErrInvalidToken), wantStatus: http.StatusBadRequest, wantKey: "invalid_token"},
		{name: "invalid credential", err: twofactor.ErrInvalidCredential, wantStatus: http.StatusBadRequest, wantKey: "invalid_credential"},
		{name: "replay", err: errors.Join(twofactor.ErrInvalidToken, twofactor.ErrReplayDetected), wantStatus: http.StatusBadRequest, wantKey: "token_already_used"},
		{name: "conflict", err: twofactor.ErrConflict, wantStatus: http.StatusConflict, wantKey: "conflict"},
		{name: "too many attempts", err: twofactor.ErrTooManyAttempts, wantStatus: http.StatusTooManyRequests, wantKey: "too_many_attempts"},
		{name: "limiter down", err: errors.Join(twofactor.ErrAttemptLimiterUnavailable, errors.New("dial tcp")), wantStatus: http.StatusServiceUnavailable, wantKey: "service_unavailable"},
		{name: "crypto failure", err: errors.Join(twofactor.ErrCryptoFailure, twofactor.ErrInvalidToken), wantStatus: http.StatusInternalServerError, wantKey: "internal_server_error"},
		{name: "wrong media type", err: fmt.Errorf("%w: got text/plain", binder.ErrUnsupportedMediaType), wantStatus: http.StatusUnsupportedMediaType, wantKey: "unsupported_media_type"},
		{name: "missing content type", err: binder.ErrMissingContentType, wantStatus: http.StatusUnsupportedMediaType, wantKey: "unsupported_media_type"},
		{name: "body too large", err: binder.ErrBodyTooLarge, wantStatus: http.StatusRequestEntityTooLarge, wantKey: "request_body_too_large"},
		{name: "bad json", err: binder.ErrInvalidJSON, wantStatus: http.StatusBadRequest, wantKey: "invalid_request_body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var httpErr handler.HTTPError
			assert.True(t, errors.As(account.MapError(tt.err), &httpErr))
			assert.Equal(t, tt.wantStatus, httpErr.Code)
			assert.Equal(t, tt.wantKey, httpErr.Key)
		})
	}

	t.Run("unknown errors are left alone", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, account.MapError(errors.New("boom")))
		assert.Nil(t, account.MapError(twofactor.ErrFailedToSaveRecord))
	})
}
