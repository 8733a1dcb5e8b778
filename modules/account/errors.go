package account

import (
	"errors"
	"net/http"

	"github.com/eventplanner/twofactor/handler"
	"github.com/eventplanner/twofactor/pkg/binder"
	"github.com/eventplanner/twofactor/svc/twofactor"
)

// Client facing error codes for the /2fa routes.
var (
	ErrTwoFactorAlreadyEnabled = handler.NewHTTPError(http.StatusBadRequest, "two_factor_already_enabled")
	ErrTwoFactorNotEnabled     = handler.NewHTTPError(http.StatusBadRequest, "two_factor_not_enabled")
	ErrTwoFactorNotConfigured  = handler.NewHTTPError(http.StatusBadRequest, "two_factor_not_configured")
	ErrInvalidToken            = handler.NewHTTPError(http.StatusBadRequest, "invalid_token")
	ErrInvalidCredential       = handler.NewHTTPError(http.StatusBadRequest, "invalid_credential")
	ErrTokenAlreadyUsed        = handler.NewHTTPError(http.StatusBadRequest, "token_already_used")
	ErrInvalidRequestBody      = handler.NewHTTPError(http.StatusBadRequest, "invalid_request_body")
	ErrRequestBodyTooLarge     = handler.NewHTTPError(http.StatusRequestEntityTooLarge, "request_body_too_large")
	ErrTooManyAttempts         = handler.NewHTTPError(http.StatusTooManyRequests, "too_many_attempts")
)

// MapError translates two-factor and binding errors into HTTP errors. Unknown errors,
// crypto failures included, return nil so they render as a generic 500.
// Pass it to handler.NewErrorHandler.
func MapError(err error) error {
	switch {
	case errors.Is(err, twofactor.ErrCryptoFailure):
		return handler.ErrInternalServerError
	case errors.Is(err, twofactor.ErrAttemptLimiterUnavailable):
		return handler.ErrServiceUnavailable
	case errors.Is(err, twofactor.ErrTooManyAttempts):
		return ErrTooManyAttempts
	case errors.Is(err, twofactor.ErrConflict):
		return handler.ErrConflict
	case errors.Is(err, twofactor.ErrReplayDetected):
		return ErrTokenAlreadyUsed
	case errors.Is(err, twofactor.ErrInvalidCredential):
		return ErrInvalidCredential
	// Unknown users on verify carry both NotConfigured and InvalidToken; report
	// the token so the response does not reveal whether the account exists.
	case errors.Is(err, twofactor.ErrInvalidToken):
		return ErrInvalidToken
	case errors.Is(err, twofactor.ErrAlreadyEnabled):
		return ErrTwoFactorAlreadyEnabled
	case errors.Is(err, twofactor.ErrNotEnabled):
		return ErrTwoFactorNotEnabled
	case errors.Is(err, twofactor.ErrNotConfigured):
		return ErrTwoFactorNotConfigured
	case errors.Is(err, twofactor.ErrNotFound):
		return handler.ErrNotFound
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		return handler.ErrUnsupportedMedia
	case errors.Is(err, binder.ErrBodyTooLarge):
		return ErrRequestBodyTooLarge
	case errors.Is(err, binder.ErrInvalidJSON):
		return ErrInvalidRequestBody
	}
	return nil
}
