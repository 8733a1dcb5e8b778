package jwt

import (
	"net/http"
	"strings"
)

// TokenExtractorFunc defines a function that extracts a token from an HTTP request.
type TokenExtractorFunc func(r *http.Request) (string, error)

// SkipFunc defines a function that determines whether to skip JWT validation for a request.
type SkipFunc func(r *http.Request) bool

// ErrorHandlerFunc writes the response for a rejected request.
type ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)

// MiddlewareConfig configures JWT middleware behavior.
type MiddlewareConfig struct {
	Service      *Service           // JWT service for token validation
	Extractor    TokenExtractorFunc // Token extraction strategy (defaults to Bearer)
	Skip         SkipFunc           // Optional request filter to bypass validation
	ErrorHandler ErrorHandlerFunc   // Defaults to a plain 401
}

// Middleware creates JWT middleware with default Bearer token extraction.
// Validates tokens and injects claims into request context for downstream handlers.
func Middleware(service *Service) func(next http.Handler) http.Handler {
	return MiddlewareWithConfig(MiddlewareConfig{
		Service:   service,
		Extractor: BearerTokenExtractor,
	})
}

// MiddlewareWithConfig creates JWT middleware with custom configuration.
func MiddlewareWithConfig(config MiddlewareConfig) func(next http.Handler) http.Handler {
	if config.Extractor == nil {
		config.Extractor = BearerTokenExtractor
	}
	if config.ErrorHandler == nil {
		config.ErrorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.Skip != nil && config.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, err := config.Extractor(r)
			if err != nil {
				config.ErrorHandler(w, r, err)
				return
			}

			claims, err := config.Service.Parse(tokenString)
			if err != nil {
				config.ErrorHandler(w, r, err)
				return
			}

			ctx := r.Context()
			ctx = SetToken(ctx, tokenString)
			ctx = SetClaims(ctx, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, _ error) {
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}

// BearerTokenExtractor extracts JWT tokens from "Authorization: Bearer <token>" headers.
func BearerTokenExtractor(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrInvalidToken
	}

	return token, nil
}

// CookieTokenExtractor creates a token extractor for cookie-based JWT transport.
func CookieTokenExtractor(cookieName string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(cookieName)
		if err != nil || cookie.Value == "" {
			return "", ErrInvalidToken
		}
		return cookie.Value, nil
	}
}
