package jwt

import (
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// DefaultTTL matches the lifetime of a login session issued after the second factor.
const DefaultTTL = 24 * time.Hour

// SessionClaims are embedded in session tokens issued after a successful login.
type SessionClaims struct {
	Email string `json:"email,omitempty"`
	gojwt.RegisteredClaims
}

// Service issues and verifies HS256 session tokens.
// The signing key is kept in memory only and should be cryptographically secure.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a token service from cfg. Zero TTL falls back to DefaultTTL.
func New(cfg Config, opts ...Option) (*Service, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}

	s := &Service{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		ttl:        cfg.TTL,
		now:        time.Now,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Issue signs a session token for subject. It returns the token and its expiry.
func (s *Service) Issue(subject, email string) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, ErrInvalidClaims
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := SessionClaims{
		Email: email,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(expiresAt),
		},
	}

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, errors.Join(ErrFailedToSign, err)
	}
	return token, expiresAt, nil
}

// Parse verifies signature, algorithm, issuer and expiry and returns the claims.
func (s *Service) Parse(tokenString string) (*SessionClaims, error) {
	options := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		options = append(options, gojwt.WithIssuer(s.issuer))
	}

	claims := &SessionClaims{}
	_, err := gojwt.ParseWithClaims(tokenString, claims, func(*gojwt.Token) (any, error) {
		return s.signingKey, nil
	}, options...)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
