// Package jwt issues and verifies the HS256 session tokens handed out after a
// successful two-factor login, and provides HTTP middleware and context helpers.
//
// Signing and parsing are delegated to github.com/golang-jwt/jwt/v5. Parse pins the
// algorithm to HS256, requires an expiry and checks the configured issuer.
//
// # Usage
//
//	svc, err := jwt.New(jwt.Config{SigningKey: os.Getenv("JWT_SECRET"), Issuer: "eventplanner"})
//	if err != nil {
//	    return err
//	}
//
//	token, expiresAt, err := svc.Issue(userID.String(), email)
//
//	r.Group(func(r chi.Router) {
//	    r.Use(jwt.Middleware(svc))
//	    r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
//	        claims, _ := jwt.GetClaims(r.Context())
//	        fmt.Fprint(w, claims.Subject)
//	    })
//	})
//
// # Error Handling
//
// Parse returns ErrExpiredToken for expired tokens and ErrInvalidToken for anything
// else that fails verification. Middleware rejects both with 401 unless a custom
// ErrorHandler is configured.
package jwt
