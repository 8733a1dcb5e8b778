package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures which services to mount in the account module.
// Each service is optional and will only be mounted if provided.
type RouterOptions struct {
	// Second factor enrollment and verification, mounted at /2fa.
	TwoFactor Mountable
}

// Router creates a new account module router with configurable services.
//
// Example:
//
//	tfa := account.NewTwoFactorService(svc, sessions, jwt.Middleware(sessions), errHandler)
//
//	r := chi.NewRouter()
//	r.Mount("/", account.Router(account.RouterOptions{
//	    TwoFactor: tfa,
//	}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	if opts.TwoFactor != nil {
		r.Mount("/2fa", opts.TwoFactor.Handle())
	}

	return r
}
