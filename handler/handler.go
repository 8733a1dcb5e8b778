package handler

import (
	"errors"
	"net/http"

	"github.com/eventplanner/twofactor/pkg/binder"
)

// HandlerFunc provides type-safe HTTP request handling with custom context support.
// C must implement the Context interface, R can be any request type.
//
// Example with standard context:
//
//	h := handler.HandlerFunc[handler.Context, VerifyRequest](
//		func(ctx handler.Context, req VerifyRequest) handler.Response {
//			res, err := svc.Verify(ctx, req.UserID, req.Token)
//			if err != nil {
//				return handler.JSONError(err)
//			}
//			return handler.JSON(res)
//		},
//	)
//
// Example with custom context:
//
//	h := handler.HandlerFunc[AppContext, SetupRequest](
//		func(ctx AppContext, req SetupRequest) handler.Response {
//			userID := ctx.UserID() // Direct access to custom methods
//			return handler.JSON(userID)
//		},
//	)
type HandlerFunc[C Context, R any] func(ctx C, req R) Response

// Response renders itself to an http.ResponseWriter.
// Implementations should set headers, status code, and write body.
// Errors are handled by the framework (returns 500).
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Bind parses HTTP requests into typed values.
type Bind func(r *http.Request, v any) error

// ErrorHandler handles errors from binding or rendering.
type ErrorHandler[C Context] func(ctx C, err error)

// Decorator wraps a HandlerFunc to add cross-cutting functionality.
// Decorators are applied in order, with the first decorator in the list
// being the outermost wrapper.
//
// Example logger decorator:
//
//	func Logger[C Context, R any]() Decorator[C, R] {
//		return func(next HandlerFunc[C, R]) HandlerFunc[C, R] {
//			return func(ctx C, req R) Response {
//				log.Printf("Request: %+v", req)
//				resp := next(ctx, req)
//				log.Printf("Response complete")
//				return resp
//			}
//		}
//	}
type Decorator[C Context, R any] func(HandlerFunc[C, R]) HandlerFunc[C, R]

// WrapOption configures the Wrap function.
type WrapOption[C Context, R any] func(*wrapConfig[C, R])

// wrapConfig holds configuration for Wrap.
type wrapConfig[C Context, R any] struct {
	binders      []Bind
	errorHandler ErrorHandler[C]
	decorators   []Decorator[C, R]
}

// WithBinders sets multiple request binders that will be applied in order.
// Each binder should process only its specific struct tags.
//
// Example:
//
//	r.Post("/2fa/verify", handler.Wrap(h,
//		handler.WithBinders[handler.Context, VerifyRequest](
//			binder.JSON(), // processes json: tags
//		),
//	))
func WithBinders[C Context, R any](binders ...Bind) WrapOption[C, R] {
	return func(c *wrapConfig[C, R]) {
		c.binders = append(c.binders, binders...)
	}
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler[C Context, R any](h ErrorHandler[C]) WrapOption[C, R] {
	return func(c *wrapConfig[C, R]) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithDecorators adds decorators to wrap the handler.
// Decorators are applied in order, with the first decorator being the outermost.
//
// Example:
//
//	r.Post("/2fa/setup", handler.Wrap(h,
//		handler.WithDecorators(
//			Logger[handler.Context, SetupRequest](),
//			RequireSession[handler.Context, SetupRequest](),
//		),
//	))
func WithDecorators[C Context, R any](decorators ...Decorator[C, R]) WrapOption[C, R] {
	return func(c *wrapConfig[C, R]) {
		c.decorators = append(c.decorators, decorators...)
	}
}

// defaultErrorHandler provides standard HTTP error responses.
// It checks if the error is an HTTPError and uses its status code,
// otherwise defaults to 500 Internal Server Error.
func defaultErrorHandler[C Context](ctx C, err error) {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		http.Error(ctx.ResponseWriter(), httpErr.Key, httpErr.Code)
		return
	}
	http.Error(ctx.ResponseWriter(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Wrap converts a typed HandlerFunc to http.HandlerFunc.
// Requests implementing Validatable (on the pointer receiver) are validated after
// binding; a validation failure goes to the error handler.
//
// C must be satisfied by the value NewContext returns; Wrap panics otherwise.
//
//	h := handler.HandlerFunc[handler.Context, VerifyRequest](...)
//	r.Post("/2fa/verify", handler.Wrap(h,
//		handler.WithBinders[handler.Context, VerifyRequest](binder.JSON()),
//		handler.WithErrorHandler[handler.Context, VerifyRequest](errorHandler),
//	))
func Wrap[C Context, R any](h HandlerFunc[C, R], opts ...WrapOption[C, R]) http.HandlerFunc {
	// Initialize config with defaults
	cfg := &wrapConfig[C, R]{
		errorHandler: defaultErrorHandler[C],
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	// Apply decorators in reverse order so first decorator is outermost
	finalHandler := h
	for i := len(cfg.decorators) - 1; i >= 0; i-- {
		finalHandler = cfg.decorators[i](finalHandler)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := newContext[C](w, r)

		var req R

		// Apply binders in order - skip those that are not applicable
		for _, bind := range cfg.binders {
			if err := bind(r, &req); err != nil {
				// Skip binders that are not applicable to this request
				if errors.Is(err, binder.ErrBinderNotApplicable) {
					continue
				}
				cfg.errorHandler(ctx, err)
				return
			}
		}

		if v, ok := any(&req).(Validatable); ok {
			if err := v.Validate(); err != nil {
				cfg.errorHandler(ctx, err)
				return
			}
		}

		response := finalHandler(ctx, req)
		if response == nil {
			cfg.errorHandler(ctx, ErrNilResponse)
			return
		}
		if err := response.Render(w, r); err != nil {
			cfg.errorHandler(ctx, err)
		}
	}
}

func newContext[C Context](w http.ResponseWriter, r *http.Request) C {
	if c, ok := any(NewContext(w, r)).(C); ok {
		return c
	}
	panic("handler: context type is not compatible with NewContext")
}
