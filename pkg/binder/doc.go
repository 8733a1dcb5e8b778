// Package binder decodes HTTP request bodies into typed request structs.
//
// Binders have the signature func(r *http.Request, v any) error so they can be
// passed to handler.WithBinders. The JSON binder is strict: it requires an
// application/json Content-Type, rejects unknown fields and trailing data, caps the
// body size (DefaultMaxJSONSize) and sanitizes every string field it decodes.
//
// # Usage
//
//	type EnableRequest struct {
//	    Token string `json:"token"`
//	}
//
//	r.Post("/2fa/enable", handler.Wrap(enable,
//	    handler.WithBinders[handler.Context, EnableRequest](binder.JSON()),
//	))
//
// Endpoints whose body is optional use binder.JSON(binder.Optional()); the binder
// then returns ErrBinderNotApplicable for bodiless requests and the handler
// package skips it.
//
// # Error Handling
//
// All errors wrap one of the sentinels in errors.go. ErrUnsupportedMediaType and
// ErrMissingContentType indicate the wrong Content-Type, ErrBodyTooLarge an oversized
// body and ErrInvalidJSON everything else.
package binder
