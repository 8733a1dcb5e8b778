// Package handler provides type-safe HTTP request handling for the JSON API.
//
// Handlers are generic functions that receive a bound request value and return a
// Response. Wrap turns them into http.HandlerFunc values that can be mounted on any
// router (the service uses chi):
//
//	type VerifyRequest struct {
//		UserID string `json:"user_id"`
//		Token  string `json:"token"`
//	}
//
//	func (r *VerifyRequest) Validate() error {
//		verr := handler.NewValidationError()
//		if r.Token == "" {
//			verr.Add("token", "token is required")
//		}
//		if verr.IsEmpty() {
//			return nil
//		}
//		return verr
//	}
//
//	func verify(ctx handler.Context, req VerifyRequest) handler.Response {
//		res, err := svc.Verify(ctx, req.UserID, req.Token)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(res)
//	}
//
//	r.Post("/2fa/verify", handler.Wrap(verify,
//		handler.WithBinders[handler.Context, VerifyRequest](binder.JSON()),
//		handler.WithErrorHandler[handler.Context, VerifyRequest](errHandler),
//	))
//
// # Architecture
//
// 1. HandlerFunc - generic function that accepts typed requests and returns responses
// 2. Response - anything that renders itself to an http.ResponseWriter
// 3. Context - context.Context plus access to the request and response writer
// 4. Decorators - middleware-like wrappers around a HandlerFunc
// 5. Error handlers - turn binding, validation and render errors into responses
//
// # Responses
//
// Every response shares one envelope:
//
//	{"data": ..., "meta": {...}, "error": {"code": "...", "message": "...", "details": {...}}}
//
//	handler.JSON(data)                         // 200 OK with data
//	handler.JSON(data, handler.WithJSONStatus(201))
//	handler.JSONError(err)                     // status derived from err
//
// # Error Handling
//
// HTTPError carries a status code and a machine readable key that becomes the
// envelope's error code. ValidationError renders as 422 with per-field details.
// Any other error renders as a generic 500 so internal details never reach clients.
//
// NewErrorHandler builds the shared error handler. Domain packages pass ErrorMapper
// functions to translate their sentinel errors into HTTPError values.
package handler
