package binder

import "errors"

// Common binding errors
var (
	ErrBinderNotApplicable  = errors.New("binder not applicable to request")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrMissingContentType   = errors.New("missing content type")
	ErrInvalidJSON          = errors.New("invalid JSON request body")
	ErrBodyTooLarge         = errors.New("request body too large")
)
