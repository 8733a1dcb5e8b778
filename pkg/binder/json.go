package binder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"
	"unicode"
)

// DefaultMaxJSONSize is the default maximum size for JSON request bodies (1MB).
const DefaultMaxJSONSize = 1 << 20 // 1 MB

// JSONOption configures the JSON binder.
type JSONOption func(*jsonConfig)

type jsonConfig struct {
	maxSize  int64
	optional bool
}

// WithMaxSize overrides DefaultMaxJSONSize. Non-positive values are ignored.
func WithMaxSize(n int64) JSONOption {
	return func(c *jsonConfig) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// Optional makes the binder step aside (ErrBinderNotApplicable) when the request
// carries neither a body nor a Content-Type header.
func Optional() JSONOption {
	return func(c *jsonConfig) {
		c.optional = true
	}
}

// JSON creates a JSON binder function.
// Unknown fields and trailing data are rejected. String fields are trimmed and
// stripped of control characters after decoding unless tagged `sanitize:"-"`.
//
// Example:
//
//	r.Post("/2fa/verify", handler.Wrap(verify,
//		handler.WithBinders[handler.Context, VerifyRequest](binder.JSON()),
//	))
func JSON(opts ...JSONOption) func(r *http.Request, v any) error {
	cfg := jsonConfig{maxSize: DefaultMaxJSONSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(r *http.Request, v any) error {
		if err := r.Context().Err(); err != nil {
			return errors.Join(ErrInvalidJSON, err)
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			if cfg.optional && (r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0) {
				return ErrBinderNotApplicable
			}
			return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
		}

		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			// Fall back to the part before parameters for sloppy headers.
			mediaType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
		}
		if mediaType != "application/json" {
			return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, mediaType)
		}

		if r.Body == nil {
			return fmt.Errorf("%w: empty body", ErrInvalidJSON)
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, cfg.maxSize+1))
		if err != nil {
			return errors.Join(ErrInvalidJSON, err)
		}
		if int64(len(body)) > cfg.maxSize {
			return fmt.Errorf("%w: max %d bytes", ErrBodyTooLarge, cfg.maxSize)
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return fmt.Errorf("%w: empty body", ErrInvalidJSON)
		}

		decoder := json.NewDecoder(bytes.NewReader(body))
		decoder.DisallowUnknownFields()

		if err := decoder.Decode(v); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}

		// Ensure entire body was consumed
		var extra json.RawMessage
		if err := decoder.Decode(&extra); err != io.EOF {
			return fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidJSON)
		}

		sanitizeJSONStruct(v)
		return nil
	}
}

// sanitizeStringValue trims surrounding whitespace and drops control characters.
func sanitizeStringValue(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// sanitizeJSONStruct recursively sanitizes all settable string fields.
func sanitizeJSONStruct(v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return
	}
	sanitizeReflectValue(rv.Elem())
}

func sanitizeReflectValue(rv reflect.Value) {
	switch rv.Kind() {
	case reflect.String:
		if rv.CanSet() {
			rv.SetString(sanitizeStringValue(rv.String()))
		}

	case reflect.Struct:
		for i := range rv.NumField() {
			if rv.Type().Field(i).Tag.Get("sanitize") == "-" {
				continue
			}
			if field := rv.Field(i); field.CanSet() {
				sanitizeReflectValue(field)
			}
		}

	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			sanitizeReflectValue(rv.Index(i))
		}

	case reflect.Ptr:
		if !rv.IsNil() {
			sanitizeReflectValue(rv.Elem())
		}
	}
}
