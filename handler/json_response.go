package handler

import (
	"encoding/json"
	"errors"
	"maps"
	"net/http"
)

const genericErrorMessage = "An error occurred processing your request"

// JSONResponse is the standard JSON response structure
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

// jsonResponse implements Response for JSON rendering
type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures JSON response
type JSONOption func(*jsonResponse)

// WithJSONStatus sets custom HTTP status code
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// WithJSONMeta adds metadata to response
func WithJSONMeta(meta map[string]any) JSONOption {
	return func(r *jsonResponse) {
		r.body.Meta = meta
	}
}

// JSON creates a JSON response with options
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{
		status: http.StatusOK,
		body:   JSONResponse{},
	}

	// Handle different input types for flexible JSON response creation
	switch val := v.(type) {
	case JSONResponse:
		r.body = val
	case *ErrorDetail:
		r.body.Error = val
		r.status = http.StatusInternalServerError
	case error:
		r.body.Error = errorToDetail(val, &r.status)
	default:
		r.body.Data = v
	}

	// Apply options (can override defaults)
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// JSONError creates a JSON error response from an error with options
func JSONError(err any, opts ...JSONOption) Response {
	r := &jsonResponse{
		status: http.StatusInternalServerError,
		body:   JSONResponse{},
	}

	// Handle different error input types
	switch e := err.(type) {
	case *ErrorDetail:
		r.body.Error = e
	case error:
		r.body.Error = errorToDetail(e, &r.status)
	}

	// Apply options (can override status or add meta)
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// errorToDetail converts error to ErrorDetail and sets appropriate status.
// Only HTTPError and ValidationError messages reach the client; anything else is
// reported as a generic internal error.
func errorToDetail(err error, status *int) *ErrorDetail {
	var valErr ValidationError
	if errors.As(err, &valErr) {
		*status = http.StatusUnprocessableEntity

		detail := &ErrorDetail{
			Code:    "validation_error",
			Message: valErr.Error(),
		}

		if len(valErr) > 0 {
			detail.Details = make(map[string][]string)
			maps.Copy(detail.Details, valErr)
		}

		return detail
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		*status = httpErr.Code
		return &ErrorDetail{
			Code:    httpErr.Key,
			Message: http.StatusText(httpErr.Code),
		}
	}

	*status = http.StatusInternalServerError
	return &ErrorDetail{
		Code:    "internal_error",
		Message: genericErrorMessage,
	}
}
