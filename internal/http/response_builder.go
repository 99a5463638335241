// Package http serves the ledger as a JSON API.
//
// This file holds the fluent response builder and the mapping from ledger
// errors to status codes.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"timecard/internal/core"
	"timecard/internal/log"
	"timecard/internal/storage"
)

// JSONResponseBuilder collects status, headers and body before writing.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value to encode. A nil body writes no content.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse writes {"error": message}.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

// errorStatus classifies ledger errors. Anything unrecognised is internal.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrSessionAlreadyOpen), errors.Is(err, storage.ErrConflict):
		return http.StatusConflict, log.ErrorTypeConflict
	case errors.Is(err, core.ErrActivityNotFound), errors.Is(err, core.ErrSessionNotFound), errors.Is(err, core.ErrTodoNotFound):
		return http.StatusNotFound, log.ErrorTypeNotFound
	case errors.Is(err, core.ErrEmptyName), errors.Is(err, core.ErrInvalidWage),
		errors.Is(err, core.ErrInvalidRange), errors.Is(err, core.ErrMissingStart),
		errors.Is(err, core.ErrActivityInactive), errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrInvalidDate), errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidClock), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, log.ErrorTypeValidation
	default:
		return http.StatusInternalServerError, log.ErrorTypeInternal
	}
}

// writeError logs and answers err. Internal errors do not leak their text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := errorStatus(err)
	logger := log.FromContext(r.Context())
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err, log.FieldErrorType, kind)
		InternalServerError().Write(w)
		return
	}
	logger.DebugContext(r.Context(), "Request rejected", log.FieldError, err, log.FieldErrorType, kind)
	switch status {
	case http.StatusBadRequest:
		BadRequestError(err.Error()).Write(w)
	case http.StatusNotFound:
		NotFoundError(err.Error()).Write(w)
	default:
		ErrorResponse(status, err.Error()).Write(w)
	}
}
