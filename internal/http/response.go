package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// Error codes carried in the envelope.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, envelope{Error: &errorBody{Code: code, Message: message}})
}

// classify maps a service error onto a status and envelope code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidUser):
		return http.StatusUnauthorized, CodeUnauthorized
	case core.IsValidation(err):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden, CodeForbidden
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// writeError logs and renders err. Internal errors never leak their message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	logger := applog.FromContext(r.Context())
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", applog.FieldError, err)
		msg = "internal server error"
	} else {
		logger.DebugContext(r.Context(), "Request rejected", applog.FieldStatusCode, status, applog.FieldError, err)
	}
	writeFailure(w, status, code, msg)
}

func badRequest(w http.ResponseWriter, message string) {
	writeFailure(w, http.StatusBadRequest, CodeBadRequest, message)
}
