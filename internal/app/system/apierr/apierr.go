// Package apierr writes JSON responses and JSON error bodies for the API.
//
// Error bodies have the shape
//
//	{ "error": "not_found", "message": "Cell not found." }
//
// Server errors are logged with the request method and path; the client
// only sees a generic message.
package apierr

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Body is the JSON error envelope.
type Body struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Write writes an error envelope.
func Write(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, Body{Error: code, Message: message})
}

func BadRequest(w http.ResponseWriter, message string) {
	Write(w, http.StatusBadRequest, "bad_request", message)
}

func Unauthorized(w http.ResponseWriter) {
	Write(w, http.StatusUnauthorized, "unauthorized", "Sign in required.")
}

func Forbidden(w http.ResponseWriter) {
	Write(w, http.StatusForbidden, "forbidden", "You don't have permission to do that.")
}

func NotFound(w http.ResponseWriter, message string) {
	Write(w, http.StatusNotFound, "not_found", message)
}

func Conflict(w http.ResponseWriter, code, message string) {
	Write(w, http.StatusConflict, code, message)
}

// Server logs err and writes a 500.
func Server(w http.ResponseWriter, r *http.Request, log *zap.Logger, what string, err error) {
	if log != nil {
		log.Error(what,
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
	}
	Write(w, http.StatusInternalServerError, "server_error", "A server error occurred.")
}

// Decode reads a JSON request body into v, rejecting unknown fields.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
