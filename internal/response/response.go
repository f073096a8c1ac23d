// Package response provides shared JSON response helpers for HTTP handlers.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Roger-dornelles/pizzeria-project/internal/apperror"
)

// Envelope is the standard API response envelope.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Message is the data payload of endpoints that only report an outcome.
type Message struct {
	Message string `json:"message" example:"Produto excluido com sucesso."`
}

// JSON writes a JSON-encoded payload with the given HTTP status code.
func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a 200 response with data.
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response with data.
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// Error writes an error response with the given status and message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Error: message})
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// Unauthorized writes a 401 response.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

// TooManyRequests writes a 429 response.
func TooManyRequests(w http.ResponseWriter, message string) {
	Error(w, http.StatusTooManyRequests, message)
}

// InternalError writes a 500 response with a generic message.
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "internal server error")
}

// Err writes the response matching err's apperror kind. The message includes
// the wrapped cause, if any. Unclassified errors are logged and reported as a generic 500.
func Err(w http.ResponseWriter, err error) {
	e, ok := apperror.As(err)
	if !ok {
		slog.Error("unhandled error", "error", err)
		InternalError(w)
		return
	}
	Error(w, StatusFor(e.Kind), e.Error())
}

// StatusFor maps an apperror kind to its HTTP status code.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.InvalidInput:
		return http.StatusBadRequest
	case apperror.Unauthorized:
		return http.StatusUnauthorized
	case apperror.NotFound:
		return http.StatusNotFound
	case apperror.Conflict:
		return http.StatusConflict
	case apperror.DataError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
