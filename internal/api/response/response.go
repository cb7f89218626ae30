// Package response writes the JSON envelopes used by every API endpoint.
// Successful responses wrap their payload in {"data": ...}; failures use
// {"error": {"code", "message", "details"}}.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// PaginationMeta describes the page window of a collection response.
type PaginationMeta struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
}

// ErrorBody is the error payload carried inside the error envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes data inside the standard envelope with status 200.
func JSON(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, map[string]any{"data": data})
}

// Created writes data inside the standard envelope with status 201.
func Created(w http.ResponseWriter, data any) {
	write(w, http.StatusCreated, map[string]any{"data": data})
}

// Accepted writes data inside the standard envelope with status 202.
// Used by endpoints that start asynchronous work.
func Accepted(w http.ResponseWriter, data any) {
	write(w, http.StatusAccepted, map[string]any{"data": data})
}

// Collection writes a list payload together with pagination metadata.
func Collection(w http.ResponseWriter, data any, meta PaginationMeta) {
	write(w, http.StatusOK, map[string]any{"data": data, "meta": meta})
}

// Error writes the error envelope with the given status and machine-readable
// code. Details may be nil and is omitted from the body when it is.
func Error(w http.ResponseWriter, status int, code, message string, details any) {
	write(w, status, map[string]any{"error": ErrorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

func write(w http.ResponseWriter, status int, body any) {
	// Marshal before touching the ResponseWriter so an encoding failure
	// cannot leave a half-written body behind a 2xx status line.
	buf, err := json.Marshal(body)
	if err != nil {
		slog.Error("encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"Failed to encode response"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf)
}
