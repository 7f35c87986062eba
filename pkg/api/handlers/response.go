package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response is the envelope every API endpoint answers with.
//
//   - Status indicates the overall result ("healthy", "unhealthy", "ok", "error")
//   - Timestamp provides response time for debugging and caching
//   - Data contains the response payload (optional)
//   - Error contains error details when Status indicates failure (optional)
type Response struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// writeJSON writes a response with the given HTTP status code.
//
// The body is written with Content-Type: application/json. If encoding
// fails, an error response is written instead.
func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		// Last resort; the status line is already on the wire.
		http.Error(w, `{"status":"error","error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// healthyResponse creates a successful health check response.
func healthyResponse(data interface{}) Response {
	return Response{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// unhealthyResponse creates a failed health check response.
func unhealthyResponse(errMsg string) Response {
	return Response{
		Status:    "unhealthy",
		Timestamp: time.Now().UTC(),
		Error:     errMsg,
	}
}

// okResponse creates a generic successful response.
func okResponse(data interface{}) Response {
	return Response{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// BadRequest writes a 400 response with the given error message.
func BadRequest(w http.ResponseWriter, errMsg string) {
	writeJSON(w, http.StatusBadRequest, Response{
		Status:    "error",
		Timestamp: time.Now().UTC(),
		Error:     errMsg,
	})
}

// NotFound writes a 404 response with the given error message.
func NotFound(w http.ResponseWriter, errMsg string) {
	writeJSON(w, http.StatusNotFound, Response{
		Status:    "error",
		Timestamp: time.Now().UTC(),
		Error:     errMsg,
	})
}

// InternalServerError writes a 500 response with the given error message.
func InternalServerError(w http.ResponseWriter, errMsg string) {
	writeJSON(w, http.StatusInternalServerError, Response{
		Status:    "error",
		Timestamp: time.Now().UTC(),
		Error:     errMsg,
	})
}
