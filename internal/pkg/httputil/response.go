package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ignite/attendance-checkin/internal/pkg/logger"
)

// ErrorResponse is the envelope for errors that are not scan results.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// JSON writes data as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("JSON encode error", "error", err)
	}
}

// Error writes an ErrorResponse.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// maxBodyBytes bounds request bodies; scan payloads are a few hundred bytes.
const maxBodyBytes = 1 << 20

// Decode reads exactly one JSON value from the request body into dst. On
// failure it writes a 400 and returns false.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	err := dec.Decode(dst)
	switch {
	case errors.Is(err, io.EOF):
		Error(w, http.StatusBadRequest, "request body is required")
		return false
	case err != nil:
		Error(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}

	if dec.More() {
		Error(w, http.StatusBadRequest, "invalid JSON: unexpected data after body")
		return false
	}
	return true
}
