// Package api holds the JSON request and response helpers shared by the
// HTTP function entry points.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Lllllllleong/admissionsflow/internal/services"
)

// maxBodyBytes bounds request bodies; every payload is a small form.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body written for failed requests.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// DecodeJSON reads a POST body into dst. On failure it writes the error
// response itself and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		WriteJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Status: "error", Message: "method not allowed"})
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		msg := "could not parse JSON"
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			msg = "request body too large"
		} else if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{Status: "error", Message: msg})
		return false
	}
	return true
}

// WriteJSON encodes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// WriteError maps a service error to its status code and public message.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, services.HTTPStatus(err), ErrorResponse{Status: "error", Message: services.PublicMessage(err)})
}

// WriteInitError reports a failed function initialization.
func WriteInitError(w http.ResponseWriter, err error) {
	slog.Error("Critical: function initialization failed", "error", err)
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Status: "error", Message: "failed to initialize service"})
}
