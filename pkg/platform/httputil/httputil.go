package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"courtbridge/pkg/platform/sentinel"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps sentinel errors onto HTTP statuses. Unexpected errors are
// reported as a plain 500 without leaking internals to the caller.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		writeErrorBody(w, http.StatusNotFound, "not_found", "")
	case errors.Is(err, sentinel.ErrUnavailable):
		writeErrorBody(w, http.StatusServiceUnavailable, "upstream_unavailable", "")
	case errors.Is(err, sentinel.ErrValidation):
		writeErrorBody(w, http.StatusBadGateway, "bad_gateway", err.Error())
	case errors.Is(err, sentinel.ErrBadGateway):
		writeErrorBody(w, http.StatusBadGateway, "bad_gateway", "")
	default:
		writeErrorBody(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func writeErrorBody(w http.ResponseWriter, status int, code, description string) {
	body := map[string]string{"error": code}
	if description != "" {
		body["error_description"] = description
	}
	WriteJSON(w, status, body)
}
