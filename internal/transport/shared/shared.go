// Package shared centralizes JSON response writing for all handlers so error
// envelopes stay consistent across the service.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "donorhub/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into its HTTP response. Only the code
// is exposed; messages and causes stay in the logs, so a caller cannot tell
// which external system failed.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.FromError(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{"error": string(code)})
}
