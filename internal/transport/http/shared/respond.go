// Package shared holds the JSON response helpers every handler uses, so the
// error envelope and status mapping have one implementation.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "medledger/pkg/domain-errors"
)

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON body with the given status. Encoding failures are
// unrecoverable at this point; the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteError translates a domain error into the JSON error envelope. Errors
// that are not domain errors become an opaque 500 so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		WriteJSON(w, http.StatusInternalServerError, errorEnvelope{
			Error:   string(dErrors.CodeInternal),
			Message: "internal error",
		})
		return
	}
	WriteJSON(w, dErrors.ToHTTPStatus(domainErr.Code), errorEnvelope{
		Error:   string(domainErr.Code),
		Message: domainErr.Message,
	})
}
