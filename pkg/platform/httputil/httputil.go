// Package httputil centralizes JSON encoding, error translation, and request
// decoding for HTTP handlers so transport concerns stay out of services.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "fecgate/pkg/domain-errors"
)

// Validatable is implemented by request DTOs that validate and parse
// themselves after decoding.
type Validatable interface {
	Validate() error
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into a JSON error envelope.
// Internal and unavailable errors omit the description so backend detail is
// never leaked; 4xx errors include it because the caller needs it to fix
// the request.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	body := map[string]string{"error": string(code)}
	if status < http.StatusInternalServerError {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body["error_description"] = de.Message
		}
	}
	WriteJSON(w, status, body)
}

// DecodeAndPrepare decodes the request body into T and runs its validation.
// On failure it writes the error response and returns ok=false; handlers
// should simply return.
func DecodeAndPrepare[T any, PT interface {
	Validatable
	*T
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (PT, bool) {
	req := PT(new(T))
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "request decode failed",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	if err := req.Validate(); err != nil {
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
