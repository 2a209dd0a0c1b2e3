// Package requesttime pins a single "now" per HTTP request. Evaluation,
// audit events, and verdict timestamps within one request all agree, which
// matters when a contribution lands exactly at a cap boundary.
package requesttime

import (
	"net/http"
	"time"

	"fecgate/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and
// stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
