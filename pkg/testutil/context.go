package testutil

import (
	"net/http"
	"time"

	"fecgate/pkg/requestcontext"
)

// WithRequestID attaches a request ID to the request context, simulating the
// router middleware.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithSubmissionTime pins the request's notion of "now" so evaluations are
// reproducible.
func WithSubmissionTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
