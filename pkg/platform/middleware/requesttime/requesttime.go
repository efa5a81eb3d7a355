// Package requesttime pins a single "now" per request, so createdAt and
// updatedAt stamped by one request agree.
package requesttime

import (
	"net/http"
	"time"

	"catalog/pkg/requestcontext"
)

// Middleware stores the request start time (UTC, microsecond precision) in
// the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC().Truncate(time.Microsecond)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithTime(r.Context(), now)))
	})
}
