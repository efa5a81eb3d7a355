// Package cors answers browser cross-origin checks for the JSON API.
package cors

import (
	"net/http"
	"strconv"
	"strings"

	dErrors "catalog/pkg/domain-errors"
	"catalog/pkg/platform/httputil"
)

// Wildcard in AllowedOrigins allows every origin.
const Wildcard = "*"

var (
	defaultMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	defaultHeaders = []string{"Authorization", "Content-Type", "X-Request-ID"}
)

// Config describes which origins may call the API.
type Config struct {
	// AllowedOrigins lists exact origins, or Wildcard. Empty disables CORS handling.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	// MaxAge is how long, in seconds, a browser may cache a preflight answer.
	MaxAge int
}

// Middleware sets the Access-Control-* headers for allowed origins and
// answers preflight requests with 204 before routing. Requests from an origin
// outside the allow-list are rejected with 403.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	origins := make(map[string]bool, len(cfg.AllowedOrigins))
	anyOrigin := false
	for _, o := range cfg.AllowedOrigins {
		o = strings.TrimSpace(o)
		switch o {
		case "":
		case Wildcard:
			anyOrigin = true
		default:
			origins[o] = true
		}
	}
	methods := strings.Join(orDefault(cfg.AllowedMethods, defaultMethods), ", ")
	headers := strings.Join(orDefault(cfg.AllowedHeaders, defaultHeaders), ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || (!anyOrigin && len(origins) == 0) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			switch {
			case anyOrigin:
				h.Set("Access-Control-Allow-Origin", Wildcard)
			case origins[origin]:
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			default:
				httputil.WriteStatus(w, dErrors.CodeForbidden)
				return
			}
			if exposed != "" {
				h.Set("Access-Control-Expose-Headers", exposed)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				if cfg.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}
