// Package httptransport assembles the HTTP surface: global middleware, the
// per-route access policy and the operational endpoints.
package httptransport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"catalog/internal/platform/metrics"
	dErrors "catalog/pkg/domain-errors"
	"catalog/pkg/platform/httputil"
	"catalog/pkg/platform/middleware/auditlog"
	authmw "catalog/pkg/platform/middleware/auth"
	"catalog/pkg/platform/middleware/cors"
	request "catalog/pkg/platform/middleware/request"
	"catalog/pkg/platform/middleware/requesttime"
)

// RouteProvider is implemented by every feature handler.
type RouteProvider interface {
	Routes() []httputil.Route
}

// HealthCheck probes one dependency for /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the shared collaborators the router wires into middleware.
type Deps struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Verifier authmw.CredentialVerifier
	Resolver authmw.IdentityResolver
	Recorder auditlog.Recorder
	Health   []HealthCheck
	CORS     cors.Config
}

// NewRouter mounts every provider's routes at the root and again under /api.
// It panics if a route has no entry in Policies.
func NewRouter(deps Deps, providers ...RouteProvider) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(deps.Logger))
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(deps.Logger))
	r.Use(request.Latency(deps.Metrics))
	r.Use(cors.Middleware(deps.CORS))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteStatus(w, dErrors.CodeNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed"})
	})

	var routes []httputil.Route
	for _, p := range providers {
		routes = append(routes, p.Routes()...)
	}

	mount := func(router chi.Router) {
		for _, rt := range routes {
			policy, ok := Policies[rt.Key()]
			if !ok {
				panic(fmt.Sprintf("no access policy for route %q", rt.Key()))
			}
			router.With(guard(deps, policy)...).Method(rt.Method, rt.Pattern, rt.Handler)
		}
	}
	mount(r)
	r.Route("/api", mount)

	r.Get("/healthz", healthHandler(deps.Health))
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}
	return r
}

// guard builds the per-route chain: authenticate, authorize, then record the
// attempt. Denied requests never reach the attempt recorder.
func guard(deps Deps, policy Policy) []func(http.Handler) http.Handler {
	if policy.Public {
		return nil
	}
	chain := []func(http.Handler) http.Handler{
		authmw.RequireAuth(deps.Verifier, deps.Resolver, deps.Logger),
		authmw.RequireRole(deps.Logger, policy.Roles...),
	}
	if policy.AttemptAction != "" {
		chain = append(chain, auditlog.Attempt(deps.Recorder, deps.Logger, policy.AttemptAction, policy.AttemptEntity))
	}
	return chain
}

func healthHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		for _, c := range checks {
			if err := c.Check(r.Context()); err != nil {
				status[c.Name] = "unavailable"
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[c.Name] = "ok"
		}
		httputil.WriteJSON(w, code, status)
	}
}
