// Package auth authenticates bearer credentials into an identity and gates
// routes on the identity's role.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"catalog/pkg/domain"
	dErrors "catalog/pkg/domain-errors"
	"catalog/pkg/platform/httputil"
	request "catalog/pkg/platform/middleware/request"
	"catalog/pkg/platform/sentinel"
	"catalog/pkg/requestcontext"
)

// Credential is what a verified bearer token asserts.
type Credential struct {
	SubjectID int64
	Role      domain.RoleName
}

// CredentialVerifier validates a raw bearer token.
type CredentialVerifier interface {
	Verify(token string) (*Credential, error)
}

// IdentityResolver maps a verified subject to its live identity. It returns
// sentinel.ErrNotFound when the subject no longer exists.
type IdentityResolver interface {
	Resolve(ctx context.Context, subjectID int64) (*domain.Identity, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth verifies the bearer credential and stores the resolved identity
// in the request context. A missing or invalid credential is 401; a valid
// credential whose subject is gone is 403.
func RequireAuth(verifier CredentialVerifier, resolver IdentityResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			token := BearerToken(r)
			if token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteStatus(w, dErrors.CodeUnauthorized)
				return
			}

			cred, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteStatus(w, dErrors.CodeUnauthorized)
				return
			}

			identity, err := resolver.Resolve(ctx, cred.SubjectID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					logger.WarnContext(ctx, "forbidden - subject no longer exists",
						"subject_id", cred.SubjectID,
						"request_id", requestID,
					)
					httputil.WriteStatus(w, dErrors.CodeForbidden)
					return
				}
				logger.ErrorContext(ctx, "failed to resolve identity",
					"subject_id", cred.SubjectID,
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteStatus(w, dErrors.CodeInternal)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithIdentity(ctx, identity)))
		})
	}
}

// Authorize reports whether identity's role is in allowed. A nil identity or
// an empty role is always denied.
func Authorize(identity *domain.Identity, allowed domain.RoleSet) bool {
	if identity == nil {
		return false
	}
	return allowed.Contains(identity.Role)
}

// RequireRole denies with 403 unless the identity in context holds one of
// allowed. It must run after RequireAuth.
func RequireRole(logger *slog.Logger, allowed ...domain.RoleName) func(http.Handler) http.Handler {
	set := domain.RoleSet(allowed)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity := requestcontext.Identity(ctx)
			if !Authorize(identity, set) {
				attrs := []any{"request_id", request.GetRequestID(ctx), "path", r.URL.Path}
				if identity != nil {
					attrs = append(attrs, "user_id", identity.ID, "role", identity.Role)
				}
				logger.WarnContext(ctx, "forbidden - role not allowed", attrs...)
				httputil.WriteStatus(w, dErrors.CodeForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
