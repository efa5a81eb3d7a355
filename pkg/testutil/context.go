package testutil

import (
	"context"
	"net/http"

	"catalog/pkg/domain"
	"catalog/pkg/requestcontext"
)

// WithBearer sets the Authorization header the auth middleware reads.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// WithIdentity stores identity in the request context, as the auth middleware
// would after a successful authentication.
func WithIdentity(req *http.Request, identity *domain.Identity) *http.Request {
	return req.WithContext(requestcontext.WithIdentity(req.Context(), identity))
}

// IdentityContext is WithIdentity for service-level tests.
func IdentityContext(id int64, username string, role domain.RoleName) context.Context {
	return requestcontext.WithIdentity(context.Background(), &domain.Identity{ID: id, Username: username, Role: role})
}
