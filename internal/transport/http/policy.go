package httptransport

import (
	"net/http"

	"catalog/pkg/domain"
	audit "catalog/pkg/platform/audit"
)

// Policy is the access rule for one route. Public routes skip authentication
// entirely; every other route requires one of Roles. Routes with an Attempt
// action also get an attempt record before the handler runs.
type Policy struct {
	Public        bool
	Roles         domain.RoleSet
	AttemptAction string
	AttemptEntity string
}

var (
	anyRole      = domain.RoleSet{domain.RoleAdmin, domain.RoleOperator, domain.RoleViewer}
	writers      = domain.RoleSet{domain.RoleAdmin, domain.RoleOperator}
	adminsOnly   = domain.RoleSet{domain.RoleAdmin}
	publicPolicy = Policy{Public: true}
)

// Policies is keyed by httputil.Route.Key. A route without an entry is a
// programming error and NewRouter panics on it.
var Policies = map[string]Policy{
	http.MethodPost + " /auth/login":    publicPolicy,
	http.MethodPost + " /auth/register": publicPolicy,

	http.MethodGet + " /products":      {Roles: anyRole},
	http.MethodGet + " /products/{id}": {Roles: anyRole},
	http.MethodPost + " /products": {
		Roles:         writers,
		AttemptAction: audit.ActionCreateProductAttempt,
		AttemptEntity: audit.EntityProduct,
	},
	http.MethodPut + " /products/{id}": {
		Roles:         writers,
		AttemptAction: audit.ActionUpdateProductAttempt,
		AttemptEntity: audit.EntityProduct,
	},
	http.MethodDelete + " /products/{id}": {
		Roles:         adminsOnly,
		AttemptAction: audit.ActionDeleteProductAttempt,
		AttemptEntity: audit.EntityProduct,
	},

	http.MethodGet + " /audit": {Roles: adminsOnly},
}
