package domain

import (
	"fmt"
	"strings"
)

// RoleName is a capability tier gating route access. The set is closed: the
// schema seed, the route policy table and the authorization gate all read it
// from here.
type RoleName string

const (
	RoleAdmin    RoleName = "admin"
	RoleOperator RoleName = "operator"
	RoleViewer   RoleName = "viewer"
)

// roleOrder fixes the seeding order, so in-memory role ids are stable.
var roleOrder = []RoleName{RoleAdmin, RoleOperator, RoleViewer}

// AllRoles returns every known role in seeding order.
func AllRoles() []RoleName {
	return append([]RoleName(nil), roleOrder...)
}

// ParseRole validates and returns a RoleName. Matching is exact after
// trimming surrounding whitespace.
func ParseRole(s string) (RoleName, error) {
	r := RoleName(strings.TrimSpace(s))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// IsValid reports whether r is one of the fixed roles.
func (r RoleName) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RoleViewer:
		return true
	default:
		return false
	}
}

func (r RoleName) String() string {
	return string(r)
}

// RoleSet is an allow-list of roles for a route.
type RoleSet []RoleName

// Contains reports whether r is in the set. An empty role never matches.
func (s RoleSet) Contains(r RoleName) bool {
	if r == "" {
		return false
	}
	for _, allowed := range s {
		if allowed == r {
			return true
		}
	}
	return false
}
