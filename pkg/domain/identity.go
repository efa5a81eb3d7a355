package domain

import (
	"strconv"
	"strings"

	dErrors "catalog/pkg/domain-errors"
)

// Identity is the resolved caller of a request: a live user record and the
// name of its role.
type Identity struct {
	ID       int64
	Username string
	Role     RoleName
}

// ParseID parses a positive numeric identifier from a path or query value.
func ParseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeBadRequest, "id is required")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "id must be a positive integer")
	}
	return v, nil
}
