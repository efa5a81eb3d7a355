package models

import (
	"time"

	"catalog/pkg/domain"
)

// User is a registered account. Usernames are unique; users are never deleted.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	RoleID       int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role is one row of the fixed role table.
type Role struct {
	ID   int64
	Name domain.RoleName
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	RoleName string `json:"roleName"`
}

// UserView is the public shape of a user.
type UserView struct {
	ID       int64           `json:"id"`
	Username string          `json:"username"`
	Role     domain.RoleName `json:"role"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserView  `json:"user"`
}

type RegisterResult struct {
	Message string   `json:"message"`
	User    UserView `json:"user"`
}
