// Package service holds login, registration and identity resolution.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"catalog/internal/auth/models"
	"catalog/internal/platform/metrics"
	"catalog/pkg/domain"
	dErrors "catalog/pkg/domain-errors"
	audit "catalog/pkg/platform/audit"
	"catalog/pkg/platform/sentinel"
	"catalog/pkg/requestcontext"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type RoleStore interface {
	EnsureAll(ctx context.Context, names []domain.RoleName) error
	FindByID(ctx context.Context, id int64) (*models.Role, error)
	FindByName(ctx context.Context, name domain.RoleName) (*models.Role, error)
}

type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

type TokenIssuer interface {
	Issue(subjectID int64, role domain.RoleName) (string, time.Time, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) int64
}

// Service authenticates users and resolves token subjects to identities.
type Service struct {
	users     UserStore
	roles     RoleStore
	directory *Directory
	hasher    Hasher
	tokens    TokenIssuer
	auditor   AuditRecorder
	logger    *slog.Logger
	metrics   *metrics.Metrics
	// dummyHash keeps the unknown-user path as slow as a password mismatch.
	dummyHash string
}

// Option configures the Service.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(users UserStore, roles RoleStore, hasher Hasher, tokens TokenIssuer, auditor AuditRecorder, logger *slog.Logger, opts ...Option) (*Service, error) {
	s := &Service{
		users:     users,
		roles:     roles,
		directory: NewDirectory(users, roles),
		hasher:    hasher,
		tokens:    tokens,
		auditor:   auditor,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	dummy, err := hasher.Hash("catalog-dummy-password")
	if err != nil {
		return nil, err
	}
	s.dummyHash = dummy
	return s, nil
}

// EnsureRoles seeds the fixed role rows. Safe to call on every boot.
func (s *Service) EnsureRoles(ctx context.Context) error {
	if err := s.roles.EnsureAll(ctx, domain.AllRoles()); err != nil {
		return fmt.Errorf("ensure roles: %w", err)
	}
	return nil
}

// Login verifies username and password and issues a bearer token.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	var violations []dErrors.Violation
	if strings.TrimSpace(req.Username) == "" {
		violations = append(violations, dErrors.Violation{Field: "username", Message: "username is required"})
	}
	if req.Password == "" {
		violations = append(violations, dErrors.Violation{Field: "password", Message: "password is required"})
	}
	if len(violations) > 0 {
		return nil, dErrors.Validation(violations)
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
		}
		_, _ = s.hasher.Compare(s.dummyHash, req.Password)
		s.loginFailed(ctx, req.Username, "unknown user")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := s.hasher.Compare(user.PasswordHash, req.Password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}
	if !ok {
		s.loginFailed(ctx, req.Username, "password mismatch")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	role, err := s.roles.FindByID(ctx, user.RoleID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load role")
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, role.Name)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.metrics.IncrementLogin(true)
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    user.ID,
		Action:     audit.ActionUserLoggedIn,
		EntityType: audit.EntityUser,
	})

	return &models.LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      models.UserView{ID: user.ID, Username: user.Username, Role: role.Name},
	}, nil
}

func (s *Service) loginFailed(ctx context.Context, username, reason string) {
	s.metrics.IncrementLogin(false)
	s.logger.WarnContext(ctx, "login failed",
		"username", username,
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
}

// Register creates a user with a hashed password and the named role.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.UserView, error) {
	var violations []dErrors.Violation
	if strings.TrimSpace(req.Username) == "" {
		violations = append(violations, dErrors.Violation{Field: "username", Message: "username is required"})
	}
	if req.Password == "" {
		violations = append(violations, dErrors.Violation{Field: "password", Message: "password is required"})
	}
	if strings.TrimSpace(req.RoleName) == "" {
		violations = append(violations, dErrors.Violation{Field: "roleName", Message: "roleName is required"})
	}
	if len(violations) > 0 {
		return nil, dErrors.Validation(violations)
	}

	if _, err := s.users.FindByUsername(ctx, req.Username); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "username already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	roleName, err := domain.ParseRole(req.RoleName)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidRole, "invalid role")
	}
	role, err := s.roles.FindByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidRole, "invalid role")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load role")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := requestcontext.Now(ctx)
	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		RoleID:       role.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "username already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID,
		"role", role.Name,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    user.ID,
		Action:     audit.ActionUserRegistered,
		EntityType: audit.EntityUser,
		EntityID:   audit.Int64(user.ID),
		Details:    map[string]any{"username": user.Username, "role": role.Name},
	})

	return &models.UserView{ID: user.ID, Username: user.Username, Role: role.Name}, nil
}

// Resolve maps a token subject to the live identity. A missing user surfaces
// as sentinel.ErrNotFound.
func (s *Service) Resolve(ctx context.Context, subjectID int64) (*domain.Identity, error) {
	return s.directory.Resolve(ctx, subjectID)
}

// Directory resolves user ids to identities. It depends only on the stores,
// so the audit store can use it before the Service exists.
type Directory struct {
	users UserStore
	roles RoleStore
}

func NewDirectory(users UserStore, roles RoleStore) *Directory {
	return &Directory{users: users, roles: roles}
}

// Resolve looks up the user, then its role by role id.
func (d *Directory) Resolve(ctx context.Context, subjectID int64) (*domain.Identity, error) {
	user, err := d.users.FindByID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("resolve user %d: %w", subjectID, err)
	}
	role, err := d.roles.FindByID(ctx, user.RoleID)
	if err != nil {
		// A dangling role id is corruption, not an unknown subject.
		return nil, fmt.Errorf("resolve role %d for user %d: %v", user.RoleID, user.ID, err)
	}
	return &domain.Identity{ID: user.ID, Username: user.Username, Role: role.Name}, nil
}

// LookupActor returns the audit view of a user.
func (d *Directory) LookupActor(ctx context.Context, id int64) (*audit.Actor, error) {
	identity, err := d.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return &audit.Actor{ID: identity.ID, Username: identity.Username, Role: identity.Role}, nil
}
