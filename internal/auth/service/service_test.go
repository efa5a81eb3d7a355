package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"catalog/internal/auth/hasher"
	"catalog/internal/auth/models"
	"catalog/internal/auth/store/role"
	"catalog/internal/auth/store/user"
	jwttoken "catalog/internal/jwt_token"
	"catalog/pkg/domain"
	dErrors "catalog/pkg/domain-errors"
	audit "catalog/pkg/platform/audit"
	"catalog/pkg/platform/sentinel"
)

type captureAuditor struct {
	entries []audit.Entry
}

func (c *captureAuditor) Record(_ context.Context, e audit.Entry) int64 {
	c.entries = append(c.entries, e)
	return int64(len(c.entries))
}

type failingUserStore struct {
	*user.InMemoryUserStore
}

func (failingUserStore) FindByUsername(context.Context, string) (*models.User, error) {
	return nil, errors.New("connection reset")
}

type ServiceSuite struct {
	suite.Suite
	users   *user.InMemoryUserStore
	roles   *role.InMemoryRoleStore
	tokens  *jwttoken.JWTService
	auditor *captureAuditor
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.users = user.New()
	s.roles = role.New()
	s.tokens = jwttoken.NewJWTService("secret", "catalog", time.Hour)
	s.auditor = &captureAuditor{}
	svc, err := New(s.users, s.roles, hasher.New(bcrypt.MinCost), s.tokens, s.auditor,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	s.service = svc
	s.Require().NoError(s.service.EnsureRoles(context.Background()))
}

func (s *ServiceSuite) register(username, password, roleName string) *models.UserView {
	view, err := s.service.Register(context.Background(), models.RegisterRequest{
		Username: username, Password: password, RoleName: roleName,
	})
	s.Require().NoError(err)
	return view
}

func (s *ServiceSuite) TestRegister() {
	s.Run("creates user and records user_registered", func() {
		view := s.register("alice", "pw", "operator")
		s.Equal("alice", view.Username)
		s.Equal(domain.RoleOperator, view.Role)

		stored, err := s.users.FindByUsername(context.Background(), "alice")
		s.Require().NoError(err)
		s.NotEqual("pw", stored.PasswordHash)

		s.Require().Len(s.auditor.entries, 1)
		e := s.auditor.entries[0]
		s.Equal(audit.ActionUserRegistered, e.Action)
		s.Equal(audit.EntityUser, e.EntityType)
		s.Equal(view.ID, e.ActorID)
		s.Require().NotNil(e.EntityID)
		s.Equal(view.ID, *e.EntityID)
	})

	s.Run("duplicate username is a conflict", func() {
		_, err := s.service.Register(context.Background(), models.RegisterRequest{
			Username: "alice", Password: "other", RoleName: "viewer",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("duplicate is reported before an invalid role", func() {
		_, err := s.service.Register(context.Background(), models.RegisterRequest{
			Username: "alice", Password: "other", RoleName: "superuser",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown role is invalid_role", func() {
		_, err := s.service.Register(context.Background(), models.RegisterRequest{
			Username: "bob", Password: "pw", RoleName: "superuser",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRole))
		_, err = s.users.FindByUsername(context.Background(), "bob")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("missing fields are all reported", func() {
		_, err := s.service.Register(context.Background(), models.RegisterRequest{})
		var de *dErrors.Error
		s.Require().ErrorAs(err, &de)
		s.Equal(dErrors.CodeValidation, de.Code)
		s.Len(de.Violations, 3)
	})
}

func (s *ServiceSuite) TestLogin() {
	registered := s.register("alice", "pw", "operator")
	s.auditor.entries = nil

	s.Run("valid credentials issue a verifiable token", func() {
		result, err := s.service.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "pw"})
		s.Require().NoError(err)
		s.Equal(registered.ID, result.User.ID)
		s.Equal(domain.RoleOperator, result.User.Role)

		claims, err := s.tokens.Verify(result.Token)
		s.Require().NoError(err)
		id, err := claims.SubjectID()
		s.Require().NoError(err)
		s.Equal(registered.ID, id)
		s.Equal(domain.RoleOperator, claims.Role)

		s.Require().Len(s.auditor.entries, 1)
		e := s.auditor.entries[0]
		s.Equal(audit.ActionUserLoggedIn, e.Action)
		s.Equal(audit.EntityUser, e.EntityType)
		s.Equal(registered.ID, e.ActorID)
		s.Nil(e.EntityID)
	})

	s.Run("wrong password is unauthorized and not audited", func() {
		s.auditor.entries = nil
		_, err := s.service.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "nope"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Empty(s.auditor.entries)
	})

	s.Run("unknown user is unauthorized", func() {
		_, err := s.service.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "pw"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("missing fields are a validation error", func() {
		_, err := s.service.Login(context.Background(), models.LoginRequest{Username: "alice"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("store failure is internal", func() {
		svc, err := New(failingUserStore{s.users}, s.roles, hasher.New(bcrypt.MinCost), s.tokens, s.auditor,
			slog.New(slog.NewTextHandler(io.Discard, nil)))
		s.Require().NoError(err)
		_, err = svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "pw"})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestResolve() {
	registered := s.register("carol", "pw", "viewer")

	s.Run("returns identity with role", func() {
		identity, err := s.service.Resolve(context.Background(), registered.ID)
		s.Require().NoError(err)
		s.Equal(&domain.Identity{ID: registered.ID, Username: "carol", Role: domain.RoleViewer}, identity)
	})

	s.Run("unknown subject is not found", func() {
		_, err := s.service.Resolve(context.Background(), 404)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("directory exposes actors for the ledger", func() {
		actor, err := NewDirectory(s.users, s.roles).LookupActor(context.Background(), registered.ID)
		s.Require().NoError(err)
		s.Equal("carol", actor.Username)
		s.Equal(domain.RoleViewer, actor.Role)
	})
}
