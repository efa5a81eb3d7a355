package handler

import (
	"context"
	"log/slog"
	"net/http"

	"catalog/internal/auth/models"
	dErrors "catalog/pkg/domain-errors"
	"catalog/pkg/platform/httputil"
	request "catalog/pkg/platform/middleware/request"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the interface for auth operations.
type Service interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.UserView, error)
}

// Handler serves the public /auth endpoints.
type Handler struct {
	auth   Service
	logger *slog.Logger
}

func New(auth Service, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, logger: logger}
}

// Routes lists the endpoints; the router attaches policy.
func (h *Handler) Routes() []httputil.Route {
	return []httputil.Route{
		{Method: http.MethodPost, Pattern: "/auth/login", Handler: h.handleLogin},
		{Method: http.MethodPost, Pattern: "/auth/register", Handler: h.handleRegister},
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err, "invalid login request")
		return
	}

	result, err := h.auth.Login(ctx, req)
	if err != nil {
		h.writeError(ctx, w, err, "login failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err, "invalid register request")
		return
	}

	user, err := h.auth.Register(ctx, req)
	if err != nil {
		h.writeError(ctx, w, err, "registration failed")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.RegisterResult{
		Message: "User registered successfully",
		User:    *user,
	})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
	} else {
		h.logger.WarnContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
	}
	httputil.WriteError(w, err)
}
