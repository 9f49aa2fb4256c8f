// Package handler exposes the auth module over HTTP: registration, login,
// logout, the authenticated profile, the action table, and user
// administration.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tally/internal/auth/models"
	authservice "tally/internal/auth/service"
	"tally/internal/policy"
	id "tally/pkg/domain"
	dErrors "tally/pkg/domain-errors"
	"tally/pkg/platform/httputil"
	"tally/pkg/requestcontext"
)

// Service is the auth surface the handler needs.
type Service interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password, userAgent string) (*authservice.LoginResult, error)
	Logout(ctx context.Context, sessionID id.SessionID) error
	Profile(ctx context.Context, userID id.UserID) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, bool, error)
	UpdateUserRole(ctx context.Context, actorID id.UserID, actorRole policy.Role, targetID id.UserID, newRole policy.Role) (*models.User, error)
}

type Handler struct {
	auth   Service
	logger *slog.Logger
}

func New(auth Service, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, logger: logger}
}

// RegisterPublic mounts the unauthenticated routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

// RegisterProtected mounts routes behind the auth middleware.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/auth/logout", h.handleLogout)
	r.Get("/me", h.handleProfile)
	r.Get("/me/actions", h.handleActions)
	r.Get("/admin/users", h.handleListUsers)
	r.Put("/admin/users/{id}/role", h.handleUpdateRole)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[registerRequest](w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, userResponse(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int             `json:"expires_in"`
	User        profileBody     `json:"user"`
	Actions     []policy.Action `json:"actions"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[loginRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password, r.UserAgent())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   result.ExpiresIn,
		User:        userResponse(result.User),
		Actions:     policy.PermittedActions(result.User.Role),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.auth.Logout(ctx, requestcontext.SessionID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.auth.Profile(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, userResponse(user))
}

// handleActions returns the action table filtered to the caller's role. The
// dashboard renders this list directly instead of hardcoding capabilities
// per role.
func (h *Handler) handleActions(w http.ResponseWriter, r *http.Request) {
	role := policy.Role(requestcontext.Role(r.Context()))
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"role":    role,
		"actions": policy.PermittedActions(role),
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role := policy.Role(requestcontext.Role(ctx))
	if !policy.Can(role, policy.ActionManageUsers) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "role may not list users"))
		return
	}

	users, stale, err := h.auth.ListUsers(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body := make([]profileBody, 0, len(users))
	for _, user := range users {
		body = append(body, userResponse(user))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"users": body,
		"stale": stale,
	})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	targetID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[updateRoleRequest](w, r, h.logger)
	if !ok {
		return
	}
	newRole, err := policy.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.auth.UpdateUserRole(ctx,
		requestcontext.UserID(ctx),
		policy.Role(requestcontext.Role(ctx)),
		targetID,
		newRole,
	)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, userResponse(user))
}
