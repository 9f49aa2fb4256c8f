// Package handler exposes the settings authority over HTTP. Reads are open
// to any authenticated caller; writes go through the role policy.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tally/internal/policy"
	"tally/internal/settings/models"
	id "tally/pkg/domain"
	"tally/pkg/platform/httputil"
	"tally/pkg/requestcontext"
)

// Service is the settings surface the handler needs.
type Service interface {
	Get(ctx context.Context) (models.Settings, bool, error)
	Update(ctx context.Context, actorID id.UserID, actorRole policy.Role, purchaseLimit int, description string) (models.Settings, error)
}

type Handler struct {
	settings Service
	logger   *slog.Logger
}

func New(settings Service, logger *slog.Logger) *Handler {
	return &Handler{settings: settings, logger: logger}
}

// RegisterProtected mounts routes behind the auth middleware.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/settings", h.handleGet)
	r.Put("/admin/settings", h.handleUpdate)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	settings, stale, err := h.settings.Get(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"settings": settings,
		"stale":    stale,
	})
}

type updateRequest struct {
	PurchaseLimit int    `json:"purchase_limit"`
	Description   string `json:"description"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[updateRequest](w, r, h.logger)
	if !ok {
		return
	}

	settings, err := h.settings.Update(ctx,
		requestcontext.UserID(ctx),
		policy.Role(requestcontext.Role(ctx)),
		req.PurchaseLimit,
		req.Description,
	)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, settings)
}
