// Package handler exposes accrual over HTTP: staff scan a customer's code to
// record a purchase, customers redeem their pending reward.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tally/internal/accrual/service"
	"tally/internal/policy"
	id "tally/pkg/domain"
	"tally/pkg/platform/httputil"
	"tally/pkg/requestcontext"
)

// Service is the accrual surface the handler needs.
type Service interface {
	AddPurchase(ctx context.Context, actorID id.UserID, actorRole policy.Role, targetID id.UserID) (*service.ScanResult, error)
	RedeemReward(ctx context.Context, userID id.UserID, role policy.Role) (*service.RedeemResult, error)
}

type Handler struct {
	accrual Service
	logger  *slog.Logger
}

func New(accrual Service, logger *slog.Logger) *Handler {
	return &Handler{accrual: accrual, logger: logger}
}

// RegisterProtected mounts routes behind the auth middleware.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/users/{id}/scan", h.handleScan)
	r.Post("/me/rewards/redeem", h.handleRedeem)
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	targetID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.accrual.AddPurchase(ctx,
		requestcontext.UserID(ctx),
		policy.Role(requestcontext.Role(ctx)),
		targetID,
	)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	body := map[string]any{
		"purchases":       result.User.Purchases,
		"purchase_limit":  result.User.PurchaseLimit,
		"is_reward_ready": result.User.IsRewardReady(),
	}
	if result.IssuedReward != nil {
		body["issued_reward_id"] = result.IssuedReward.ID
	}
	httputil.WriteJSON(w, http.StatusOK, body)
}

func (h *Handler) handleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.accrual.RedeemReward(ctx,
		requestcontext.UserID(ctx),
		policy.Role(requestcontext.Role(ctx)),
	)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"reward_id":       result.Reward.ID,
		"claimed_at":      result.Reward.ClaimedAt,
		"purchases":       result.User.Purchases,
		"purchase_limit":  result.User.PurchaseLimit,
		"is_reward_ready": result.User.IsRewardReady(),
	})
}
