package service

import (
	"context"
	"errors"

	"tally/internal/auth/models"
	userstore "tally/internal/auth/store/user"
	"tally/internal/policy"
	id "tally/pkg/domain"
	dErrors "tally/pkg/domain-errors"
	audit "tally/pkg/platform/audit"
	"tally/pkg/requestcontext"
)

// RedeemResult carries the updated account and the reward that was claimed.
type RedeemResult struct {
	User   *models.User
	Reward *models.Reward
}

// RedeemReward claims the caller's pending reward and starts the next accrual
// cycle. Purchases beyond the limit carry into the new cycle.
func (s *Service) RedeemReward(ctx context.Context, userID id.UserID, role policy.Role) (*RedeemResult, error) {
	if !policy.Can(role, policy.ActionRedeemReward) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role may not redeem rewards")
	}

	ctx, span := startSpan(ctx, "accrual.RedeemReward", userID.String())
	defer span.End()

	now := requestcontext.Now(ctx)
	var rewardID id.RewardID

	user, err := s.users.Execute(ctx, userID,
		func(u *models.User) error { return u.CanRedeem() },
		func(u *models.User) {
			reward := u.ApplyRedemption(now)
			rewardID = reward.ID
		},
	)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to redeem reward")
	}

	var claimed *models.Reward
	for i := range user.Rewards {
		if user.Rewards[i].ID == rewardID {
			claimed = &user.Rewards[i]
			break
		}
	}

	if s.metrics != nil {
		s.metrics.RewardsRedeemed.Inc()
	}
	s.invalidateUsersCache(ctx)

	s.logAudit(ctx, audit.Event{
		Category:  audit.CategoryOperations,
		Action:    string(audit.EventRewardRedeemed),
		UserID:    userID,
		Reason:    rewardID.String(),
		RequestID: requestcontext.RequestID(ctx),
		Timestamp: now,
	})
	s.logger.InfoContext(ctx, "reward redeemed",
		"user_id", userID.String(),
		"reward_id", rewardID.String(),
		"carried_purchases", user.Purchases,
	)

	return &RedeemResult{User: user, Reward: claimed}, nil
}
