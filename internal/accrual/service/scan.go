package service

import (
	"context"
	"errors"
	"time"

	"tally/internal/auth/models"
	userstore "tally/internal/auth/store/user"
	"tally/internal/policy"
	id "tally/pkg/domain"
	dErrors "tally/pkg/domain-errors"
	audit "tally/pkg/platform/audit"
	"tally/pkg/requestcontext"
)

// maxScanAttempts bounds retries when a concurrent write wins the race.
const maxScanAttempts = 3

// ScanResult carries the updated account and the reward issued by this scan,
// if the scan completed a cycle.
type ScanResult struct {
	User         *models.User
	IssuedReward *models.Reward
}

// AddPurchase credits one purchase to the target account on behalf of the
// scanning staff member. When the running tally reaches the account's
// purchase limit a reward is issued atomically with the scan. Lost-write
// conflicts are retried a bounded number of times.
func (s *Service) AddPurchase(ctx context.Context, actorID id.UserID, actorRole policy.Role, targetID id.UserID) (*ScanResult, error) {
	if !policy.Can(actorRole, policy.ActionScanPurchase) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role may not scan purchases")
	}

	ctx, span := startSpan(ctx, "accrual.AddPurchase", targetID.String())
	defer span.End()

	start := time.Now()
	now := requestcontext.Now(ctx)

	var (
		user   *models.User
		issued *models.Reward
		err    error
	)
	for attempt := 1; attempt <= maxScanAttempts; attempt++ {
		rewardID := id.NewRewardID()
		user, err = s.users.Execute(ctx, targetID,
			func(*models.User) error { return nil },
			func(u *models.User) {
				issued = u.ApplyScan(actorID, rewardID, now)
			},
		)
		if err == nil {
			break
		}
		if errors.Is(err, userstore.ErrWriteLost) && attempt < maxScanAttempts {
			if s.metrics != nil {
				s.metrics.ConflictRetries.Inc()
			}
			issued = nil
			continue
		}
		if errors.Is(err, userstore.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		if errors.Is(err, userstore.ErrWriteLost) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "scan lost to concurrent writes")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record scan")
	}
	if issued != nil {
		// Point at the returned snapshot, not the store's live aggregate.
		issued = user.CurrentReward()
	}

	if s.metrics != nil {
		s.metrics.PurchasesRecorded.Inc()
		s.metrics.ObserveScan(start)
	}
	s.invalidateUsersCache(ctx)

	s.logAudit(ctx, audit.Event{
		Category:  audit.CategoryOperations,
		Action:    string(audit.EventPurchaseRecorded),
		UserID:    targetID,
		ActorID:   actorID.String(),
		RequestID: requestcontext.RequestID(ctx),
		Timestamp: now,
	})

	if issued != nil {
		if s.metrics != nil {
			s.metrics.RewardsIssued.Inc()
		}
		s.logAudit(ctx, audit.Event{
			Category:  audit.CategoryOperations,
			Action:    string(audit.EventRewardIssued),
			UserID:    targetID,
			ActorID:   actorID.String(),
			Reason:    issued.ID.String(),
			RequestID: requestcontext.RequestID(ctx),
			Timestamp: now,
		})
		s.logger.InfoContext(ctx, "reward issued",
			"user_id", targetID.String(),
			"reward_id", issued.ID.String(),
			"purchases", user.Purchases,
		)
	}

	return &ScanResult{User: user, IssuedReward: issued}, nil
}
