package handler

import (
	"time"

	"tally/internal/auth/models"
	"tally/internal/policy"
	id "tally/pkg/domain"
)

// profileBody is the wire shape of a loyalty account. Accrual state is
// flattened so the dashboard can render the punch card without computing
// anything client-side.
type profileBody struct {
	ID            id.UserID     `json:"id"`
	Email         string        `json:"email"`
	Name          string        `json:"name"`
	Role          policy.Role   `json:"role"`
	Purchases     int           `json:"purchases"`
	PurchaseLimit int           `json:"purchase_limit"`
	IsRewardReady bool          `json:"is_reward_ready"`
	CurrentReward *rewardBody   `json:"current_reward,omitempty"`
	TallyScans    []scanBody    `json:"tally_scans"`
	Rewards       []rewardBody  `json:"rewards"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type rewardBody struct {
	ID          id.RewardID `json:"id"`
	IssuedAt    time.Time   `json:"issued_at"`
	ClaimedAt   *time.Time  `json:"claimed_at,omitempty"`
	ScanHistory []scanBody  `json:"scan_history"`
}

type scanBody struct {
	ScannedBy id.UserID `json:"scanned_by"`
	At        time.Time `json:"at"`
}

func userResponse(u *models.User) profileBody {
	body := profileBody{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		Purchases:     u.Purchases,
		PurchaseLimit: u.PurchaseLimit,
		IsRewardReady: u.IsRewardReady(),
		TallyScans:    scanEvents(u.TallyScans),
		Rewards:       make([]rewardBody, 0, len(u.Rewards)),
	}
	body.CreatedAt = u.CreatedAt
	body.UpdatedAt = u.UpdatedAt
	for i := range u.Rewards {
		body.Rewards = append(body.Rewards, rewardResponse(&u.Rewards[i]))
	}
	if current := u.CurrentReward(); current != nil {
		reward := rewardResponse(current)
		body.CurrentReward = &reward
	}
	return body
}

func rewardResponse(r *models.Reward) rewardBody {
	return rewardBody{
		ID:          r.ID,
		IssuedAt:    r.IssuedAt,
		ClaimedAt:   r.ClaimedAt,
		ScanHistory: scanEvents(r.ScanHistory),
	}
}

func scanEvents(events []models.ScanEvent) []scanBody {
	body := make([]scanBody, 0, len(events))
	for _, e := range events {
		body = append(body, scanBody{ScannedBy: e.ScannedBy, At: e.At})
	}
	return body
}
