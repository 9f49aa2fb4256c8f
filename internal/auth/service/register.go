package service

import (
	"context"
	"errors"
	"strings"

	"github.com/asaskevich/govalidator"
	"golang.org/x/crypto/bcrypt"

	"tally/internal/auth/models"
	userstore "tally/internal/auth/store/user"
	id "tally/pkg/domain"
	dErrors "tally/pkg/domain-errors"
	"tally/pkg/email"
	audit "tally/pkg/platform/audit"
	"tally/pkg/requestcontext"
)

// Register creates a new identity and loyalty account. New accounts start as
// customers with zero purchases and a purchase-limit snapshot taken from the
// current global settings.
func (s *Service) Register(ctx context.Context, name, emailAddr, password string) (*models.User, error) {
	emailAddr = strings.TrimSpace(emailAddr)
	if !govalidator.IsEmail(emailAddr) || !govalidator.StringLength(emailAddr, "3", "255") {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid email address")
	}
	if len(password) < 8 {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = email.DeriveNameFromEmail(emailAddr)
	}

	limit, err := s.settings.CurrentPurchaseLimit(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load default purchase limit")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := requestcontext.Now(ctx)
	user, err := models.NewUser(id.NewUserID(), emailAddr, name, string(hash), limit, now)
	if err != nil {
		return nil, err
	}

	if err := s.users.CreateIfEmailAvailable(ctx, user); err != nil {
		if errors.Is(err, userstore.ErrEmailTaken) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.invalidateUsersCache(ctx)
	if s.metrics != nil {
		s.metrics.Registrations.Inc()
	}

	s.logAudit(ctx, audit.Event{
		Category:  audit.CategoryCompliance,
		Action:    string(audit.EventUserRegistered),
		UserID:    user.ID,
		Email:     user.Email,
		RequestID: requestcontext.RequestID(ctx),
		Timestamp: now,
	})

	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID.String(),
		"purchase_limit", limit,
	)
	return user, nil
}
