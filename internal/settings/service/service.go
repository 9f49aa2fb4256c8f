// Package service implements the settings authority: one global
// configuration record, readable by everyone, mutated only by privileged
// roles.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tally/internal/platform/fetch"
	"tally/internal/policy"
	"tally/internal/settings/models"
	"tally/internal/settings/store"
	id "tally/pkg/domain"
	dErrors "tally/pkg/domain-errors"
	audit "tally/pkg/platform/audit"
	"tally/pkg/requestcontext"
)

// AuditPublisher emits audit events for settings changes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store  store.Store
	cache  *fetch.Resource[models.Settings]
	logger *slog.Logger
	audits AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audits = publisher }
}

// WithCache serves reads through the given cached resource. Without it every
// read goes straight to the store.
func WithCache(cache *fetch.Resource[models.Settings]) Option {
	return func(s *Service) { s.cache = cache }
}

func New(st store.Store, opts ...Option) *Service {
	s := &Service{store: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed writes the default record on first boot; a no-op when settings exist.
func (s *Service) Seed(ctx context.Context, defaultPurchaseLimit int) error {
	defaults := models.Defaults(defaultPurchaseLimit, requestcontext.Now(ctx))
	if err := s.store.SeedIfEmpty(ctx, defaults); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed settings")
	}
	return nil
}

// Get returns the current settings. Cached reads carry an explicit staleness
// flag; cache misses fall through to the store.
func (s *Service) Get(ctx context.Context) (models.Settings, bool, error) {
	if s.cache != nil {
		res := s.cache.Get(ctx)
		if res.Status == fetch.StatusReady {
			return res.Value, res.Stale, nil
		}
	}
	settings, err := s.store.Get(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Settings{}, false, dErrors.New(dErrors.CodeNotFound, "settings not initialized")
		}
		return models.Settings{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load settings")
	}
	return settings, false, nil
}

// Update atomically replaces the settings record. Requires the edit-settings
// capability; the purchase limit must be positive. Existing users keep the
// limit snapshot taken at registration.
func (s *Service) Update(ctx context.Context, actorID id.UserID, actorRole policy.Role, purchaseLimit int, description string) (models.Settings, error) {
	if !policy.Can(actorRole, policy.ActionEditSettings) {
		return models.Settings{}, dErrors.New(dErrors.CodeForbidden, "role may not edit settings")
	}

	current, err := s.store.Get(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Settings{}, dErrors.New(dErrors.CodeNotFound, "settings not initialized")
		}
		return models.Settings{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load settings")
	}

	next := models.Settings{
		PurchaseLimit: purchaseLimit,
		Description:   description,
		Version:       current.Version + 1,
		UpdatedAt:     requestcontext.Now(ctx),
		UpdatedBy:     &actorID,
	}
	if err := next.Validate(); err != nil {
		return models.Settings{}, err
	}

	if err := s.store.ReplaceIfVersion(ctx, next, current.Version); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return models.Settings{}, dErrors.New(dErrors.CodeConflict, "settings changed concurrently, retry")
		}
		return models.Settings{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update settings")
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	s.logAudit(ctx, audit.Event{
		Category:  audit.CategoryCompliance,
		Action:    string(audit.EventSettingsUpdated),
		UserID:    actorID,
		ActorID:   actorID.String(),
		RequestID: requestcontext.RequestID(ctx),
		Timestamp: next.UpdatedAt,
	})

	s.logger.InfoContext(ctx, "settings updated",
		"actor_id", actorID.String(),
		"purchase_limit", purchaseLimit,
		"version", next.Version,
	)
	return next, nil
}

// CurrentPurchaseLimit is the snapshot source for new registrations.
func (s *Service) CurrentPurchaseLimit(ctx context.Context) (int, error) {
	settings, _, err := s.Get(ctx)
	if err != nil {
		return 0, err
	}
	return settings.PurchaseLimit, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.audits == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.audits.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "error", err, "action", event.Action)
	}
}
