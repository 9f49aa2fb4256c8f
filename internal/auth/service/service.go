// Package service implements the auth session facade: registration, login,
// logout, profile retrieval, user listing, and role administration. It keeps
// transport concerns out of business logic.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	authmetrics "tally/internal/auth/metrics"
	"tally/internal/auth/models"
	sessionstore "tally/internal/auth/store/session"
	userstore "tally/internal/auth/store/user"
	"tally/internal/platform/fetch"
	audit "tally/pkg/platform/audit"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// TokenIssuer mints access tokens bound to a session.
type TokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, sessionID uuid.UUID, role string, expiresIn time.Duration) (string, error)
}

// SettingsSource supplies the purchase-limit snapshot for new accounts.
type SettingsSource interface {
	CurrentPurchaseLimit(ctx context.Context) (int, error)
}

// AuditPublisher emits audit events for auth operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	users    userstore.Store
	sessions *sessionstore.InMemorySessionStore
	tokens   TokenIssuer
	settings SettingsSource

	logger     *slog.Logger
	audits     AuditPublisher
	metrics    *authmetrics.Metrics
	usersCache *fetch.Resource[[]*models.User]

	tokenTTL   time.Duration
	bcryptCost int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audits = publisher }
}

func WithMetrics(m *authmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithUsersCache serves the all-users listing through the given cached
// resource; every user mutation invalidates it.
func WithUsersCache(cache *fetch.Resource[[]*models.User]) Option {
	return func(s *Service) { s.usersCache = cache }
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.tokenTTL = ttl }
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func New(users userstore.Store, sessions *sessionstore.InMemorySessionStore, tokens TokenIssuer, settings SettingsSource, opts ...Option) *Service {
	s := &Service{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		settings:   settings,
		logger:     slog.Default(),
		tokenTTL:   time.Hour,
		bcryptCost: 10,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
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

func (s *Service) invalidateUsersCache(ctx context.Context) {
	if s.usersCache != nil {
		s.usersCache.Invalidate(ctx)
	}
}
