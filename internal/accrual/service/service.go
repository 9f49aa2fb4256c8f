// Package service implements reward accrual: recording purchase scans,
// issuing rewards when the tally reaches the purchase limit, and redeeming
// pending rewards.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	accrualmetrics "tally/internal/accrual/metrics"
	userstore "tally/internal/auth/store/user"
	audit "tally/pkg/platform/audit"
)

var tracer = otel.Tracer("tally/internal/accrual")

// AuditPublisher emits audit events for accrual operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// CacheInvalidator drops cached user listings after accrual writes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

type Service struct {
	users userstore.Store

	logger     *slog.Logger
	audits     AuditPublisher
	metrics    *accrualmetrics.Metrics
	usersCache CacheInvalidator
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audits = publisher }
}

func WithMetrics(m *accrualmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithUsersCache(cache CacheInvalidator) Option {
	return func(s *Service) { s.usersCache = cache }
}

func New(users userstore.Store, opts ...Option) *Service {
	s := &Service{
		users:  users,
		logger: slog.Default(),
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

func startSpan(ctx context.Context, name string, userID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("user.id", userID)))
}
