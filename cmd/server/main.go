package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accrualhandler "tally/internal/accrual/handler"
	accrualmetrics "tally/internal/accrual/metrics"
	accrualservice "tally/internal/accrual/service"
	authhandler "tally/internal/auth/handler"
	authmetrics "tally/internal/auth/metrics"
	"tally/internal/auth/models"
	authservice "tally/internal/auth/service"
	sessionstore "tally/internal/auth/store/session"
	userstore "tally/internal/auth/store/user"
	httptransport "tally/internal/http"
	jwttoken "tally/internal/jwt_token"
	"tally/internal/platform/config"
	"tally/internal/platform/fetch"
	"tally/internal/platform/httpserver"
	"tally/internal/platform/logger"
	"tally/internal/platform/postgres"
	"tally/internal/platform/redis"
	settingshandler "tally/internal/settings/handler"
	settingsmodels "tally/internal/settings/models"
	settingsservice "tally/internal/settings/service"
	settingsstore "tally/internal/settings/store"
	audit "tally/pkg/platform/audit"
	auditkafka "tally/pkg/platform/audit/store/kafka"
	auditmemory "tally/pkg/platform/audit/store/memory"
	auditpublisher "tally/pkg/platform/audit/publisher"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	healthChecks := map[string]httptransport.HealthCheck{}

	// Storage: postgres when configured, in-memory otherwise.
	var (
		db       *sql.DB
		users    userstore.Store
		settings settingsstore.Store
	)
	if cfg.PostgresURL != "" {
		var err error
		db, err = postgres.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.InitializeSchema(ctx, db); err != nil {
			log.Error("failed to initialize schema", "error", err)
			os.Exit(1)
		}
		users = userstore.NewPostgres(db)
		settings = settingsstore.NewPostgres(db)
		healthChecks["postgres"] = db.PingContext
		log.Info("using postgres stores")
	} else {
		users = userstore.New()
		settings = settingsstore.NewMemory()
		log.Info("using in-memory stores")
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		healthChecks["redis"] = redisClient.Health
		log.Info("redis cache enabled")
	}

	// Audit trail: kafka sink when brokers are configured, in-memory
	// otherwise. The publisher buffers asynchronously either way.
	var auditStore audit.Store
	if len(cfg.AuditKafkaBrokers) > 0 {
		kafkaStore, err := auditkafka.New(ctx, cfg.AuditKafkaBrokers, cfg.AuditKafkaTopic)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaStore.Close()
		auditStore = kafkaStore
		log.Info("kafka audit sink enabled", "topic", cfg.AuditKafkaTopic)
	} else {
		auditStore = auditmemory.NewInMemoryStore()
	}
	audits := auditpublisher.NewPublisher(auditStore, auditpublisher.WithAsyncBuffer(256))
	defer audits.Close()

	// Settings authority, seeded with defaults on first boot.
	var settingsCacheOpts []fetch.Option[settingsmodels.Settings]
	if redisClient != nil {
		settingsCacheOpts = append(settingsCacheOpts, fetch.WithRedis[settingsmodels.Settings](redisClient))
	}
	settingsCache := fetch.NewResource("settings", cfg.CacheTTL,
		func(ctx context.Context) (settingsmodels.Settings, error) {
			return settings.Get(ctx)
		},
		settingsCacheOpts...,
	)
	settingsSvc := settingsservice.New(settings,
		settingsservice.WithLogger(log),
		settingsservice.WithAuditPublisher(audits),
		settingsservice.WithCache(settingsCache),
	)
	if err := settingsSvc.Seed(ctx, cfg.DefaultPurchaseLimit); err != nil {
		log.Error("failed to seed settings", "error", err)
		os.Exit(1)
	}

	var usersCacheOpts []fetch.Option[[]*models.User]
	if redisClient != nil {
		usersCacheOpts = append(usersCacheOpts, fetch.WithRedis[[]*models.User](redisClient))
	}
	usersCache := fetch.NewResource("users", cfg.CacheTTL,
		func(ctx context.Context) ([]*models.User, error) {
			return users.List(ctx)
		},
		usersCacheOpts...,
	)

	sessions := sessionstore.New()
	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "tally", "tally-dashboard")

	authSvc := authservice.New(users, sessions, tokens, settingsSvc,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(audits),
		authservice.WithMetrics(authmetrics.New()),
		authservice.WithUsersCache(usersCache),
		authservice.WithTokenTTL(cfg.TokenTTL),
		authservice.WithBcryptCost(cfg.BcryptCost),
	)
	accrualSvc := accrualservice.New(users,
		accrualservice.WithLogger(log),
		accrualservice.WithAuditPublisher(audits),
		accrualservice.WithMetrics(accrualmetrics.New()),
		accrualservice.WithUsersCache(usersCache),
	)

	authH := authhandler.New(authSvc, log)
	accrualH := accrualhandler.New(accrualSvc, log)
	settingsH := settingshandler.New(settingsSvc, log)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:       log,
		Validator:    jwttoken.NewMiddlewareValidator(tokens),
		Sessions:     authSvc,
		Public:       []httptransport.PublicRoutable{authH},
		Protected:    []httptransport.Routable{authH, accrualH, settingsH},
		HealthChecks: healthChecks,
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting tally server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
