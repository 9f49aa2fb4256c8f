package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. FromEnv builds it from
// environment variables so main stays lean; defaults suit local development.
type Config struct {
	Addr string

	// PostgresURL selects the postgres-backed stores when set; empty runs
	// on in-memory stores.
	PostgresURL string

	// RedisURL enables the redis read cache for listings and settings.
	RedisURL string

	// AuditKafkaBrokers enables the Kafka audit sink when non-empty.
	AuditKafkaBrokers []string
	AuditKafkaTopic   string

	JWTSigningKey string
	TokenTTL      time.Duration

	// DefaultPurchaseLimit seeds global settings on first boot.
	DefaultPurchaseLimit int

	BcryptCost int

	CacheTTL time.Duration
}

// FromEnv builds a Config from TALLY_* environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:                 getEnv("TALLY_ADDR", ":8080"),
		PostgresURL:          os.Getenv("TALLY_POSTGRES_URL"),
		RedisURL:             os.Getenv("TALLY_REDIS_URL"),
		AuditKafkaTopic:      getEnv("TALLY_AUDIT_KAFKA_TOPIC", "tally.audit"),
		JWTSigningKey:        getEnv("TALLY_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:             getDuration("TALLY_TOKEN_TTL", time.Hour),
		DefaultPurchaseLimit: getInt("TALLY_DEFAULT_PURCHASE_LIMIT", 10),
		BcryptCost:           getInt("TALLY_BCRYPT_COST", 10),
		CacheTTL:             getDuration("TALLY_CACHE_TTL", 30*time.Second),
	}

	if brokers := os.Getenv("TALLY_AUDIT_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.AuditKafkaBrokers = append(cfg.AuditKafkaBrokers, b)
			}
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
