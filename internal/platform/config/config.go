package config

import (
	"os"
	"strings"
	"time"

	"fecgate/internal/compliance"
	"fecgate/internal/ledger"
	"fecgate/pkg/money"
	platformstrings "fecgate/pkg/platform/strings"
)

// Server captures process-level configuration.
type Server struct {
	Addr         string
	PostgresURL  string
	Redis        RedisConfig
	KafkaBrokers []string
	KafkaTopic   string

	Limits         compliance.Limits
	Scope          ledger.Scope
	StorageTimeout time.Duration
	KYCCacheTTL    time.Duration
}

// RedisConfig carries connection settings for the KYC status cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Limit values are decimal dollar strings; unparseable values fall back to the
// FEC individual-contribution default of $3,300.
func FromEnv() Server {
	addr := os.Getenv("FECGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	cfg := Server{
		Addr:        addr,
		PostgresURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		KafkaTopic: envOr("KAFKA_AUDIT_TOPIC", "fecgate.audit"),
		Limits: compliance.Limits{
			PerTransaction: limitFromEnv("MAX_PER_TRANSACTION_USD"),
			Cumulative:     limitFromEnv("MAX_CUMULATIVE_USD"),
		},
		Scope:          ledger.ParseScope(os.Getenv("COMPLIANCE_SCOPE")),
		StorageTimeout: durationOr("STORAGE_TIMEOUT", 3*time.Second),
		KYCCacheTTL:    durationOr("KYC_CACHE_TTL", 5*time.Minute),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = platformstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}

	return cfg
}

func limitFromEnv(key string) money.Cents {
	if v := os.Getenv(key); v != "" {
		if c, err := money.ParseUSD(v); err == nil && c > 0 {
			return c
		}
	}
	return compliance.DefaultFECLimit
}

func durationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
