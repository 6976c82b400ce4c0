package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. FromEnv keeps main lean.
type Server struct {
	Addr          string
	JWTSigningKey string

	// PostgresDSN selects the PostgreSQL record store; empty means in-memory.
	PostgresDSN string

	Redis RedisConfig

	Ledger LedgerConfig

	// KafkaBrokers enables the Kafka audit sink when non-empty.
	KafkaBrokers []string
	AuditTopic   string

	// ReconcileInterval paces the attestation repair pass.
	ReconcileInterval time.Duration
}

// RedisConfig configures the optional Redis backing for the recent-lookup
// cache. Empty URL means not configured.
type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LedgerConfig selects and bounds the ledger gateway. A hang on the ledger
// must not delay a lookup that can succeed from the store alone, so the
// timeout applies to ledger calls specifically.
type LedgerConfig struct {
	// Mode is "simulated" or "http".
	Mode    string
	BaseURL string
	Timeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:          envOr("AGRITRACE_ADDR", ":8080"),
		JWTSigningKey: envOr("AGRITRACE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresDSN:   os.Getenv("AGRITRACE_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("AGRITRACE_REDIS_URL"),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Ledger: LedgerConfig{
			Mode:    envOr("AGRITRACE_LEDGER_MODE", "simulated"),
			BaseURL: os.Getenv("AGRITRACE_LEDGER_URL"),
			Timeout: durationOr("AGRITRACE_LEDGER_TIMEOUT", 3*time.Second),
		},
		AuditTopic:        envOr("AGRITRACE_AUDIT_TOPIC", "agritrace.audit"),
		ReconcileInterval: durationOr("AGRITRACE_RECONCILE_INTERVAL", time.Minute),
	}
	if brokers := os.Getenv("AGRITRACE_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
