package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration. Empty infrastructure addresses
// mean "run with in-memory implementations", which keeps local development and
// tests free of external services.
type Config struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	AuditTopic    string
	JWTSigningKey string

	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("MEDLEDGER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	auditTopic := os.Getenv("MEDLEDGER_AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "medledger.audit"
	}

	jwtSigningKey := os.Getenv("MEDLEDGER_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("MEDLEDGER_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Config{
		Addr:            addr,
		DatabaseURL:     os.Getenv("MEDLEDGER_DATABASE_URL"),
		RedisURL:        os.Getenv("MEDLEDGER_REDIS_URL"),
		KafkaBrokers:    brokers,
		AuditTopic:      auditTopic,
		JWTSigningKey:   jwtSigningKey,
		ShutdownTimeout: 10 * time.Second,
	}
}
