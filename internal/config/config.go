// Package config centralises configuration parsing for the Holistiq binaries.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration values for the API and consumer.
type Config struct {
	HTTPAddress        string
	MetricsAddress     string
	PostgresURL        string // empty selects the in-memory store
	KafkaBrokers       []string
	SessionTopic       string
	ConsumerGroupID    string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimLease   time.Duration
	ShutdownTimeout    time.Duration
	CORSOrigins        []string
}

// Load reads environment variables into Config, applying sensible defaults for local dev.
func Load() Config {
	return Config{
		HTTPAddress:        getEnv("HTTP_ADDRESS", ":5000"),
		MetricsAddress:     getEnv("METRICS_ADDRESS", ":9102"),
		PostgresURL:        getEnv("POSTGRES_URL", ""),
		KafkaBrokers:       splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		SessionTopic:       getEnv("SESSION_EVENTS_TOPIC", "session_events"),
		ConsumerGroupID:    getEnv("CONSUMER_GROUP_ID", "holistiq-stats"),
		OutboxPollInterval: getDurationEnv("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:    getIntEnv("OUTBOX_BATCH_SIZE", 25),
		OutboxClaimLease:   getDurationEnv("OUTBOX_CLAIM_LEASE", 30*time.Second),
		ShutdownTimeout:    getDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
		CORSOrigins:        splitAndTrim(getEnv("CORS_ORIGINS", "")),
	}
}

// ClientConfig configures the timer front-ends.
type ClientConfig struct {
	BackendURL    string
	CommitTimeout time.Duration
	LegacyRoutes  bool
	CatalogPath   string
}

// LoadClient reads the front-end configuration from the environment.
func LoadClient() ClientConfig {
	return ClientConfig{
		BackendURL:    strings.TrimRight(getEnv("HOLISTIQ_BACKEND_URL", "http://localhost:5000"), "/"),
		CommitTimeout: getDurationEnv("HOLISTIQ_COMMIT_TIMEOUT", 10*time.Second),
		LegacyRoutes:  getBoolEnv("HOLISTIQ_LEGACY_ROUTES", false),
		CatalogPath:   getEnv("HOLISTIQ_CATALOG", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
