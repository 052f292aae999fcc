// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr       string
	DBPath           string
	RedisURL         string
	EventStream      string
	SignatureMaxSkew time.Duration
	AirdropEnabled   bool
	LogLevel         slog.Level
}

// HasRedis reports whether events should be published to Redis. Without it
// the composition root falls back to the structured log.
func (c *Config) HasRedis() bool {
	return c.RedisURL != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// All variables are optional: MARKETPLACE_LISTEN_ADDR (127.0.0.1:8080),
// MARKETPLACE_DB_PATH (agentmarket.db), MARKETPLACE_REDIS_URL (empty),
// MARKETPLACE_EVENT_STREAM (marketplace:access_requested),
// MARKETPLACE_SIGNATURE_MAX_SKEW (1m), MARKETPLACE_AIRDROP_ENABLED (false),
// MARKETPLACE_LOG_LEVEL (info).
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("MARKETPLACE_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "agentmarket.db"
	if v, ok := os.LookupEnv("MARKETPLACE_DB_PATH"); ok {
		dbPath = v
	}

	eventStream := "marketplace:access_requested"
	if v, ok := os.LookupEnv("MARKETPLACE_EVENT_STREAM"); ok && v != "" {
		eventStream = v
	}

	maxSkew := time.Minute
	if v, ok := os.LookupEnv("MARKETPLACE_SIGNATURE_MAX_SKEW"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("MARKETPLACE_SIGNATURE_MAX_SKEW has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("MARKETPLACE_SIGNATURE_MAX_SKEW must be positive, got %s", parsed)
		}
		maxSkew = parsed
	}

	airdrop := false
	if v, ok := os.LookupEnv("MARKETPLACE_AIRDROP_ENABLED"); ok && v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("MARKETPLACE_AIRDROP_ENABLED has invalid boolean %q: %w", v, err)
		}
		airdrop = parsed
	}

	level := slog.LevelInfo
	if v, ok := os.LookupEnv("MARKETPLACE_LOG_LEVEL"); ok && v != "" {
		if err := level.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return nil, fmt.Errorf("MARKETPLACE_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	return &Config{
		ListenAddr:       listenAddr,
		DBPath:           dbPath,
		RedisURL:         os.Getenv("MARKETPLACE_REDIS_URL"),
		EventStream:      eventStream,
		SignatureMaxSkew: maxSkew,
		AirdropEnabled:   airdrop,
		LogLevel:         level,
	}, nil
}
