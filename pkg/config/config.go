// Package config holds the runtime configuration of the server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all settings the server reads at startup. Flags cover the
// basics; everything else comes from the environment.
type Config struct {
	Debug bool
	Port  string

	// DatabaseURL enables the Postgres store when non-empty; otherwise the
	// server keeps match records in memory only.
	DatabaseURL string

	// AuthTokens maps bearer tokens to player ids, parsed from AUTH_TOKENS
	// ("token:player,token:player").
	AuthTokens map[string]string

	// ValidateLegality turns on full move legality checking. Off by default;
	// clients are trusted with board state.
	ValidateLegality bool

	AllowedOrigin string

	SessionIdleTimeout time.Duration
	SweepInterval      time.Duration
	QueueEntryTTL      time.Duration
	QueueSweepInterval time.Duration

	StoreWorkers   int
	StoreQueueSize int
}

// Load builds a Config from the environment on top of the given flag values.
func Load(debug bool, port string) (*Config, error) {
	cfg := &Config{
		Debug: debug,
		Port:  port,

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AllowedOrigin: os.Getenv("FRONTEND_PATH"),

		ValidateLegality: envBool("VALIDATE_LEGALITY", false),

		SessionIdleTimeout: envDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		SweepInterval:      envDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),
		QueueEntryTTL:      envDuration("QUEUE_ENTRY_TTL", 5*time.Minute),
		QueueSweepInterval: envDuration("QUEUE_SWEEP_INTERVAL", time.Minute),

		StoreWorkers:   envInt("STORE_WORKERS", 2),
		StoreQueueSize: envInt("STORE_QUEUE_SIZE", 256),
	}

	tokens, err := ParseAuthTokens(os.Getenv("AUTH_TOKENS"))
	if err != nil {
		return nil, err
	}
	cfg.AuthTokens = tokens

	return cfg, nil
}

// ParseAuthTokens parses the "token:player,token:player" list used by
// AUTH_TOKENS. An empty input yields an empty map.
func ParseAuthTokens(raw string) (map[string]string, error) {
	tokens := make(map[string]string)

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return tokens, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		token, player, ok := strings.Cut(pair, ":")
		token = strings.TrimSpace(token)
		player = strings.TrimSpace(player)
		if !ok || token == "" || player == "" {
			return nil, fmt.Errorf("invalid auth token entry %q", pair)
		}

		tokens[token] = player
	}

	return tokens, nil
}

func envBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}
