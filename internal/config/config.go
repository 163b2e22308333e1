// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default values for optional settings.
const (
	DefaultPort     = "8080"
	DefaultCacheTTL = 30 * time.Second
	DefaultLogLevel = "info"
)

// Config holds the settings shared by every subcommand. Flags override
// individual fields after Load.
type Config struct {
	Port        string        // PORT
	DatabaseURL string        // DATABASE_URL; empty selects the in-memory report store
	RedisURL    string        // REDIS_URL; only used together with DatabaseURL
	CacheTTL    time.Duration // CACHE_TTL
	LogLevel    slog.Level    // LOG_LEVEL: debug, info, warn, error
	Strict      bool          // LEDGER_STRICT: abort input on the first malformed record
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:        getenv("PORT"),
		DatabaseURL: getenv("DATABASE_URL"),
		RedisURL:    getenv("REDIS_URL"),
	}
	cfg.applyDefaults()

	if v := getenv("CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: CACHE_TTL: %w", err)
		}
		if ttl <= 0 {
			return nil, fmt.Errorf("config: CACHE_TTL must be positive, got %s", ttl)
		}
		cfg.CacheTTL = ttl
	}

	level := getenv("LOG_LEVEL")
	if level == "" {
		level = DefaultLogLevel
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}

	if v := getenv("LEDGER_STRICT"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("config: LEDGER_STRICT: %w", err)
		}
		cfg.Strict = strict
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = DefaultCacheTTL
	}
}
