// Package common provides shared utilities for Titan
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Titan
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Engine      EngineConfig  `toml:"engine"`
	Oracle      OracleConfig  `toml:"oracle"`
	Runner      RunnerConfig  `toml:"runner"`
	Logging     LoggingConfig `toml:"logging"`
	Auth        AuthConfig    `toml:"auth"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the embedded database path.
type StorageConfig struct {
	Path string `toml:"path"`
}

// EngineConfig holds execution engine tuning.
type EngineConfig struct {
	FeeRate float64 `toml:"fee_rate"` // proportional fee applied to notional value (0.001 = 0.1%)
}

// OracleConfig holds price oracle configuration
type OracleConfig struct {
	Source    string   `toml:"source"` // "static", "http", "websocket"
	BaseURL   string   `toml:"base_url"`
	FeedURL   string   `toml:"feed_url"`
	Symbols   []string `toml:"symbols"` // websocket subscription list
	RateLimit int      `toml:"rate_limit"`
	Timeout   string   `toml:"timeout"`
	MaxAge    string   `toml:"max_age"` // age beyond which a cached price is logged as stale

	// StaticPrices seeds the deterministic oracle used for local runs.
	StaticPrices map[string]float64 `toml:"static_prices"`
}

// GetTimeout parses and returns the per-call oracle timeout
func (c *OracleConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// GetMaxAge parses and returns the cached-price staleness threshold
func (c *OracleConfig) GetMaxAge() time.Duration {
	d, err := time.ParseDuration(c.MaxAge)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// RunnerConfig holds strategy runner configuration
type RunnerConfig struct {
	TickInterval           string `toml:"tick_interval"`
	MaxConsecutiveFailures int    `toml:"max_consecutive_failures"` // validation failures before a strategy is marked degraded
}

// GetTickInterval parses and returns the scheduler tick interval
func (c *RunnerConfig) GetTickInterval() time.Duration {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		return time.Minute
	}
	return d
}

// AuthConfig holds JWT authentication configuration.
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"` // duration string, default "24h"
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path: "data/titan",
		},
		Engine: EngineConfig{
			FeeRate: 0.001,
		},
		Oracle: OracleConfig{
			Source:    "static",
			RateLimit: 10,
			Timeout:   "2s",
			MaxAge:    "5m",
		},
		Runner: RunnerConfig{
			TickInterval:           "1m",
			MaxConsecutiveFailures: 3,
		},
		Auth: AuthConfig{
			JWTSecret:   "dev-jwt-secret-change-in-production",
			TokenExpiry: "24h",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TITAN_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("TITAN_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("TITAN_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("TITAN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("TITAN_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if src := os.Getenv("TITAN_ORACLE_SOURCE"); src != "" {
		config.Oracle.Source = src
	}

	if url := os.Getenv("TITAN_ORACLE_URL"); url != "" {
		config.Oracle.BaseURL = url
	}

	if fee := os.Getenv("TITAN_FEE_RATE"); fee != "" {
		if f, err := strconv.ParseFloat(fee, 64); err == nil && f >= 0 {
			config.Engine.FeeRate = f
		}
	}

	if v := os.Getenv("TITAN_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("TITAN_AUTH_TOKEN_EXPIRY"); v != "" {
		config.Auth.TokenExpiry = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
