package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Config holds the server settings.
type Config struct {
	Addr      string `yaml:"addr"`
	Debug     bool   `yaml:"debug"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`

	// MoveServiceURL points the page controllers at a remote move service.
	// Empty means the in-process service answers list_models and get_move.
	MoveServiceURL string `yaml:"move_service_url"`

	SessionTTL  time.Duration `yaml:"session_ttl"`
	PageIdleTTL time.Duration `yaml:"page_idle_ttl"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:        ":8080",
		LogLevel:    "info",
		LogFormat:   "console",
		SessionTTL:  24 * time.Hour,
		PageIdleTTL: 24 * time.Hour,
	}
}

// Load applies an optional YAML file and then the environment on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("WHALES_ADDR")); v != "" {
		cfg.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FORMAT")); v != "" {
		cfg.LogFormat = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("MOVE_SERVICE_URL")); v != "" {
		cfg.MoveServiceURL = v
	}
	if v := strings.TrimSpace(os.Getenv("SESSION_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SessionTTL = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("PAGE_IDLE_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.PageIdleTTL = d
		}
	}

	if cfg.Addr == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = Default().SessionTTL
	}
	if cfg.PageIdleTTL <= 0 {
		cfg.PageIdleTTL = Default().PageIdleTTL
	}
	return cfg, nil
}
