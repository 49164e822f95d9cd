// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// Config holds all settings of the respect service.
type Config struct {
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	RedisURL    string `envconfig:"REDIS_URL"`

	// AuthToken protects the write endpoints. Required outside development.
	AuthToken string `envconfig:"AUTH_TOKEN"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// DecaySchedule is a standard 5-field cron expression, evaluated in UTC.
	// Empty disables the in-process decay job.
	DecaySchedule string  `envconfig:"DECAY_SCHEDULE" default:"0 3 1 * *"`
	DecayPercent  float64 `envconfig:"DECAY_PERCENT" default:"0.05"`

	// Per-source tuning, e.g. "REVIEW_USEFUL:10,GUIDE_USEFUL:12".
	PointOverrides map[string]int `envconfig:"RESPECT_POINT_OVERRIDES"`
	CapOverrides   map[string]int `envconfig:"RESPECT_CAP_OVERRIDES"`

	CacheTTL time.Duration `envconfig:"RESPECT_CACHE_TTL" default:"30s"`
}

// IsProduction reports whether the service runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	if c.IsProduction() && c.AuthToken == "" {
		return fmt.Errorf("AUTH_TOKEN is required in production")
	}
	if c.DecayPercent < 0 || c.DecayPercent > 1 {
		return fmt.Errorf("DECAY_PERCENT must be within [0, 1], got %v", c.DecayPercent)
	}
	if c.DecaySchedule != "" {
		if _, err := cron.ParseStandard(c.DecaySchedule); err != nil {
			return fmt.Errorf("DECAY_SCHEDULE is not a valid cron expression: %w", err)
		}
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("RESPECT_CACHE_TTL must be positive")
	}
	for key, limit := range c.CapOverrides {
		if limit < 0 {
			return fmt.Errorf("RESPECT_CAP_OVERRIDES: cap for %s must not be negative", key)
		}
	}
	return nil
}

// Load reads environment variables into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
