package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string `mapstructure:"PORT"`
	Env           string `mapstructure:"ENV"`
	APIBaseURL    string `mapstructure:"API_BASE_URL"`
	APIToken      string `mapstructure:"API_TOKEN"`
	HTTPTimeout   int    `mapstructure:"HTTP_TIMEOUT"`
	CacheDir      string `mapstructure:"CACHE_DIR"`
	SnoozeMinutes int    `mapstructure:"SNOOZE_MINUTES"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "7980")
	v.SetDefault("ENV", "development")
	v.SetDefault("HTTP_TIMEOUT", 10)
	v.SetDefault("SNOOZE_MINUTES", 5)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("API_BASE_URL")
	v.BindEnv("API_TOKEN")
	v.BindEnv("HTTP_TIMEOUT")
	v.BindEnv("CACHE_DIR")
	v.BindEnv("SNOOZE_MINUTES")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}

	if cfg.CacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		cfg.CacheDir = filepath.Join(base, "dosewise")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// HTTPTimeoutDuration returns the backend request timeout as a duration.
func (c *Config) HTTPTimeoutDuration() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Second
}

// SnoozeOffset returns the reminder snooze offset as a duration.
func (c *Config) SnoozeOffset() time.Duration {
	return time.Duration(c.SnoozeMinutes) * time.Minute
}

// Validate checks that the configuration is safe to run with. The agent
// refuses to start without a backend URL or with nonsensical intervals.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %d", c.HTTPTimeout)
	}
	if c.SnoozeMinutes <= 0 {
		return fmt.Errorf("SNOOZE_MINUTES must be positive, got %d", c.SnoozeMinutes)
	}
	return nil
}
