// Package config provides client configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config holds client configuration values loaded from file or environment
// variables.
type Config struct {
	APIBase     string        `mapstructure:"API_BASE"`
	HTTPTimeout time.Duration `mapstructure:"HTTP_TIMEOUT"`

	// PageSize is the batch size for paged counting; MaxCountPages caps
	// how many batches a single count may fetch from a misbehaving server.
	PageSize      int `mapstructure:"PAGE_SIZE"`
	MaxCountPages int `mapstructure:"MAX_COUNT_PAGES"`

	// LikeRollbackOnFailure controls whether a failed like call reverts
	// the optimistic local state. False reproduces the legacy behavior of
	// keeping the optimistic count.
	LikeRollbackOnFailure bool `mapstructure:"LIKE_ROLLBACK_ON_FAILURE"`

	SessionBackend string `mapstructure:"SESSION_BACKEND"`
	SessionPath    string `mapstructure:"SESSION_PATH"`
	RedisURL       string `mapstructure:"REDIS_URL"`

	Env string `mapstructure:"APP_ENV"`

	TracingEnabled  bool   `mapstructure:"TRACING_ENABLED"`
	TracingExporter string `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string `mapstructure:"OTLP_ENDPOINT"`
}

// LoadConfig loads client configuration from file and environment
// variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The config file is optional; env vars and defaults are enough.
	_ = viper.ReadInConfig()

	viper.SetDefault("API_BASE", "http://localhost:4000/api")
	viper.SetDefault("HTTP_TIMEOUT", "15s")
	viper.SetDefault("PAGE_SIZE", 100)
	viper.SetDefault("MAX_COUNT_PAGES", 50)
	viper.SetDefault("LIKE_ROLLBACK_ON_FAILURE", true)
	viper.SetDefault("SESSION_BACKEND", "sqlite")
	viper.SetDefault("SESSION_PATH", "jaytalk-session.db")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and
// usable.
func (c *Config) Validate() error {
	if c.APIBase == "" {
		return errors.New("API_BASE is required")
	}
	parsed, err := url.Parse(c.APIBase)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("API_BASE must be an absolute URL, got %q", c.APIBase)
	}
	if c.PageSize <= 0 {
		return errors.New("PAGE_SIZE must be positive")
	}
	if c.MaxCountPages <= 0 {
		return errors.New("MAX_COUNT_PAGES must be positive")
	}
	switch c.SessionBackend {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("SESSION_BACKEND must be sqlite, redis or memory, got %q", c.SessionBackend)
	}
	if c.SessionBackend == "sqlite" && c.SessionPath == "" {
		return errors.New("SESSION_PATH is required with the sqlite session backend")
	}
	if c.SessionBackend == "redis" && c.RedisURL == "" {
		return errors.New("REDIS_URL is required with the redis session backend")
	}
	return nil
}
