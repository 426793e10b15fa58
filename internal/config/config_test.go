package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *Config {
	return &Config{
		APIBase:        "http://localhost:4000/api",
		HTTPTimeout:    15 * time.Second,
		PageSize:       100,
		MaxCountPages:  50,
		SessionBackend: "sqlite",
		SessionPath:    "session.db",
		RedisURL:       "localhost:6379",
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:4000/api", cfg.APIBase)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, 50, cfg.MaxCountPages)
	assert.True(t, cfg.LikeRollbackOnFailure)
	assert.Equal(t, "sqlite", cfg.SessionBackend)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("API_BASE", "https://feed.example.com/api")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("LIKE_ROLLBACK_ON_FAILURE", "false")
	t.Setenv("SESSION_BACKEND", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://feed.example.com/api", cfg.APIBase)
	assert.Equal(t, 25, cfg.PageSize)
	assert.False(t, cfg.LikeRollbackOnFailure)
	assert.Equal(t, "memory", cfg.SessionBackend)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, baseConfig().Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty api base", func(c *Config) { c.APIBase = "" }},
		{"relative api base", func(c *Config) { c.APIBase = "/api" }},
		{"zero page size", func(c *Config) { c.PageSize = 0 }},
		{"zero page ceiling", func(c *Config) { c.MaxCountPages = 0 }},
		{"unknown backend", func(c *Config) { c.SessionBackend = "vault" }},
		{"sqlite without path", func(c *Config) { c.SessionPath = "" }},
		{"redis without url", func(c *Config) { c.SessionBackend = "redis"; c.RedisURL = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
