package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-pulse/src/models"
)

const validYAML = `
name: stock-pulse
host: 0.0.0.0
port: 4000
log_level: INFO
grpc_host: 127.0.0.1
grpc_port: 50061
network:
  timeout: 20
  retries: 2
  user_agent: test-agent
cache:
  price_ttl_seconds: 60
  fundamentals_ttl_seconds: 43200
  merged_ttl_seconds: 60
breaker:
  timeout_seconds: 15
  error_threshold: 0.5
  reset_timeout_seconds: 30
  window_size: 10
stream:
  poll_interval_seconds: 10
providers:
  yahoo:
    base_url: https://query1.finance.yahoo.com/v8/finance/chart
  fundamentals:
    default_exchange: NSE
    headless: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// -----------------------------------------------------------------------------

func TestNewConfig_LoadsValidFile(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "stock-pulse", cfg.Name)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, 60, cfg.Cache.PriceTTLSeconds)
	assert.Equal(t, 43200, cfg.Cache.FundamentalsTTLSeconds)
	assert.Equal(t, 0.5, cfg.Breaker.ErrorThreshold)
	assert.Equal(t, 10, cfg.Stream.PollIntervalSeconds)
	assert.Equal(t, "NSE", cfg.Providers.Fundamentals.DefaultExchange)
	assert.True(t, cfg.Providers.Fundamentals.Headless)
}

// -----------------------------------------------------------------------------

func TestNewConfig_MissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNewConfig_MalformedYAML(t *testing.T) {
	_, err := NewConfig(writeConfig(t, "name: [unclosed"))
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------

func TestValidate_RejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := NewConfig(writeConfig(t, validYAML))
		require.NoError(t, err)
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*models.MConfig)
	}{
		{"empty name", func(c *models.MConfig) { c.Name = "" }},
		{"empty host", func(c *models.MConfig) { c.Host = "" }},
		{"privileged port", func(c *models.MConfig) { c.Port = 80 }},
		{"port too large", func(c *models.MConfig) { c.Port = 70000 }},
		{"zero request timeout", func(c *models.MConfig) { c.Network.RequestTimeout = 0 }},
		{"negative retries", func(c *models.MConfig) { c.Network.MaxRetries = -1 }},
		{"zero price ttl", func(c *models.MConfig) { c.Cache.PriceTTLSeconds = 0 }},
		{"zero fundamentals ttl", func(c *models.MConfig) { c.Cache.FundamentalsTTLSeconds = 0 }},
		{"zero merged ttl", func(c *models.MConfig) { c.Cache.MergedTTLSeconds = 0 }},
		{"zero breaker timeout", func(c *models.MConfig) { c.Breaker.TimeoutSeconds = 0 }},
		{"threshold above one", func(c *models.MConfig) { c.Breaker.ErrorThreshold = 1.5 }},
		{"zero reset timeout", func(c *models.MConfig) { c.Breaker.ResetTimeoutSeconds = 0 }},
		{"zero window", func(c *models.MConfig) { c.Breaker.WindowSize = 0 }},
		{"zero poll interval", func(c *models.MConfig) { c.Stream.PollIntervalSeconds = 0 }},
		{"empty yahoo url", func(c *models.MConfig) { c.Providers.Yahoo.BaseURL = "" }},
		{"empty default exchange", func(c *models.MConfig) { c.Providers.Fundamentals.DefaultExchange = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg.MConfig)
			assert.Error(t, cfg.Validate())
		})
	}
}

// -----------------------------------------------------------------------------

func TestSave_RoundTrips(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(path))

	reloaded, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.MConfig, reloaded.MConfig)
}
