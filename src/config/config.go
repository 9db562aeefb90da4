package config

import (
	"fmt"
	"os"

	"stock-pulse/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	if c.Cache.PriceTTLSeconds <= 0 {
		return fmt.Errorf("price TTL must be greater than 0")
	}
	if c.Cache.FundamentalsTTLSeconds <= 0 {
		return fmt.Errorf("fundamentals TTL must be greater than 0")
	}
	if c.Cache.MergedTTLSeconds <= 0 {
		return fmt.Errorf("merged record TTL must be greater than 0")
	}

	if c.Breaker.TimeoutSeconds <= 0 {
		return fmt.Errorf("breaker timeout must be greater than 0")
	}
	if c.Breaker.ErrorThreshold <= 0 || c.Breaker.ErrorThreshold > 1 {
		return fmt.Errorf("breaker error threshold must be in (0, 1], got %f", c.Breaker.ErrorThreshold)
	}
	if c.Breaker.ResetTimeoutSeconds <= 0 {
		return fmt.Errorf("breaker reset timeout must be greater than 0")
	}
	if c.Breaker.WindowSize <= 0 {
		return fmt.Errorf("breaker window size must be greater than 0")
	}

	if c.Stream.PollIntervalSeconds <= 0 {
		return fmt.Errorf("stream poll interval must be greater than 0")
	}

	if c.Providers.Yahoo.BaseURL == "" {
		return fmt.Errorf("yahoo base URL cannot be empty")
	}
	if c.Providers.Fundamentals.DefaultExchange == "" {
		return fmt.Errorf("fundamentals default exchange cannot be empty")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
