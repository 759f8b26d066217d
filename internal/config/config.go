// Package config loads the reconciler's yaml configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yourorg/vending-reconciler/internal/backoff"
	"github.com/yourorg/vending-reconciler/internal/policy"
)

// ProviderConfig holds the vending provider endpoint and credentials.
// Mock swaps the HTTP client for the in-process mock, for local runs and
// integration tests without provider credentials.
type ProviderConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	SecretKey    string        `yaml:"secret_key"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	Mock         bool          `yaml:"mock"`
}

// Config is the full server configuration.
type Config struct {
	Listen              string              `yaml:"listen"`
	Provider            ProviderConfig      `yaml:"provider"`
	BackoffSeconds      []int               `yaml:"backoff_seconds"`
	ClassificationRules []policy.RuleConfig `yaml:"classification_rules"`
}

// Default returns the configuration used when no file is given: mock
// provider, default backoff, no override rules.
func Default() *Config {
	return &Config{
		Listen:   ":8080",
		Provider: ProviderConfig{Mock: true},
	}
}

// Load reads a yaml config file. An empty path yields Default(); a config
// file must either name a provider base URL or opt into the mock client.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if !cfg.Provider.Mock && cfg.Provider.BaseURL == "" {
		return nil, fmt.Errorf("config %s: provider.base_url is required unless provider.mock is set", path)
	}
	return cfg, nil
}

// Schedule converts the configured backoff override into a schedule, or nil
// when the default should apply.
func (c *Config) Schedule() backoff.Schedule {
	if len(c.BackoffSeconds) == 0 {
		return nil
	}
	s := make(backoff.Schedule, len(c.BackoffSeconds))
	for i, secs := range c.BackoffSeconds {
		s[i] = time.Duration(secs) * time.Second
	}
	return s
}
