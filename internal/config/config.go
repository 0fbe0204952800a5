// Package config loads the loom configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure for loom.
type Config struct {
	Engine    EngineConfig              `yaml:"engine"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Tools     ToolsConfig               `yaml:"tools"`
	Store     StoreConfig               `yaml:"store"`
	Logging   LoggingConfig             `yaml:"logging"`
}

// EngineConfig tunes the call loop.
type EngineConfig struct {
	// DefaultProvider is used when a request names none.
	DefaultProvider string `yaml:"default_provider"`

	// CallTimeout bounds one provider call end to end.
	CallTimeout time.Duration `yaml:"call_timeout"`

	// MaxAttempts caps provider call attempts on network failures.
	MaxAttempts int `yaml:"max_attempts"`

	// RetryInitialDelay is the first backoff delay.
	RetryInitialDelay time.Duration `yaml:"retry_initial_delay"`

	// RetryMaxDelay caps the backoff delay.
	RetryMaxDelay time.Duration `yaml:"retry_max_delay"`
}

// ProviderConfig configures one provider integration.
type ProviderConfig struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
	BaseURL      string `yaml:"base_url"`

	// Streaming is the deployment-level streaming toggle.
	Streaming *bool `yaml:"streaming"`
}

// StreamingEnabled reports the toggle, defaulting to on.
func (p ProviderConfig) StreamingEnabled() bool {
	if p.Streaming == nil {
		return true
	}
	return *p.Streaming
}

// ToolsConfig configures tool execution.
type ToolsConfig struct {
	// Timeout bounds one tool execution.
	Timeout time.Duration `yaml:"timeout"`

	// Filter is the default tool filter applied to new conversations.
	Filter string `yaml:"filter"`
}

// StoreConfig configures conversation persistence.
type StoreConfig struct {
	// Path is the SQLite database file, ":memory:" for ephemeral.
	Path string `yaml:"path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the configuration file. Environment variables in the
// file are expanded before parsing, so secrets can stay out of the file
// itself.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Engine.DefaultProvider == "" {
		cfg.Engine.DefaultProvider = "anthropic"
	}
	if cfg.Engine.CallTimeout == 0 {
		cfg.Engine.CallTimeout = 60 * time.Second
	}
	if cfg.Engine.MaxAttempts == 0 {
		cfg.Engine.MaxAttempts = 3
	}
	if cfg.Engine.RetryInitialDelay == 0 {
		cfg.Engine.RetryInitialDelay = 100 * time.Millisecond
	}
	if cfg.Engine.RetryMaxDelay == 0 {
		cfg.Engine.RetryMaxDelay = 10 * time.Second
	}
	if cfg.Tools.Timeout == 0 {
		cfg.Tools.Timeout = 60 * time.Second
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "loom.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Engine.MaxAttempts < 1 {
		return fmt.Errorf("engine.max_attempts must be at least 1, got %d", c.Engine.MaxAttempts)
	}
	if c.Engine.CallTimeout < 0 {
		return fmt.Errorf("engine.call_timeout must not be negative")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format %q is not one of json, text", c.Logging.Format)
	}
	if len(c.Providers) > 0 {
		if _, ok := c.Providers[c.Engine.DefaultProvider]; !ok {
			return fmt.Errorf("engine.default_provider %q is not configured", c.Engine.DefaultProvider)
		}
	}
	return nil
}
