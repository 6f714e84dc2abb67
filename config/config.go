// Package config loads service configuration from TOML files with
// environment variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vinayprograms/plankit/llm"
)

// Config is the full service configuration.
type Config struct {
	Service ServiceConfig          `toml:"service"`
	LLM     LLMConfig              `toml:"llm"`
	Events  EventsConfig           `toml:"events"`
	Booking BookingConfig          `toml:"booking"`
	Agents  map[string]AgentConfig `toml:"agents"`
}

// ServiceConfig holds HTTP server settings.
type ServiceConfig struct {
	// Addr is the listen address (host:port).
	Addr string `toml:"addr"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout duration `toml:"shutdown_timeout"`
}

// LLMConfig holds provider settings.
type LLMConfig struct {
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`
	MaxTokens int    `toml:"max_tokens"`
}

// ProviderConfig converts to the llm package's configuration.
func (c LLMConfig) ProviderConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider:  c.Provider,
		Model:     c.Model,
		APIKey:    c.APIKey,
		BaseURL:   c.BaseURL,
		MaxTokens: c.MaxTokens,
	}
}

// EventsConfig holds optional external event sinks.
type EventsConfig struct {
	// NATSURL enables the NATS sink when set.
	NATSURL string `toml:"nats_url"`

	// ExportEndpoint enables the batched HTTP export sink when set.
	ExportEndpoint string `toml:"export_endpoint"`
}

// BookingConfig holds the third-party booking provider settings.
type BookingConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// AgentConfig holds per-agent settings, keyed by agent ID in the file.
type AgentConfig struct {
	// Enabled controls whether the agent is registered at startup.
	Enabled bool `toml:"enabled"`

	// Priority orders the agent among resolution candidates.
	Priority int `toml:"priority"`

	// Settings carries agent-specific keys (e.g. batch_days).
	Settings map[string]string `toml:"settings"`
}

// duration wraps time.Duration for TOML string values like "30s".
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Addr:            ":8080",
			ShutdownTimeout: duration{30 * time.Second},
		},
		LLM: LLMConfig{
			MaxTokens: 4096,
		},
		Agents: map[string]AgentConfig{
			"planner": {Enabled: true, Priority: 10},
			"editor":  {Enabled: true, Priority: 10},
			"booking": {Enabled: true, Priority: 10},
			"indexer": {Enabled: true, Priority: 1},
		},
	}
}

// Load reads a TOML file over the defaults and applies environment
// overrides. Environment variables win over file values for secrets:
// PLANKIT_LLM_API_KEY and PLANKIT_BOOKING_API_KEY.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if v := os.Getenv("PLANKIT_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("PLANKIT_BOOKING_API_KEY"); v != "" {
		cfg.Booking.APIKey = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if c.Service.Addr == "" {
		return fmt.Errorf("service.addr is required")
	}
	if c.Service.ShutdownTimeout.Duration < 0 {
		return fmt.Errorf("service.shutdown_timeout must not be negative")
	}
	for id, a := range c.Agents {
		if a.Priority < 0 {
			return fmt.Errorf("agents.%s.priority must not be negative", id)
		}
	}
	return nil
}

// AgentEnabled reports whether an agent should be registered. Agents
// absent from the file are enabled with default settings.
func (c *Config) AgentEnabled(id string) bool {
	a, ok := c.Agents[id]
	if !ok {
		return true
	}
	return a.Enabled
}
