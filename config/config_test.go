package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plankit.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
[service]
addr = ":9090"
shutdown_timeout = "10s"

[llm]
provider = "anthropic"
model = "claude-sonnet-4-20250514"
api_key = "file-key"
max_tokens = 2048

[events]
nats_url = "nats://localhost:4222"

[agents.booking]
enabled = false
priority = 5

[agents.planner]
enabled = true
priority = 3

  [agents.planner.settings]
  batch_days = "2"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Service.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Service.Addr)
	}
	if cfg.Service.ShutdownTimeout.Duration != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.Service.ShutdownTimeout.Duration)
	}
	if cfg.LLM.Model != "claude-sonnet-4-20250514" || cfg.LLM.MaxTokens != 2048 {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.Events.NATSURL == "" {
		t.Error("NATSURL should be set")
	}
	if cfg.AgentEnabled("booking") {
		t.Error("booking should be disabled")
	}
	if !cfg.AgentEnabled("planner") || cfg.Agents["planner"].Settings["batch_days"] != "2" {
		t.Errorf("planner = %+v", cfg.Agents["planner"])
	}
	// Agents not mentioned stay enabled.
	if !cfg.AgentEnabled("editor") {
		t.Error("unmentioned agent should default to enabled")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Service.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Service.Addr)
	}
	if !cfg.AgentEnabled("indexer") {
		t.Error("indexer should default to enabled")
	}
}

func TestLoad_EnvOverridesKey(t *testing.T) {
	path := writeConfig(t, `
[llm]
api_key = "file-key"
`)
	t.Setenv("PLANKIT_LLM_API_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env-key", cfg.LLM.APIKey)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
[service]
shutdown_timeout = "not-a-duration"
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for bad duration")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/no/such/file.toml"); err == nil {
		t.Error("expected error for missing file")
	}
}
