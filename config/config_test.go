package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/loicboutet/llm-toolkit-sub000/llm"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Providers) != 4 {
		t.Errorf("Providers = %v, want all four", cfg.Providers)
	}
	if cfg.Retry.MaxAttempts != llm.DefaultMaxAttempts {
		t.Errorf("MaxAttempts = %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Cache.BreakpointLimit != llm.DefaultBreakpointLimit {
		t.Errorf("BreakpointLimit = %d", cfg.Cache.BreakpointLimit)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
providers:
  - mistral
mistral:
  api_key: file-key
  model: mistral-large-latest
retry:
  max_attempts: 5
stream:
  throttle_ms: 250
tools:
  dangerous:
    - shell
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if len(cfg.Providers) != 1 || cfg.Providers[0] != llm.ProviderMistral {
		t.Errorf("Providers = %v, want file value", cfg.Providers)
	}
	if cfg.Mistral.APIKey != "file-key" {
		t.Errorf("Mistral.APIKey = %q", cfg.Mistral.APIKey)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want file value 5", cfg.Retry.MaxAttempts)
	}
	// Unset sections still come from defaults.
	if cfg.Retry.BaseDelayMS != int(llm.DefaultBaseDelay/time.Millisecond) {
		t.Errorf("BaseDelayMS = %d, want default", cfg.Retry.BaseDelayMS)
	}
	if cfg.Tools.MaxIterations != llm.DefaultMaxToolIterations {
		t.Errorf("MaxIterations = %d, want default", cfg.Tools.MaxIterations)
	}
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "providers: [unclosed")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRunnerConfigMapping(t *testing.T) {
	path := writeConfig(t, `
cache:
  disabled: true
stream:
  throttle_ms: 100
retry:
  max_attempts: 2
  base_delay_ms: 50
  max_delay_ms: 400
tools:
  max_iterations: 4
  dangerous:
    - rm
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	rc := cfg.RunnerConfig()
	if rc.CacheEnabled {
		t.Error("CacheEnabled = true, want disabled")
	}
	if rc.ThrottleInterval != 100*time.Millisecond {
		t.Errorf("ThrottleInterval = %v", rc.ThrottleInterval)
	}
	if rc.Retry.MaxAttempts != 2 || rc.Retry.BaseDelay != 50*time.Millisecond || rc.Retry.MaxDelay != 400*time.Millisecond {
		t.Errorf("Retry = %+v", rc.Retry)
	}
	if rc.MaxToolIterations != 4 {
		t.Errorf("MaxToolIterations = %d", rc.MaxToolIterations)
	}
	if len(rc.DangerousTools) != 1 || rc.DangerousTools[0] != "rm" {
		t.Errorf("DangerousTools = %v", rc.DangerousTools)
	}
}

func TestProviderConfigMapping(t *testing.T) {
	path := writeConfig(t, `
anthropic:
  api_key: ak
  model: am
openrouter:
  api_key: ok
  base_url: https://example.com/api/v1
  model: om
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	pc := cfg.ProviderConfig()
	if pc.AnthropicAPIKey != "ak" || pc.AnthropicModel != "am" {
		t.Errorf("anthropic mapping: %+v", pc)
	}
	if pc.OpenRouterBaseURL != "https://example.com/api/v1" || pc.OpenRouterModel != "om" {
		t.Errorf("openrouter mapping: %+v", pc)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Anthropic.APIKey = "saved-key"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Anthropic.APIKey != "saved-key" {
		t.Errorf("APIKey = %q after round trip", loaded.Anthropic.APIKey)
	}
}
