package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/loicboutet/llm-toolkit-sub000/llm"
)

// AnthropicConfig represents configuration for the Anthropic provider.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key,omitempty"` // Falls back to ANTHROPIC_API_KEY
	Model  string `yaml:"model,omitempty"`   // Default model name
}

// OpenRouterConfig represents configuration for the OpenRouter provider.
type OpenRouterConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`  // Falls back to OPENROUTER_API_KEY
	BaseURL string `yaml:"base_url,omitempty"` // Custom base URL (default: official API)
	Model   string `yaml:"model,omitempty"`    // Default model name
}

// MistralConfig represents configuration for the Mistral provider.
type MistralConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`  // Falls back to MISTRAL_API_KEY
	BaseURL string `yaml:"base_url,omitempty"` // Custom base URL (default: official API)
	Model   string `yaml:"model,omitempty"`    // Default model name
}

// ScalewayConfig represents configuration for the Scaleway provider.
type ScalewayConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`  // Falls back to SCW_SECRET_KEY
	BaseURL string `yaml:"base_url,omitempty"` // Custom base URL (default: official API)
	Model   string `yaml:"model,omitempty"`    // Default model name
}

// RetryConfig tunes retry behavior for transient provider failures.
// Delays are in milliseconds.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts,omitempty"` // Total attempts including the first
	BaseDelayMS int `yaml:"base_delay_ms,omitempty"`
	MaxDelayMS  int `yaml:"max_delay_ms,omitempty"`
}

// CacheConfig tunes prompt-cache breakpoint placement.
type CacheConfig struct {
	Disabled        bool `yaml:"disabled,omitempty"`         // Caching is on by default
	BreakpointLimit int  `yaml:"breakpoint_limit,omitempty"` // Max markers per request
}

// StreamConfig tunes streaming delivery to the caller.
type StreamConfig struct {
	ThrottleMS int `yaml:"throttle_ms,omitempty"` // Min interval between content chunks (0 = unthrottled)
}

// ToolsConfig tunes tool-call execution during a conversation turn.
type ToolsConfig struct {
	Dangerous     []string `yaml:"dangerous,omitempty"`      // Tool names that need approval before running
	MaxIterations int      `yaml:"max_iterations,omitempty"` // Max tool round-trips per turn
}

// RecordConfig configures conversation recording.
type RecordConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	DBPath  string `yaml:"db_path,omitempty"` // SQLite file (default: <config dir>/conversations.db)
}

// Config is the top-level configuration file.
type Config struct {
	// Ordered list of enabled providers, first configured one wins.
	Providers []string `yaml:"providers,omitempty"`

	Anthropic  AnthropicConfig  `yaml:"anthropic,omitempty"`
	OpenRouter OpenRouterConfig `yaml:"openrouter,omitempty"`
	Mistral    MistralConfig    `yaml:"mistral,omitempty"`
	Scaleway   ScalewayConfig   `yaml:"scaleway,omitempty"`

	Retry  RetryConfig  `yaml:"retry,omitempty"`
	Cache  CacheConfig  `yaml:"cache,omitempty"`
	Stream StreamConfig `yaml:"stream,omitempty"`
	Tools  ToolsConfig  `yaml:"tools,omitempty"`
	Record RecordConfig `yaml:"record,omitempty"`

	LogLevel string `yaml:"log_level,omitempty"` // trace, debug, info, warn, error
	LogFile  string `yaml:"log_file,omitempty"`
}

// DefaultConfig returns the built-in defaults. A loaded config file is
// merged on top of these.
func DefaultConfig() *Config {
	return &Config{
		Providers: []string{
			llm.ProviderAnthropic,
			llm.ProviderOpenRouter,
			llm.ProviderMistral,
			llm.ProviderScaleway,
		},
		Retry: RetryConfig{
			MaxAttempts: llm.DefaultMaxAttempts,
			BaseDelayMS: int(llm.DefaultBaseDelay / time.Millisecond),
			MaxDelayMS:  int(llm.DefaultMaxDelay / time.Millisecond),
		},
		Cache: CacheConfig{
			BreakpointLimit: llm.DefaultBreakpointLimit,
		},
		Tools: ToolsConfig{
			MaxIterations: llm.DefaultMaxToolIterations,
		},
		LogLevel: "info",
	}
}

// LoadConfig reads the config file at path and merges it over the defaults.
// A missing file is not an error: defaults apply.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(expandPath(path))
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Fill gaps from defaults; file values take precedence.
	if err := mergo.Merge(cfg, DefaultConfig()); err != nil {
		return nil, fmt.Errorf("failed to merge defaults: %w", err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to the specified path.
func SaveConfig(cfg *Config, path string) error {
	expandedPath := expandPath(path)

	dir := filepath.Dir(expandedPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(expandedPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetConfigPath returns the default config file path.
// Can be overridden via LLM_TOOLKIT_CONFIG_PATH environment variable.
func GetConfigPath() string {
	if envPath := os.Getenv("LLM_TOOLKIT_CONFIG_PATH"); envPath != "" {
		return expandPath(envPath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.llm-toolkit/config.yaml"
	}
	return filepath.Join(homeDir, ".llm-toolkit", "config.yaml")
}

// DefaultDBPath returns the conversation database path, next to the config
// file unless overridden.
func (c *Config) DefaultDBPath() string {
	if c.Record.DBPath != "" {
		return expandPath(c.Record.DBPath)
	}
	return filepath.Join(filepath.Dir(GetConfigPath()), "conversations.db")
}

// ProviderConfig maps the file configuration onto the registry's view of
// provider credentials and endpoints.
func (c *Config) ProviderConfig() *llm.ProviderConfig {
	return &llm.ProviderConfig{
		AnthropicAPIKey: c.Anthropic.APIKey,
		AnthropicModel:  c.Anthropic.Model,

		OpenRouterAPIKey:  c.OpenRouter.APIKey,
		OpenRouterBaseURL: c.OpenRouter.BaseURL,
		OpenRouterModel:   c.OpenRouter.Model,

		MistralAPIKey:  c.Mistral.APIKey,
		MistralBaseURL: c.Mistral.BaseURL,
		MistralModel:   c.Mistral.Model,

		ScalewayAPIKey:  c.Scaleway.APIKey,
		ScalewayBaseURL: c.Scaleway.BaseURL,
		ScalewayModel:   c.Scaleway.Model,
	}
}

// RetryPolicy maps the retry section onto the runtime policy.
func (c *Config) RetryPolicy() llm.RetryPolicy {
	return llm.RetryPolicy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   time.Duration(c.Retry.BaseDelayMS) * time.Millisecond,
		MaxDelay:    time.Duration(c.Retry.MaxDelayMS) * time.Millisecond,
	}
}

// RunnerConfig maps the cache, stream, and tools sections onto the
// conversation runner's configuration.
func (c *Config) RunnerConfig() llm.RunnerConfig {
	return llm.RunnerConfig{
		MaxToolIterations: c.Tools.MaxIterations,
		DangerousTools:    c.Tools.Dangerous,
		CacheEnabled:      !c.Cache.Disabled,
		BreakpointLimit:   c.Cache.BreakpointLimit,
		Retry:             c.RetryPolicy(),
		ThrottleInterval:  time.Duration(c.Stream.ThrottleMS) * time.Millisecond,
	}
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
