package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/loicboutet/llm-toolkit-sub000/llm"
	"github.com/loicboutet/llm-toolkit-sub000/llm/anthropic"
	"github.com/loicboutet/llm-toolkit-sub000/llm/mistral"
	"github.com/loicboutet/llm-toolkit-sub000/llm/openaicompat"
	"github.com/loicboutet/llm-toolkit-sub000/llm/openrouter"
	"github.com/loicboutet/llm-toolkit-sub000/llm/scaleway"
)

// NewRegistry builds a provider registry from the loaded configuration.
func NewRegistry(cfg *Config) *llm.ProviderRegistry {
	return llm.NewProviderRegistry(cfg.ProviderConfig(), cfg.Providers)
}

// NewClient constructs the client for a resolved provider key.
func NewClient(key *llm.ClientKey, logger zerolog.Logger) (llm.Client, error) {
	switch key.Provider {
	case llm.ProviderAnthropic:
		var opts []anthropic.Option
		if key.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(key.BaseURL))
		}
		return anthropic.NewClient(key.APIKey, logger, opts...)
	case llm.ProviderOpenRouter:
		return openrouter.NewClient(key.APIKey, logger, compatOpts(key)...)
	case llm.ProviderMistral:
		return mistral.NewClient(key.APIKey, logger, compatOpts(key)...)
	case llm.ProviderScaleway:
		return scaleway.NewClient(key.APIKey, logger, compatOpts(key)...)
	default:
		return nil, fmt.Errorf("unknown provider: %s", key.Provider)
	}
}

func compatOpts(key *llm.ClientKey) []openaicompat.Option {
	var opts []openaicompat.Option
	if key.BaseURL != "" {
		opts = append(opts, openaicompat.WithBaseURL(key.BaseURL))
	}
	return opts
}
