// Package openrouter configures the OpenAI-compatible client for the
// OpenRouter aggregator. OpenRouter forwards Anthropic-style cache_control
// markers to upstream models that honor them, so prompt caching stays on.
package openrouter

import (
	"github.com/rs/zerolog"

	"github.com/loicboutet/llm-toolkit-sub000/llm"
	"github.com/loicboutet/llm-toolkit-sub000/llm/openaicompat"
)

// DefaultBaseURL is the OpenRouter API endpoint.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// NewClient creates an OpenRouter client.
func NewClient(apiKey string, logger zerolog.Logger, opts ...openaicompat.Option) (*openaicompat.Client, error) {
	return openaicompat.NewClient(openaicompat.Quirks{
		Name:                 llm.ProviderOpenRouter,
		BaseURL:              DefaultBaseURL,
		SupportsCacheControl: true,
		ExtraHeaders: map[string]string{
			"X-Title": "llm-toolkit",
		},
	}, apiKey, logger, opts...)
}
