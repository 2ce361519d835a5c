// Package scaleway configures the OpenAI-compatible client for Scaleway's
// generative AI endpoints.
package scaleway

import (
	"github.com/rs/zerolog"

	"github.com/loicboutet/llm-toolkit-sub000/llm"
	"github.com/loicboutet/llm-toolkit-sub000/llm/openaicompat"
)

// DefaultBaseURL is the Scaleway generative APIs endpoint.
const DefaultBaseURL = "https://api.scaleway.ai/v1"

// NewClient creates a Scaleway client.
func NewClient(apiKey string, logger zerolog.Logger, opts ...openaicompat.Option) (*openaicompat.Client, error) {
	return openaicompat.NewClient(openaicompat.Quirks{
		Name:    llm.ProviderScaleway,
		BaseURL: DefaultBaseURL,
	}, apiKey, logger, opts...)
}
