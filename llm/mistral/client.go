// Package mistral configures the OpenAI-compatible client for the Mistral
// platform API. Mistral rejects content-block arrays where it expects plain
// strings, so cache markers are stripped, and it sometimes emits complete
// tool calls without IDs or indices; the shared adapter backfills both.
package mistral

import (
	"github.com/rs/zerolog"

	"github.com/loicboutet/llm-toolkit-sub000/llm"
	"github.com/loicboutet/llm-toolkit-sub000/llm/openaicompat"
)

// DefaultBaseURL is the Mistral API endpoint.
const DefaultBaseURL = "https://api.mistral.ai/v1"

// NewClient creates a Mistral client.
func NewClient(apiKey string, logger zerolog.Logger, opts ...openaicompat.Option) (*openaicompat.Client, error) {
	return openaicompat.NewClient(openaicompat.Quirks{
		Name:    llm.ProviderMistral,
		BaseURL: DefaultBaseURL,
	}, apiKey, logger, opts...)
}
