package llm

import (
	"errors"
	"strconv"
	"strings"
)

// UserFacingError is the short, human-readable shape every terminal failure
// is reduced to before reaching a UI or persistence path. Raw keeps the
// original provider text for logs; it is never shown to end users.
type UserFacingError struct {
	Message    string
	Suggestion string
	Raw        string
}

func (e *UserFacingError) Error() string {
	return e.Message
}

type errorPattern struct {
	substrings []string
	message    string
	suggestion string
}

// Matching is ordered: more specific patterns first.
var errorPatterns = []errorPattern{
	{
		substrings: []string{"rate limit", "rate_limit", "too many requests", "429"},
		message:    "The AI provider is rate limiting requests right now.",
		suggestion: "Wait a minute and try again.",
	},
	{
		substrings: []string{"invalid api key", "invalid x-api-key", "unauthorized", "authentication", "401", "403"},
		message:    "The provider rejected the configured API credentials.",
		suggestion: "Check the API key in your configuration or contact your administrator.",
	},
	{
		substrings: []string{"context length", "context_length", "maximum context", "too many tokens", "prompt is too long"},
		message:    "This conversation has grown past the model's context limit.",
		suggestion: "Start a new conversation.",
	},
	{
		substrings: []string{"content filter", "content_filter", "flagged", "usage policy", "safety"},
		message:    "The provider's content filter blocked this response.",
		suggestion: "Rephrase the request and try again.",
	},
	{
		substrings: []string{"tool use", "tool_use", "function calling", "tools are not supported", "does not support tools"},
		message:    "The selected model does not support tool calling.",
		suggestion: "Switch to a model with tool support or disable tools.",
	},
	{
		substrings: []string{"timeout", "timed out", "deadline exceeded"},
		message:    "The request to the AI provider timed out.",
		suggestion: "Try again.",
	},
	{
		substrings: []string{"model_not_found", "model not found", "no such model", "unknown model"},
		message:    "The configured model is not available from this provider.",
		suggestion: "Pick a different model in your configuration.",
	},
	{
		substrings: []string{"overloaded", "overloaded_error", "capacity"},
		message:    "The AI provider is temporarily overloaded.",
		suggestion: "Try again shortly.",
	},
}

// TranslateError maps a raw provider or in-band stream error onto a known
// pattern, falling back to a generic explanation. It never returns nil.
func TranslateError(raw string) *UserFacingError {
	lowered := strings.ToLower(raw)
	for _, p := range errorPatterns {
		for _, sub := range p.substrings {
			if strings.Contains(lowered, sub) {
				return &UserFacingError{Message: p.message, Suggestion: p.suggestion, Raw: raw}
			}
		}
	}
	return &UserFacingError{
		Message:    "The AI provider returned an unexpected error.",
		Suggestion: "Try again, or contact your administrator if the problem persists.",
		Raw:        raw,
	}
}

// TranslateTerminalError reduces a terminal streaming failure (non-2xx
// preflight, exhausted retries, transport failure) to the same user-facing
// shape as in-band stream errors. It returns nil when err did not come from
// the provider path, so callers can fall back to printing err directly.
func TranslateTerminalError(err error) *UserFacingError {
	if err == nil {
		return nil
	}
	var ue *UserFacingError
	if errors.As(err, &ue) {
		return ue
	}
	var llmErr *Error
	if !errors.As(err, &llmErr) {
		return nil
	}
	raw := llmErr.Error()
	if llmErr.StatusCode != 0 {
		// The status code is part of the matchable text: bodies like
		// "invalid request" alone carry no category.
		raw = strconv.Itoa(llmErr.StatusCode) + " " + raw
	}
	return TranslateError(raw)
}
