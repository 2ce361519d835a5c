package llm

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantContain string
	}{
		{
			name:        "rate limit",
			raw:         "429 Too Many Requests: rate_limit_error",
			wantContain: "rate limiting",
		},
		{
			name:        "authentication",
			raw:         "invalid x-api-key",
			wantContain: "API credentials",
		},
		{
			name:        "context length",
			raw:         "prompt is too long: 210000 tokens > 200000 maximum",
			wantContain: "context limit",
		},
		{
			name:        "content filter",
			raw:         "Output blocked by content filter policy",
			wantContain: "content filter",
		},
		{
			name:        "tools unsupported",
			raw:         "this model does not support tools",
			wantContain: "tool calling",
		},
		{
			name:        "timeout",
			raw:         "context deadline exceeded",
			wantContain: "timed out",
		},
		{
			name:        "model not found",
			raw:         `{"type":"not_found_error"} model_not_found`,
			wantContain: "not available",
		},
		{
			name:        "overloaded",
			raw:         "overloaded_error: Overloaded",
			wantContain: "overloaded",
		},
		{
			name:        "unknown falls back to generic",
			raw:         "something novel went wrong",
			wantContain: "unexpected error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranslateError(tt.raw)
			if got == nil {
				t.Fatal("TranslateError returned nil")
			}
			if !strings.Contains(got.Message, tt.wantContain) {
				t.Errorf("Message = %q, want substring %q", got.Message, tt.wantContain)
			}
			if got.Raw != tt.raw {
				t.Errorf("Raw = %q, want %q", got.Raw, tt.raw)
			}
			if got.Suggestion == "" {
				t.Error("Suggestion is empty")
			}
		})
	}
}

func TestTranslateTerminalError(t *testing.T) {
	t.Run("unauthorized status", func(t *testing.T) {
		err := ClassifyHTTPStatus(401, []byte(`{"error":{"message":"invalid request"}}`))
		got := TranslateTerminalError(err)
		if got == nil {
			t.Fatal("TranslateTerminalError returned nil")
		}
		if !strings.Contains(got.Message, "API credentials") {
			t.Errorf("Message = %q, want credentials explanation", got.Message)
		}
		if got.Suggestion == "" {
			t.Error("Suggestion is empty")
		}
	})

	t.Run("wrapped exhausted retries", func(t *testing.T) {
		base := ClassifyHTTPStatus(503, []byte("Service Unavailable"))
		wrapped := fmt.Errorf("provider anthropic unavailable after 3 attempts: %w", base)
		got := TranslateTerminalError(wrapped)
		if got == nil {
			t.Fatal("TranslateTerminalError returned nil for wrapped error")
		}
		if got.Suggestion == "" {
			t.Error("Suggestion is empty")
		}
	})

	t.Run("user facing error passes through", func(t *testing.T) {
		ue := TranslateError("rate limit exceeded")
		got := TranslateTerminalError(fmt.Errorf("turn failed: %w", ue))
		if got != ue {
			t.Errorf("got %v, want the wrapped UserFacingError unchanged", got)
		}
	})

	t.Run("non provider error returns nil", func(t *testing.T) {
		if got := TranslateTerminalError(errors.New("failed to load configuration")); got != nil {
			t.Errorf("got %v, want nil for non-provider error", got)
		}
	})

	t.Run("nil error", func(t *testing.T) {
		if got := TranslateTerminalError(nil); got != nil {
			t.Errorf("got %v, want nil", got)
		}
	})
}
