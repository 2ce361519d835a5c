package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestRetryableStatus(t *testing.T) {
	retryable := []int{500, 502, 503, 504, 520, 521, 522, 523, 524, 529}
	for _, code := range retryable {
		if !RetryableStatus(code) {
			t.Errorf("RetryableStatus(%d) = false, want true", code)
		}
	}
	notRetryable := []int{400, 401, 403, 404, 413, 422, 429, 501, 505, 525, 530}
	for _, code := range notRetryable {
		if RetryableStatus(code) {
			t.Errorf("RetryableStatus(%d) = true, want false", code)
		}
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantType      ErrorType
		wantRetryable bool
		wantMessage   string
	}{
		{
			name:          "rate limit fails fast",
			status:        429,
			body:          `{"error":{"message":"rate limit exceeded"}}`,
			wantType:      ErrorTypeRateLimit,
			wantRetryable: false,
			wantMessage:   "rate limit exceeded",
		},
		{
			name:          "server error retryable",
			status:        500,
			body:          `{"error":{"message":"internal error"}}`,
			wantType:      ErrorTypeProvider,
			wantRetryable: true,
			wantMessage:   "internal error",
		},
		{
			name:          "overloaded retryable",
			status:        529,
			body:          `{"error":{"type":"overloaded_error","message":"Overloaded"}}`,
			wantType:      ErrorTypeProvider,
			wantRetryable: true,
			wantMessage:   "Overloaded",
		},
		{
			name:          "request too large",
			status:        413,
			body:          `{"message":"payload too large"}`,
			wantType:      ErrorTypeRequestTooLarge,
			wantRetryable: false,
			wantMessage:   "payload too large",
		},
		{
			name:          "bad request",
			status:        400,
			body:          `{"error":"unknown parameter"}`,
			wantType:      ErrorTypeInvalidRequest,
			wantRetryable: false,
			wantMessage:   "unknown parameter",
		},
		{
			name:          "empty body falls back to status text",
			status:        503,
			body:          ``,
			wantType:      ErrorTypeProvider,
			wantRetryable: true,
			wantMessage:   "provider returned HTTP 503",
		},
		{
			name:          "non-JSON body used verbatim",
			status:        502,
			body:          "Bad Gateway",
			wantType:      ErrorTypeProvider,
			wantRetryable: true,
			wantMessage:   "Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyHTTPStatus(tt.status, []byte(tt.body))
			if err.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", err.Type, tt.wantType)
			}
			if err.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", err.Retryable, tt.wantRetryable)
			}
			if err.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMessage)
			}
			if err.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", err.StatusCode, tt.status)
			}
		})
	}
}

func TestExtractErrorDetailDoubleEncoded(t *testing.T) {
	body := `{"error":{"message":"{\"error\":{\"message\":\"upstream exploded\"}}"}}`
	if got := ExtractErrorDetail([]byte(body)); got != "upstream exploded" {
		t.Errorf("ExtractErrorDetail = %q, want upstream exploded", got)
	}
}

func TestClassifyTransportError(t *testing.T) {
	if ClassifyTransportError(nil) != nil {
		t.Error("nil error should stay nil")
	}

	if got := ClassifyTransportError(context.Canceled); !errors.Is(got, context.Canceled) {
		t.Errorf("context.Canceled not passed through: %v", got)
	}
	if got := ClassifyTransportError(fmt.Errorf("wrap: %w", context.DeadlineExceeded)); !errors.Is(got, context.DeadlineExceeded) {
		t.Errorf("context.DeadlineExceeded not passed through: %v", got)
	}

	timeoutErr := ClassifyTransportError(&fakeNetError{timeout: true})
	var typed *Error
	if !errors.As(timeoutErr, &typed) || typed.Type != ErrorTypeTimeout || !typed.Retryable {
		t.Errorf("timeout not classified: %v", timeoutErr)
	}

	netErr := ClassifyTransportError(errors.New("connection reset by peer"))
	if !IsRetryableError(netErr) {
		t.Errorf("network failure should be retryable: %v", netErr)
	}
}

func TestIsRateLimitError(t *testing.T) {
	rateLimited := NewRateLimitError("slow down", nil, nil)
	if !IsRateLimitError(rateLimited) {
		t.Error("rate limit error not detected")
	}
	if IsRetryableError(rateLimited) {
		t.Error("rate limit errors must not be retryable")
	}
	wrapped := fmt.Errorf("attempt failed: %w", rateLimited)
	if !IsRateLimitError(wrapped) {
		t.Error("wrapped rate limit error not detected")
	}
	if IsRateLimitError(errors.New("plain")) {
		t.Error("plain error misdetected as rate limit")
	}
}

type fakeNetError struct{ timeout bool }

func (e *fakeNetError) Error() string   { return "fake net error" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return false }
