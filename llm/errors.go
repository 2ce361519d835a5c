package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"
)

// Error represents a provider-neutral LLM error.
type Error struct {
	Type        ErrorType
	Message     string
	Retryable   bool
	RetryAfter  *time.Duration
	StatusCode  int
	ProviderErr error // Original provider-specific error
}

// ErrorType represents the category of error.
type ErrorType string

const (
	ErrorTypeRateLimit       ErrorType = "rate_limit"
	ErrorTypeRequestTooLarge ErrorType = "request_too_large"
	ErrorTypeInvalidRequest  ErrorType = "invalid_request"
	ErrorTypeProvider        ErrorType = "provider"
	ErrorTypeNetwork         ErrorType = "network"
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypeUnknown         ErrorType = "unknown"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ProviderErr != nil {
		return e.Message + ": " + e.ProviderErr.Error()
	}
	return e.Message
}

// Unwrap returns the underlying provider error.
func (e *Error) Unwrap() error {
	return e.ProviderErr
}

// IsRateLimitError checks if an error is a rate limit error.
func IsRateLimitError(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type == ErrorTypeRateLimit
	}
	return false
}

// IsRetryableError checks if an error is retryable.
func IsRetryableError(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}

// NewRateLimitError creates a new rate limit error. Rate limits are
// deliberately non-retryable: the controller fails fast instead of waiting
// out the provider window mid-stream.
func NewRateLimitError(message string, retryAfter *time.Duration, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeRateLimit,
		Message:     message,
		Retryable:   false,
		RetryAfter:  retryAfter,
		StatusCode:  429,
		ProviderErr: providerErr,
	}
}

// NewProviderError creates a new non-retryable provider error.
func NewProviderError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeProvider,
		Message:     message,
		Retryable:   false,
		ProviderErr: providerErr,
	}
}

// NewNetworkError creates a retryable network-level error.
func NewNetworkError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeNetwork,
		Message:     message,
		Retryable:   true,
		ProviderErr: providerErr,
	}
}

// RetryableStatus reports whether an HTTP status code belongs to the fixed
// retryable set: generic 500, the 502-504 gateway family, Cloudflare's
// 520-524 range and Anthropic's 529 overloaded code. Everything else,
// including 429, fails immediately.
func RetryableStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504, 529:
		return true
	}
	return code >= 520 && code <= 524
}

// ClassifyHTTPStatus turns a non-2xx response into a typed error, extracting
// any nested error detail from the provider body. Some providers
// double-encode the error payload (a JSON string containing JSON), so the
// extraction recurses one level.
func ClassifyHTTPStatus(status int, body []byte) *Error {
	detail := ExtractErrorDetail(body)
	if detail == "" {
		detail = strings.TrimSpace(string(body))
	}

	e := &Error{
		Message:    detail,
		StatusCode: status,
		Retryable:  RetryableStatus(status),
	}
	switch {
	case status == 429:
		e.Type = ErrorTypeRateLimit
	case status == 413:
		e.Type = ErrorTypeRequestTooLarge
	case status >= 400 && status < 500:
		e.Type = ErrorTypeInvalidRequest
	default:
		e.Type = ErrorTypeProvider
	}
	if e.Message == "" {
		e.Message = "provider returned HTTP " + strconv.Itoa(status)
	}
	return e
}

// ClassifyTransportError wraps a transport-level failure (connection reset,
// timeout, TLS failure) as retryable. Context cancellation is passed through
// untouched so callers can distinguish a user stop from a flaky network.
func ClassifyTransportError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Type: ErrorTypeTimeout, Message: "request timed out", Retryable: true, ProviderErr: err}
	}
	return NewNetworkError("network failure", err)
}

// ExtractErrorDetail digs the human-relevant message out of a provider error
// body. Handles {"error":{"message":...}}, {"error":"..."}, {"message":...}
// and one level of double JSON encoding.
func ExtractErrorDetail(body []byte) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if len(envelope.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
			return unwrapDoubleEncoded(nested.Message)
		}
		var plain string
		if err := json.Unmarshal(envelope.Error, &plain); err == nil {
			return unwrapDoubleEncoded(plain)
		}
	}
	return unwrapDoubleEncoded(envelope.Message)
}

// unwrapDoubleEncoded handles error messages that are themselves JSON error
// bodies, which some gateways produce when proxying upstream failures.
func unwrapDoubleEncoded(msg string) string {
	trimmed := strings.TrimSpace(msg)
	if strings.HasPrefix(trimmed, "{") {
		if inner := ExtractErrorDetail([]byte(trimmed)); inner != "" {
			return inner
		}
	}
	return msg
}
