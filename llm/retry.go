package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	// DefaultMaxAttempts is the total number of attempts, including the first.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the first backoff interval.
	DefaultBaseDelay = 1 * time.Second
	// DefaultMaxDelay caps the backoff interval.
	DefaultMaxDelay = 8 * time.Second
	// retryRandomizationFactor applies the ±25% symmetric jitter.
	retryRandomizationFactor = 0.25
	// retryMultiplier doubles the delay between attempts.
	retryMultiplier = 2.0
)

// RetryPolicy configures the retry controller wrapped around one streaming
// adapter invocation.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns the process-wide default policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	return p
}

// newBackoff builds the exponential backoff used between retryable failures:
// delay = min(base * 2^(attempt-1), max) with ±25% jitter.
func (p RetryPolicy) newBackoff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.BaseDelay
	eb.Multiplier = retryMultiplier
	eb.RandomizationFactor = retryRandomizationFactor
	eb.MaxInterval = p.MaxDelay
	eb.MaxElapsedTime = 0 // attempts, not wall time, bound the loop
	eb.Reset()
	return eb
}

// StreamWithRetry invokes the adapter up to policy.MaxAttempts times.
// Network-level failures and the fixed retryable HTTP statuses are retried
// with exponential backoff; any other failure (all remaining 4xx, including
// 429) fails immediately. Each attempt starts from a fresh StreamingState
// inside the adapter: partial output from a failed attempt is discarded
// wholesale rather than resumed.
func StreamWithRetry(ctx context.Context, adapter StreamAdapter, req *Request, emit ChunkHandler, policy RetryPolicy, logger zerolog.Logger) (*Response, error) {
	policy = policy.withDefaults()
	b := policy.newBackoff()

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := adapter.Stream(ctx, req, emit)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !IsRetryableError(err) {
			return nil, err
		}
		if attempt == policy.MaxAttempts {
			break
		}

		delay := b.NextBackOff()
		if delay == backoff.Stop {
			break
		}
		logger.Warn().
			Str("provider", adapter.Provider()).
			Int("attempt", attempt).
			Int("max_attempts", policy.MaxAttempts).
			Dur("delay", delay).
			Err(err).
			Msg("Streaming attempt failed, retrying after delay")
		if err := waitForRetry(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("provider %s unavailable after %d attempts: %w", adapter.Provider(), policy.MaxAttempts, lastErr)
}

// waitForRetry sleeps for the backoff delay, respecting context cancellation.
func waitForRetry(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
