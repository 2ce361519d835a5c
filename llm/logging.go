package llm

import (
	"context"

	"github.com/rs/zerolog"
)

// NewLoggingMiddleware returns middleware that logs every request and final
// response at debug level, including cache-efficiency figures when the
// provider reported them.
func NewLoggingMiddleware(logger zerolog.Logger) Middleware {
	log := logger.With().Str("component", "llm").Logger()
	return MiddlewareFunc{
		BeforeRequestFunc: func(ctx context.Context, req *Request) (*Request, error) {
			log.Debug().
				Str("model", req.Model).
				Int("messages", len(req.Messages)).
				Int("tools", len(req.Tools)).
				Msg("Sending LLM request")
			return req, nil
		},
		AfterResponseFunc: func(ctx context.Context, req *Request, resp *Response) (*Response, error) {
			ev := log.Debug().
				Str("model", resp.Model).
				Str("stop_reason", resp.StopReason).
				Int("tool_calls", len(resp.ToolCalls))
			if u := resp.Usage; u != nil {
				ev = ev.Int64("input_tokens", u.InputTokens).Int64("output_tokens", u.OutputTokens)
				if u.CacheCreationInputTokens > 0 || u.CacheReadInputTokens > 0 {
					cacheEfficiency := float64(0)
					if u.InputTokens > 0 {
						cacheEfficiency = float64(u.CacheReadInputTokens) / float64(u.InputTokens) * 100
					}
					ev = ev.
						Int64("cache_creation_tokens", u.CacheCreationInputTokens).
						Int64("cache_read_tokens", u.CacheReadInputTokens).
						Float64("cache_efficiency", cacheEfficiency)
				}
			}
			ev.Msg("LLM response complete")
			return resp, nil
		},
		OnErrorFunc: func(ctx context.Context, req *Request, err error) error {
			log.Warn().Err(err).Str("model", req.Model).Msg("LLM request failed")
			return err
		},
	}
}
