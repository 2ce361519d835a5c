package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// DefaultMaxToolIterations caps the tool execution loop for one turn.
const DefaultMaxToolIterations = 10

// RunnerConfig carries the process-wide knobs for one Runner, injected
// explicitly at construction rather than read from a global.
type RunnerConfig struct {
	MaxToolIterations int
	DangerousTools    []string // pause for approval instead of auto-executing
	CacheEnabled      bool
	BreakpointLimit   int
	Retry             RetryPolicy
	ThrottleInterval  time.Duration
}

func (c RunnerConfig) withDefaults() RunnerConfig {
	if c.MaxToolIterations <= 0 {
		c.MaxToolIterations = DefaultMaxToolIterations
	}
	if c.BreakpointLimit <= 0 {
		c.BreakpointLimit = DefaultBreakpointLimit
	}
	return c
}

// ToolApprovalError is returned when the model requested a tool from the
// dangerous list. The caller decides how to obtain approval and resume;
// the returned response contains the full pending tool call set.
type ToolApprovalError struct {
	Call ToolCall
}

func (e *ToolApprovalError) Error() string {
	return fmt.Sprintf("tool %q requires approval before execution", e.Call.Name)
}

// Runner executes one chat turn end to end: cache-breakpoint planning,
// the streaming call under retry, chunk persistence, and the tool loop with
// follow-up calls.
type Runner struct {
	client  Client
	tools   ToolExecutor
	sink    ChunkSink
	history HistorySupplier
	cfg     RunnerConfig
	logger  zerolog.Logger
}

// NewRunner constructs a Runner. tools, sink and history may be nil when the
// corresponding collaborator is not needed.
func NewRunner(client Client, tools ToolExecutor, sink ChunkSink, history HistorySupplier, cfg RunnerConfig, logger zerolog.Logger) *Runner {
	return &Runner{
		client:  client,
		tools:   tools,
		sink:    sink,
		history: history,
		cfg:     cfg.withDefaults(),
		logger:  logger.With().Str("component", "runner").Logger(),
	}
}

// RunTurn performs one user turn. When req.Messages is empty the history
// supplier provides the conversation snapshot. Chunks flow to emit (and the
// sink, when configured) as they arrive; the returned response is the final
// canonical response of the last follow-up call.
func (r *Runner) RunTurn(ctx context.Context, conversationID string, req *Request, emit ChunkHandler) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	messages := req.Messages
	if len(messages) == 0 && r.history != nil {
		snapshot, err := r.history.History(ctx, conversationID)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		messages = snapshot
	}

	seq := 0
	forward := func(chunk Chunk) {
		if r.sink != nil {
			if err := r.sink.AppendChunk(ctx, conversationID, seq, chunk); err != nil {
				r.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("Failed to persist chunk")
			}
		}
		seq++
		if emit != nil {
			emit(chunk)
		}
	}

	for iteration := 0; iteration < r.cfg.MaxToolIterations; iteration++ {
		working := messages
		if r.cfg.CacheEnabled {
			working = MarkBreakpoints(working, PlanBreakpoints(working, r.cfg.BreakpointLimit))
		}

		attempt := *req
		attempt.Messages = working

		throttled := NewThrottledEmitter(forward, r.cfg.ThrottleInterval)
		resp, err := StreamWithRetry(ctx, r.client, &attempt, throttled.Emit, r.cfg.Retry, r.logger)
		throttled.Flush()
		if err != nil {
			return nil, err
		}

		if len(resp.ToolCalls) == 0 || resp.StopReason != "tool_use" {
			return resp, nil
		}
		if r.tools == nil {
			return resp, nil
		}

		messages = append(messages, assistantMessageFromResponse(resp))

		results, pending, err := r.executeToolCalls(ctx, resp.ToolCalls)
		if err != nil {
			return resp, err
		}
		if len(results) > 0 {
			messages = append(messages, NewToolResultMessage(results))
		}
		if pending {
			// Asynchronous tool results arrive out of band; the follow-up
			// call happens when they do.
			return resp, nil
		}

		// Cancellation checkpoint before the follow-up call.
		if err := ctx.Err(); err != nil {
			return resp, err
		}
	}

	return nil, fmt.Errorf("tool loop exceeded %d iterations", r.cfg.MaxToolIterations)
}

// executeToolCalls runs each completed tool call, converting outcomes to
// tool result blocks. It reports whether any tool went asynchronous.
func (r *Runner) executeToolCalls(ctx context.Context, calls []ToolCall) ([]ToolResultBlock, bool, error) {
	results := make([]ToolResultBlock, 0, len(calls))
	pending := false

	for _, call := range calls {
		if r.isDangerous(call.Name) {
			r.logger.Info().Str("tool", call.Name).Msg("Dangerous tool requested, pausing for approval")
			return results, false, &ToolApprovalError{Call: call}
		}

		outcome, err := r.tools.Execute(ctx, call)
		if err != nil {
			results = append(results, ToolResultBlock{
				ID:      call.ID,
				Content: fmt.Sprintf("tool execution failed: %v", err),
				IsError: true,
			})
			continue
		}

		switch outcome.Kind {
		case ToolOutcomePending:
			pending = true
		case ToolOutcomeError:
			results = append(results, ToolResultBlock{
				ID:      call.ID,
				Content: outcome.ErrorMessage,
				IsError: true,
			})
		default:
			payload, err := json.Marshal(outcome.Result)
			if err != nil {
				payload = []byte(fmt.Sprintf("%v", outcome.Result))
			}
			results = append(results, ToolResultBlock{
				ID:      call.ID,
				Content: string(payload),
			})
		}
	}

	return results, pending, nil
}

func (r *Runner) isDangerous(tool string) bool {
	return lo.Contains(r.cfg.DangerousTools, tool)
}

// assistantMessageFromResponse rebuilds the assistant message (text plus
// tool use blocks) so the follow-up request carries what the model said.
func assistantMessageFromResponse(resp *Response) Message {
	content := make([]ContentBlock, 0, len(resp.ToolCalls)+1)
	if resp.Content != "" {
		content = append(content, ContentBlock{Type: ContentBlockTypeText, Text: resp.Content})
	}
	for _, call := range resp.ToolCalls {
		content = append(content, ContentBlock{
			Type: ContentBlockTypeToolUse,
			ToolUse: &ToolUseBlock{
				ID:    call.ID,
				Name:  call.Name,
				Input: call.Input,
			},
		})
	}
	return Message{Role: RoleAssistant, Content: content}
}
