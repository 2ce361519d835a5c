package llm

import (
	"sort"
	"strings"
)

// StreamingState holds the mutable state of one in-flight streaming call.
// It is owned exclusively by that call: a fresh state is created per attempt
// (including retries) and discarded at the end. No synchronization is needed
// because chunk processing within a call is strictly sequential.
type StreamingState struct {
	// Model and GenerationID are set once from the first informative event
	// and are immutable thereafter.
	Model        string
	GenerationID string

	// Usage is overwritten as later, more complete usage data arrives.
	Usage *Usage

	// FinishReason is set at most once and is terminal.
	FinishReason string

	// ContentComplete becomes true on the terminal event. Once set, no
	// further content or tool-call mutations occur; only the final buffer
	// flush may still run.
	ContentComplete bool

	// LastError holds the message of an in-band provider error event.
	// Once set, no further content processing happens for this call.
	LastError string

	content   strings.Builder
	toolCalls map[int]*PartialToolCall
	buffer    string // raw undelimited bytes awaiting a line terminator
}

// NewStreamingState creates an empty state for one streaming call.
func NewStreamingState() *StreamingState {
	return &StreamingState{
		toolCalls: make(map[int]*PartialToolCall),
	}
}

// AppendContent appends a text delta to the accumulated assistant content.
// It is a no-op after the stream is complete or an in-band error arrived.
func (s *StreamingState) AppendContent(text string) {
	if s.ContentComplete || s.LastError != "" {
		return
	}
	s.content.WriteString(text)
}

// Content returns the assistant text accumulated so far.
func (s *StreamingState) Content() string {
	return s.content.String()
}

// SetModel records the model name from the first informative event.
func (s *StreamingState) SetModel(model string) {
	if s.Model == "" && model != "" {
		s.Model = model
	}
}

// SetGenerationID records the provider generation/message ID from the first
// informative event.
func (s *StreamingState) SetGenerationID(id string) {
	if s.GenerationID == "" && id != "" {
		s.GenerationID = id
	}
}

// SetUsage overwrites usage with the latest reported figures. Cumulative
// cache token counts from an earlier report are preserved when the newer
// report omits them.
func (s *StreamingState) SetUsage(u *Usage) {
	if u == nil {
		return
	}
	if s.Usage != nil {
		if u.InputTokens == 0 {
			u.InputTokens = s.Usage.InputTokens
		}
		if u.CacheCreationInputTokens == 0 {
			u.CacheCreationInputTokens = s.Usage.CacheCreationInputTokens
		}
		if u.CacheReadInputTokens == 0 {
			u.CacheReadInputTokens = s.Usage.CacheReadInputTokens
		}
	}
	s.Usage = u
}

// SetFinishReason records the terminal finish reason. Only the first call
// takes effect.
func (s *StreamingState) SetFinishReason(reason string) {
	if s.FinishReason == "" && reason != "" {
		s.FinishReason = reason
	}
}

// SetError records an in-band provider error. Content processing stops for
// the rest of the call.
func (s *StreamingState) SetError(msg string) {
	if s.LastError == "" && msg != "" {
		s.LastError = msg
	}
}

// ToolCalls returns the current merged tool calls ordered by stream index.
func (s *StreamingState) ToolCalls() []PartialToolCall {
	indices := make([]int, 0, len(s.toolCalls))
	for idx := range s.toolCalls {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	calls := make([]PartialToolCall, 0, len(indices))
	for _, idx := range indices {
		calls = append(calls, *s.toolCalls[idx])
	}
	return calls
}
