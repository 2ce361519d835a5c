package llm

import "github.com/samber/lo"

// stopReasonByFinish normalizes provider finish reasons onto the canonical
// stop-reason vocabulary. Unknown reasons pass through untouched.
var stopReasonByFinish = map[string]string{
	"stop":           "end_turn",
	"length":         "max_tokens",
	"tool_calls":     "tool_use",
	"function_call":  "tool_use",
	"content_filter": "content_filter",
	"end_turn":       "end_turn",
	"max_tokens":     "max_tokens",
	"tool_use":       "tool_use",
	"stop_sequence":  "stop_sequence",
}

// NormalizeStopReason maps a provider finish reason to the canonical
// stop-reason value.
func NormalizeStopReason(finishReason string) string {
	if mapped, ok := stopReasonByFinish[finishReason]; ok {
		return mapped
	}
	return finishReason
}

// Standardize builds the canonical response from a terminal StreamingState.
// Absent content becomes an empty string and absent tool calls become an
// empty slice, never nil. Tool arguments flow through the JSON repair path;
// unparseable arguments degrade instead of failing the call.
func Standardize(state *StreamingState) *Response {
	resp := &Response{
		Content:      state.Content(),
		Model:        state.Model,
		Role:         RoleAssistant,
		StopReason:   NormalizeStopReason(state.FinishReason),
		FinishReason: state.FinishReason,
		Usage:        state.Usage,
		ToolCalls:    standardizeToolCalls(state.ToolCalls()),
	}
	return resp
}

func standardizeToolCalls(partials []PartialToolCall) []ToolCall {
	return lo.Map(partials, func(pt PartialToolCall, _ int) ToolCall {
		return ToolCall{
			ID:    pt.ID,
			Name:  pt.Name,
			Input: ParseToolInput(pt.Arguments),
		}
	})
}
