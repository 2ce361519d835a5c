package anthropic

import "encoding/json"

// Wire structs for the Anthropic messages SSE protocol. The official SDK's
// event unions are only decodable through its own transport, and this
// adapter owns the SSE read loop itself, so the event payloads are decoded
// with plain structs. Unknown fields are ignored, missing fields defaulted.

type streamEvent struct {
	Type         string           `json:"type"`
	Index        int              `json:"index"`
	Message      *messagePayload  `json:"message,omitempty"`
	ContentBlock *contentPayload  `json:"content_block,omitempty"`
	Delta        *deltaPayload    `json:"delta,omitempty"`
	Usage        *usagePayload    `json:"usage,omitempty"`
	Error        *errorPayload    `json:"error,omitempty"`
}

type messagePayload struct {
	ID           string        `json:"id"`
	Model        string        `json:"model"`
	StopReason   string        `json:"stop_reason"`
	StopSequence string        `json:"stop_sequence"`
	Usage        *usagePayload `json:"usage,omitempty"`
}

type contentPayload struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Text  string          `json:"text"`
	Input json.RawMessage `json:"input,omitempty"`
}

type deltaPayload struct {
	Type         string `json:"type"`
	Text         string `json:"text"`
	PartialJSON  string `json:"partial_json"`
	StopReason   string `json:"stop_reason"`
	StopSequence string `json:"stop_sequence"`
}

type usagePayload struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// messageResponse is the non-streaming /v1/messages response body.
type messageResponse struct {
	ID           string           `json:"id"`
	Model        string           `json:"model"`
	Role         string           `json:"role"`
	Content      []contentPayload `json:"content"`
	StopReason   string           `json:"stop_reason"`
	StopSequence string           `json:"stop_sequence"`
	Usage        *usagePayload    `json:"usage,omitempty"`
}
