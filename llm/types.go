package llm

import (
	"encoding/json"
	"strings"
)

// MessageRole represents the role of a message in a conversation.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
	RoleTool      MessageRole = "tool"
)

// Message represents a single message in a conversation.
// This is provider-neutral and can represent user, assistant, system or tool messages.
type Message struct {
	Role    MessageRole
	Content []ContentBlock
}

// ContentBlock represents a single content block within a message.
// It can be text, a tool use, or a tool result. CacheBreakpoint marks the
// block as a prompt-cache boundary; providers that cannot express cache
// markers drop it silently.
type ContentBlock struct {
	Type            ContentBlockType
	Text            string           // For text blocks
	ToolUse         *ToolUseBlock    // For tool use blocks
	ToolResult      *ToolResultBlock // For tool result blocks
	CacheBreakpoint bool
}

// ContentBlockType represents the type of content block.
type ContentBlockType string

const (
	ContentBlockTypeText       ContentBlockType = "text"
	ContentBlockTypeToolUse    ContentBlockType = "tool_use"
	ContentBlockTypeToolResult ContentBlockType = "tool_result"
)

// ToolUseBlock represents a tool invocation request from the assistant.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input map[string]interface{} // JSON-serializable input parameters
}

// ToolResultBlock represents the result of a tool invocation.
type ToolResultBlock struct {
	ID      string
	Content string // JSON-serialized result
	IsError bool
}

// ToolSpec represents a tool definition that can be provided to an LLM.
type ToolSpec struct {
	Name        string
	Description string
	Schema      ToolSchema
}

// ToolSchema represents the JSON schema for a tool's input parameters.
type ToolSchema struct {
	Type        string
	Properties  map[string]interface{}
	Required    []string
	ExtraFields map[string]interface{} // For any additional schema fields
}

// Request represents a complete LLM API request.
type Request struct {
	Model       string
	Messages    []Message
	System      string
	Tools       []ToolSpec
	MaxTokens   int64
	Temperature *float64 // Optional temperature override
}

// Response is the canonical response shape. It is the only shape callers
// outside this package tree ever see, independent of originating provider.
// Content is never absent-for-nil and ToolCalls is never nil.
type Response struct {
	Content      string
	Model        string
	Role         MessageRole
	StopReason   string
	StopSequence string
	ToolCalls    []ToolCall
	Usage        *Usage
	FinishReason string
}

// ToolCall is a completed, parseable tool invocation in a canonical response.
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// Usage represents token usage information from an LLM response.
type Usage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

// ChunkType represents the type of normalized chunk event emitted while streaming.
type ChunkType string

const (
	ChunkTypeContent        ChunkType = "content"
	ChunkTypeToolCallUpdate ChunkType = "tool_call_update"
	ChunkTypeFinish         ChunkType = "finish"
	ChunkTypeError          ChunkType = "error"
)

// Chunk is a normalized streaming event handed to the caller as it arrives.
type Chunk struct {
	Type         ChunkType
	Text         string            // For content chunks
	ToolCalls    []PartialToolCall // Current merged set for tool_call_update chunks
	FinishReason string            // For finish chunks
	Usage        *Usage            // For finish chunks, when the provider reported usage
	Err          *UserFacingError  // For error chunks
}

// ChunkHandler receives normalized chunks. Emission is a synchronous hand-off:
// a slow handler backpressures the HTTP read loop.
type ChunkHandler func(Chunk)

// NewTextMessage creates a new message with a single text content block.
func NewTextMessage(role MessageRole, text string) Message {
	return Message{
		Role: role,
		Content: []ContentBlock{
			{
				Type: ContentBlockTypeText,
				Text: text,
			},
		},
	}
}

// NewToolUseMessage creates a new assistant message with tool use blocks.
func NewToolUseMessage(toolUses []ToolUseBlock) Message {
	content := make([]ContentBlock, len(toolUses))
	for i, tu := range toolUses {
		content[i] = ContentBlock{
			Type:    ContentBlockTypeToolUse,
			ToolUse: &tu,
		}
	}
	return Message{
		Role:    RoleAssistant,
		Content: content,
	}
}

// NewToolResultMessage creates a new user message with tool result blocks.
func NewToolResultMessage(toolResults []ToolResultBlock) Message {
	content := make([]ContentBlock, len(toolResults))
	for i, tr := range toolResults {
		content[i] = ContentBlock{
			Type:       ContentBlockTypeToolResult,
			ToolResult: &tr,
		}
	}
	return Message{
		Role:    RoleUser,
		Content: content,
	}
}

// Text returns the concatenated text of all text blocks in the message.
func (m Message) Text() string {
	var b strings.Builder
	for _, block := range m.Content {
		if block.Type == ContentBlockTypeText {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// HasText reports whether the message contains at least one text block with
// non-blank content.
func (m Message) HasText() bool {
	for _, block := range m.Content {
		if block.Type == ContentBlockTypeText && strings.TrimSpace(block.Text) != "" {
			return true
		}
	}
	return false
}

// ToJSON marshals a message to JSON for debugging/logging purposes.
func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
