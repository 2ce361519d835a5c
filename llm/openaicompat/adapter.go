package openaicompat

import (
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/loicboutet/llm-toolkit-sub000/llm"
)

// ToChatMessages converts provider-neutral messages to the OpenAI chat
// format. The second return value lists the wire indices of messages that
// carry a cache breakpoint, for providers that can express one.
//
// Tool results become role "tool" messages with plain-string content: that
// role cannot carry content-block arrays on these APIs, so any marker on it
// is dropped rather than risking an invalid request.
func ToChatMessages(req *llm.Request) ([]openai.ChatCompletionMessage, []int) {
	out := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	var marked []int

	if req.System != "" {
		// The system prompt is cached independently: its marker is always
		// present and consumes the reserved slot.
		marked = append(marked, 0)
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	for _, msg := range req.Messages {
		hasBreakpoint := false
		var toolCalls []openai.ToolCall
		var toolResults []llm.ToolResultBlock

		for _, block := range msg.Content {
			switch block.Type {
			case llm.ContentBlockTypeText:
				if block.CacheBreakpoint {
					hasBreakpoint = true
				}
			case llm.ContentBlockTypeToolUse:
				if block.ToolUse != nil {
					args, err := json.Marshal(block.ToolUse.Input)
					if err != nil {
						args = []byte("{}")
					}
					toolCalls = append(toolCalls, openai.ToolCall{
						ID:   block.ToolUse.ID,
						Type: openai.ToolTypeFunction,
						Function: openai.FunctionCall{
							Name:      block.ToolUse.Name,
							Arguments: string(args),
						},
					})
				}
			case llm.ContentBlockTypeToolResult:
				if block.ToolResult != nil {
					toolResults = append(toolResults, *block.ToolResult)
				}
			}
		}

		// Tool results are standalone messages on this wire format.
		for _, tr := range toolResults {
			content := tr.Content
			if tr.IsError {
				content = fmt.Sprintf("error: %s", tr.Content)
			}
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: tr.ID,
				Content:    content,
			})
		}

		text := msg.Text()
		if text == "" && len(toolCalls) == 0 {
			continue
		}
		if hasBreakpoint {
			marked = append(marked, len(out))
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:      toWireRole(msg.Role),
			Content:   text,
			ToolCalls: toolCalls,
		})
	}

	return out, marked
}

func toWireRole(role llm.MessageRole) string {
	switch role {
	case llm.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case llm.RoleSystem:
		return openai.ChatMessageRoleSystem
	case llm.RoleTool:
		return openai.ChatMessageRoleTool
	default:
		return openai.ChatMessageRoleUser
	}
}

// ToTools converts tool specs to the OpenAI function-tool format.
func ToTools(specs []llm.ToolSpec) []openai.Tool {
	if len(specs) == 0 {
		return nil
	}
	tools := make([]openai.Tool, 0, len(specs))
	for _, spec := range specs {
		schemaType := spec.Schema.Type
		if schemaType == "" {
			schemaType = "object"
		}
		schema := map[string]interface{}{
			"type":       schemaType,
			"properties": spec.Schema.Properties,
		}
		if len(spec.Schema.Required) > 0 {
			schema["required"] = spec.Schema.Required
		}
		for k, v := range spec.Schema.ExtraFields {
			schema[k] = v
		}
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  schema,
			},
		})
	}
	return tools
}

// applyCacheControl rewrites marked messages in the already-marshaled
// request payload: plain-string content becomes a single-element content
// block array with a cache_control annotation on it, matching the
// Anthropic-style marker OpenRouter forwards upstream. Role "tool" entries
// are never rewritten.
func applyCacheControl(payload map[string]interface{}, marked []int) {
	if len(marked) == 0 {
		return
	}
	messages, ok := payload["messages"].([]interface{})
	if !ok {
		return
	}
	for _, idx := range marked {
		if idx < 0 || idx >= len(messages) {
			continue
		}
		msg, ok := messages[idx].(map[string]interface{})
		if !ok {
			continue
		}
		if role, _ := msg["role"].(string); role == "tool" {
			continue
		}
		switch content := msg["content"].(type) {
		case string:
			if content == "" {
				continue
			}
			msg["content"] = []interface{}{
				map[string]interface{}{
					"type":          "text",
					"text":          content,
					"cache_control": map[string]interface{}{"type": "ephemeral"},
				},
			}
		case []interface{}:
			for i := len(content) - 1; i >= 0; i-- {
				part, ok := content[i].(map[string]interface{})
				if !ok {
					continue
				}
				if t, _ := part["type"].(string); t == "text" {
					part["cache_control"] = map[string]interface{}{"type": "ephemeral"}
					break
				}
			}
		}
	}
}
