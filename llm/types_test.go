package llm

import "testing"

func TestMessageText(t *testing.T) {
	msg := Message{
		Role: RoleAssistant,
		Content: []ContentBlock{
			{Type: ContentBlockTypeText, Text: "Hello"},
			{Type: ContentBlockTypeToolUse, ToolUse: &ToolUseBlock{ID: "t1", Name: "search"}},
			{Type: ContentBlockTypeText, Text: " world"},
		},
	}
	if got := msg.Text(); got != "Hello world" {
		t.Errorf("Text = %q", got)
	}
}

func TestMessageHasText(t *testing.T) {
	tests := []struct {
		name     string
		msg      Message
		expected bool
	}{
		{"plain text", NewTextMessage(RoleUser, "hi"), true},
		{"blank text", NewTextMessage(RoleUser, "   \n"), false},
		{"empty content", Message{Role: RoleUser}, false},
		{
			"tool use only",
			NewToolUseMessage([]ToolUseBlock{{ID: "t1", Name: "search"}}),
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.HasText(); got != tt.expected {
				t.Errorf("HasText = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewToolResultMessage(t *testing.T) {
	msg := NewToolResultMessage([]ToolResultBlock{
		{ID: "t1", Content: `{"ok":true}`},
		{ID: "t2", Content: "failed", IsError: true},
	})
	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want user", msg.Role)
	}
	if len(msg.Content) != 2 {
		t.Fatalf("Content = %d blocks", len(msg.Content))
	}
	if msg.Content[0].ToolResult.ID != "t1" || msg.Content[1].ToolResult.IsError != true {
		t.Errorf("blocks = %+v", msg.Content)
	}
}
