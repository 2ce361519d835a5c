package llm

import "testing"

func TestMergeToolCallAppendsArguments(t *testing.T) {
	state := NewStreamingState()

	state.MergeToolCall(ToolCallFragment{Index: 0, ID: "call_1", Name: "search", Arguments: `{"q`})
	state.MergeToolCall(ToolCallFragment{Index: 0, Arguments: `uery":"cats"}`})

	calls := state.ToolCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(calls))
	}
	if calls[0].Arguments != `{"query":"cats"}` {
		t.Errorf("merged arguments = %q, want %q", calls[0].Arguments, `{"query":"cats"}`)
	}
	input := ParseToolInput(calls[0].Arguments)
	if input["query"] != "cats" {
		t.Errorf("parsed input = %v, want query=cats", input)
	}
}

func TestMergeToolCallLookupByID(t *testing.T) {
	state := NewStreamingState()

	state.MergeToolCall(ToolCallFragment{Index: 0, ID: "call_1", Name: "search", Arguments: `{"a":`})
	// Same call re-announced at a different index: the ID wins.
	state.MergeToolCall(ToolCallFragment{Index: 3, ID: "call_1", Arguments: `1}`})

	calls := state.ToolCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(calls))
	}
	if calls[0].Arguments != `{"a":1}` {
		t.Errorf("merged arguments = %q, want %q", calls[0].Arguments, `{"a":1}`)
	}
}

func TestMergeToolCallMultipleIndices(t *testing.T) {
	state := NewStreamingState()

	state.MergeToolCall(ToolCallFragment{Index: 1, ID: "b", Name: "second"})
	state.MergeToolCall(ToolCallFragment{Index: 0, ID: "a", Name: "first"})

	calls := state.ToolCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(calls))
	}
	if calls[0].Name != "first" || calls[1].Name != "second" {
		t.Errorf("tool calls not ordered by index: %v", calls)
	}
	if calls[0].Type != "function" {
		t.Errorf("tool call type = %q, want function", calls[0].Type)
	}
}

func TestMergeToolCallNameNotOverwrittenByEmpty(t *testing.T) {
	state := NewStreamingState()

	state.MergeToolCall(ToolCallFragment{Index: 0, ID: "call_1", Name: "search"})
	state.MergeToolCall(ToolCallFragment{Index: 0, Arguments: `{}`})

	calls := state.ToolCalls()
	if calls[0].Name != "search" {
		t.Errorf("name = %q, want search", calls[0].Name)
	}
	if calls[0].ID != "call_1" {
		t.Errorf("id = %q, want call_1", calls[0].ID)
	}
}

func TestMergeToolCallStopsAfterComplete(t *testing.T) {
	state := NewStreamingState()
	state.MergeToolCall(ToolCallFragment{Index: 0, Name: "search"})
	state.ContentComplete = true

	state.MergeToolCall(ToolCallFragment{Index: 0, Arguments: `{"late": true}`})

	if got := state.ToolCalls()[0].Arguments; got != "" {
		t.Errorf("arguments mutated after completion: %q", got)
	}
}

func TestStripDuplicatedOpening(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		incoming string
		expected string
	}{
		{
			name:     "brace then duplicated brace-quote",
			existing: `{`,
			incoming: `{"command`,
			expected: `"command`,
		},
		{
			name:     "brace-quote then duplicated brace-quote",
			existing: `{"`,
			incoming: `{"command`,
			expected: `command`,
		},
		{
			name:     "brace-quote then bare brace",
			existing: `{"`,
			incoming: `{command`,
			expected: `command`,
		},
		{
			name:     "long existing buffer untouched",
			existing: `{"command": `,
			incoming: `{"nested": 1}`,
			expected: `{"nested": 1}`,
		},
		{
			name:     "empty existing untouched",
			existing: ``,
			incoming: `{"command`,
			expected: `{"command`,
		},
		{
			name:     "non-brace incoming untouched",
			existing: `{`,
			incoming: `"command"`,
			expected: `"command"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripDuplicatedOpening(tt.existing, tt.incoming)
			if got != tt.expected {
				t.Errorf("stripDuplicatedOpening(%q, %q) = %q, want %q", tt.existing, tt.incoming, got, tt.expected)
			}
		})
	}
}
