package llm

import (
	"reflect"
	"testing"
)

func TestFixMalformedJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "valid JSON passes through",
			input:    `{"command": "ls -la"}`,
			expected: `{"command": "ls -la"}`,
		},
		{
			name:     "empty string becomes empty object",
			input:    "",
			expected: "{}",
		},
		{
			name:     "whitespace only becomes empty object",
			input:    "   \n\t ",
			expected: "{}",
		},
		{
			name:     "missing both braces",
			input:    `"command": "ls"`,
			expected: `{"command": "ls"}`,
		},
		{
			name:     "missing opening brace",
			input:    `"command": "ls"}`,
			expected: `{"command": "ls"}`,
		},
		{
			name:     "missing closing brace",
			input:    `{"command": "ls"`,
			expected: `{"command": "ls"}`,
		},
		{
			name:     "truncated query key",
			input:    `y": "cats`,
			expected: `{"query": "cats}`,
		},
		{
			name:     "truncated query key without quote",
			input:    `y: "dogs"}`,
			expected: `{"query: "dogs"}`,
		},
		{
			name:     "unterminated string gets closing quote",
			input:    `{"query": "partial`,
			expected: `{"query": "partial}"`,
		},
		{
			name:     "nested object untouched",
			input:    `{"a": {"b": 1}}`,
			expected: `{"a": {"b": 1}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FixMalformedJSON(tt.input)
			if got != tt.expected {
				t.Errorf("FixMalformedJSON(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFixMalformedJSONIdempotent(t *testing.T) {
	inputs := []string{
		`{"command": "ls"}`,
		`{}`,
		`{"a": 1, "b": "two"}`,
	}
	for _, input := range inputs {
		once := FixMalformedJSON(input)
		twice := FixMalformedJSON(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestParseToolInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[string]interface{}
	}{
		{
			name:     "valid object",
			input:    `{"command": "ls"}`,
			expected: map[string]interface{}{"command": "ls"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: map[string]interface{}{},
		},
		{
			name:     "repairable missing brace",
			input:    `{"path": "/tmp"`,
			expected: map[string]interface{}{"path": "/tmp"},
		},
		{
			name:     "unrepairable wraps raw input",
			input:    `not json at [all`,
			expected: map[string]interface{}{"raw_input": `not json at [all`},
		},
		{
			name:     "JSON null degrades to raw input",
			input:    "null",
			expected: map[string]interface{}{"raw_input": "null"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseToolInput(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseToolInput(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
