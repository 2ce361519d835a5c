package llm

import "strings"

// PartialToolCall is an in-progress tool call assembled from stream fragments.
// Arguments is built by strict append: fragments arrive as incremental string
// deltas keyed by position, never as replacements.
type PartialToolCall struct {
	Index     int
	ID        string
	Type      string // always "function"
	Name      string
	Arguments string
}

// ToolCallFragment is one index-keyed partial update from a stream event.
// Absent fields are represented by zero values and leave the merged entry
// untouched, except Arguments which is appended when non-empty.
type ToolCallFragment struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// MergeToolCall merges a fragment into the accumulated tool calls. Lookup is
// by ID when the fragment carries one and a prior entry shares it, else by
// stream index. ID and name are overwritten when present; arguments are
// always appended. Mutations stop once the stream is complete.
func (s *StreamingState) MergeToolCall(frag ToolCallFragment) {
	if s.ContentComplete || s.LastError != "" {
		return
	}

	entry := s.lookupToolCall(frag)
	if entry == nil {
		entry = &PartialToolCall{
			Index: frag.Index,
			Type:  "function",
		}
		s.toolCalls[frag.Index] = entry
	}

	if frag.ID != "" {
		entry.ID = frag.ID
	}
	if frag.Name != "" {
		entry.Name = frag.Name
	}
	if frag.Arguments != "" {
		entry.Arguments += stripDuplicatedOpening(entry.Arguments, frag.Arguments)
	}
}

func (s *StreamingState) lookupToolCall(frag ToolCallFragment) *PartialToolCall {
	if frag.ID != "" {
		for _, tc := range s.toolCalls {
			if tc.ID == frag.ID {
				return tc
			}
		}
	}
	return s.toolCalls[frag.Index]
}

// stripDuplicatedOpening works around a provider streaming bug: when a delta
// crosses a brace boundary the JSON opening is occasionally re-sent, turning
// `{"command` into `{"{command`. The fix only fires on a short existing
// buffer that is exactly the JSON opening; it is a targeted heuristic, not
// general JSON repair.
func stripDuplicatedOpening(existing, incoming string) string {
	if existing == "" || len(existing) > 2 || !strings.HasPrefix(incoming, "{") {
		return incoming
	}
	switch {
	case existing == "{" && strings.HasPrefix(incoming, `{"`):
		return incoming[1:]
	case strings.HasSuffix(existing, `{"`) && strings.HasPrefix(incoming, `{"`):
		return incoming[2:]
	case strings.HasSuffix(existing, `{"`):
		// `{"` followed by `{command` -> `{"command`
		return incoming[1:]
	}
	return incoming
}
