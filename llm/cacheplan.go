package llm

import "sort"

// DefaultBreakpointLimit is the number of conversation breakpoints available
// after reserving one provider slot for the system prompt (providers allow
// four markers total).
const DefaultBreakpointLimit = 3

// PlanBreakpoints selects the message indices that receive a prompt-cache
// marker for this request. Provider cache semantics are prefix-based and a
// hit requires the marker at the same absolute position as a previous
// request, so the policy is positional, not content-based:
//
//   - the first user message anchors a prefix shared by every turn;
//   - the second-to-last message is the read point matching where the
//     previous turn wrote its last marker;
//   - the last message writes the marker the next turn will read.
//
// Together they give rolling cache reuse across turns without exceeding the
// marker cap. A positional target with blank text wastes a slot, so the
// planner walks back to the nearest message with real text content instead.
// The result is deduplicated, sorted ascending and capped to limit, keeping
// the latest indices when over the cap.
func PlanBreakpoints(history []Message, limit int) []int {
	if len(history) == 0 || limit <= 0 {
		return nil
	}

	targets := []int{
		firstUserIndex(history),
		nearestWithText(history, len(history)-2),
		nearestWithText(history, len(history)-1),
	}

	seen := make(map[int]bool)
	indices := make([]int, 0, len(targets))
	for _, idx := range targets {
		if idx < 0 || idx >= len(history) || seen[idx] {
			continue
		}
		seen[idx] = true
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	if len(indices) > limit {
		indices = indices[len(indices)-limit:]
	}
	return indices
}

// MarkBreakpoints returns a copy of history with a cache marker attached at
// each planned index. The marker goes on the last text block of the message;
// tool and result blocks are never marked. Messages without a markable block
// are left untouched (the planner avoids selecting them, but a caller may
// pass arbitrary indices).
func MarkBreakpoints(history []Message, indices []int) []Message {
	if len(indices) == 0 {
		return history
	}
	marked := make(map[int]bool, len(indices))
	for _, idx := range indices {
		marked[idx] = true
	}

	out := make([]Message, len(history))
	for i, msg := range history {
		out[i] = msg
		if !marked[i] {
			continue
		}
		blocks := make([]ContentBlock, len(msg.Content))
		copy(blocks, msg.Content)
		for j := len(blocks) - 1; j >= 0; j-- {
			if blocks[j].Type == ContentBlockTypeText {
				blocks[j].CacheBreakpoint = true
				break
			}
		}
		out[i].Content = blocks
	}
	return out
}

// firstUserIndex returns the index of the first user message with non-blank
// text, or -1.
func firstUserIndex(history []Message) int {
	for i, msg := range history {
		if msg.Role == RoleUser && msg.HasText() {
			return i
		}
	}
	return -1
}

// nearestWithText walks back from the positional target to the nearest
// message carrying non-blank text.
func nearestWithText(history []Message, from int) int {
	if from >= len(history) {
		from = len(history) - 1
	}
	for i := from; i >= 0; i-- {
		if history[i].HasText() {
			return i
		}
	}
	return -1
}
