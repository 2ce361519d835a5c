package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// truncatedQueryKey matches the bare trailing fragment of a "query" key that
// some providers emit when a streamed delta truncates mid-key, e.g.
// `y": "cats`. Observed specifically for the "query" key; intentionally not
// generalized beyond that pattern.
var truncatedQueryKey = regexp.MustCompile(`^y"?\s*:\s*"`)

// FixMalformedJSON applies a fixed sequence of best-effort repairs to a
// complete (post-accumulation) tool arguments string. Each rule runs at most
// once. The result is not guaranteed to be valid JSON; callers must still
// handle parse failures. Already-valid JSON objects pass through unchanged,
// so the function is idempotent over its own output for valid inputs.
func FixMalformedJSON(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return "{}"
	}

	// Truncated "query" key reconstruction. The stream dropped the `{"quer`
	// prefix, so put it back and close the object.
	if truncatedQueryKey.MatchString(t) {
		t = `{"quer` + t
		if !strings.HasSuffix(t, "}") {
			t += "}"
		}
		return t
	}

	hasOpen := strings.HasPrefix(t, "{")
	hasClose := strings.HasSuffix(t, "}")
	switch {
	case !hasOpen && !hasClose:
		t = "{" + t + "}"
	case !hasOpen:
		t = "{" + t
	case !hasClose:
		t += "}"
	}

	// An odd number of quotes means an unterminated string.
	if strings.Count(t, `"`)%2 == 1 {
		t += `"`
	}

	return t
}

// ParseToolInput turns an accumulated arguments string into the canonical
// input mapping. It repairs the string first and degrades rather than fails:
// an empty string becomes an empty mapping, and an unparseable one is wrapped
// under "raw_input" so nothing is silently lost.
func ParseToolInput(raw string) map[string]interface{} {
	fixed := FixMalformedJSON(raw)

	var input map[string]interface{}
	if err := json.Unmarshal([]byte(fixed), &input); err == nil && input != nil {
		return input
	}

	if strings.TrimSpace(raw) == "" {
		return map[string]interface{}{}
	}
	return map[string]interface{}{"raw_input": raw}
}
