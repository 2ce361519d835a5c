package llm

import "testing"

func TestStateSetOnceFields(t *testing.T) {
	state := NewStreamingState()

	state.SetModel("model-a")
	state.SetModel("model-b")
	if state.Model != "model-a" {
		t.Errorf("Model = %q, want model-a", state.Model)
	}

	state.SetGenerationID("gen-1")
	state.SetGenerationID("gen-2")
	if state.GenerationID != "gen-1" {
		t.Errorf("GenerationID = %q, want gen-1", state.GenerationID)
	}

	state.SetFinishReason("stop")
	state.SetFinishReason("length")
	if state.FinishReason != "stop" {
		t.Errorf("FinishReason = %q, want stop", state.FinishReason)
	}
}

func TestStateAppendContentStopsAfterComplete(t *testing.T) {
	state := NewStreamingState()
	state.AppendContent("Hello")
	state.ContentComplete = true
	state.AppendContent(" world")

	if got := state.Content(); got != "Hello" {
		t.Errorf("Content = %q, want Hello", got)
	}
}

func TestStateAppendContentStopsAfterError(t *testing.T) {
	state := NewStreamingState()
	state.AppendContent("partial")
	state.SetError("overloaded")
	state.AppendContent(" more")

	if got := state.Content(); got != "partial" {
		t.Errorf("Content = %q, want partial", got)
	}
	if state.LastError != "overloaded" {
		t.Errorf("LastError = %q, want overloaded", state.LastError)
	}
}

func TestStateUsageOverwritePreservesCacheCounts(t *testing.T) {
	state := NewStreamingState()

	state.SetUsage(&Usage{InputTokens: 120, CacheReadInputTokens: 100, CacheCreationInputTokens: 20})
	// Later report carries only output tokens, as the final usage frame does.
	state.SetUsage(&Usage{OutputTokens: 42})

	u := state.Usage
	if u.InputTokens != 120 {
		t.Errorf("InputTokens = %d, want 120", u.InputTokens)
	}
	if u.OutputTokens != 42 {
		t.Errorf("OutputTokens = %d, want 42", u.OutputTokens)
	}
	if u.CacheReadInputTokens != 100 || u.CacheCreationInputTokens != 20 {
		t.Errorf("cache counts lost: %+v", u)
	}
}

func TestStateSetUsageNilIgnored(t *testing.T) {
	state := NewStreamingState()
	state.SetUsage(&Usage{InputTokens: 10})
	state.SetUsage(nil)
	if state.Usage == nil || state.Usage.InputTokens != 10 {
		t.Errorf("usage lost on nil update: %+v", state.Usage)
	}
}
