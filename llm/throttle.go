package llm

import (
	"strings"
	"time"
)

// ThrottledEmitter coalesces bursts of content chunks so downstream sinks
// (UI broadcast, persistence) see at most one content chunk per interval.
// Non-content chunks flush pending text first and pass through immediately,
// preserving the semantic ordering of text relative to tool-call updates.
// Emission stays a synchronous hand-off; the throttle buffers text, not
// chunk backlog.
type ThrottledEmitter struct {
	emit     ChunkHandler
	interval time.Duration
	pending  strings.Builder
	last     time.Time
	now      func() time.Time
}

// NewThrottledEmitter wraps emit with a coalescing interval. A zero interval
// disables coalescing entirely.
func NewThrottledEmitter(emit ChunkHandler, interval time.Duration) *ThrottledEmitter {
	return &ThrottledEmitter{
		emit:     emit,
		interval: interval,
		now:      time.Now,
	}
}

// Emit accepts the next chunk. Content text accumulates until the interval
// has elapsed; everything else is forwarded at once.
func (t *ThrottledEmitter) Emit(chunk Chunk) {
	if chunk.Type != ChunkTypeContent {
		t.Flush()
		t.emit(chunk)
		return
	}

	if t.interval <= 0 {
		t.emit(chunk)
		return
	}

	t.pending.WriteString(chunk.Text)
	if t.last.IsZero() || t.now().Sub(t.last) >= t.interval {
		t.flushPending()
	}
}

// Flush forces out any buffered content text. Callers invoke it once after
// the stream ends so no trailing text is lost.
func (t *ThrottledEmitter) Flush() {
	if t.pending.Len() > 0 {
		t.flushPending()
	}
}

func (t *ThrottledEmitter) flushPending() {
	if t.pending.Len() == 0 {
		t.last = t.now()
		return
	}
	text := t.pending.String()
	t.pending.Reset()
	t.last = t.now()
	t.emit(Chunk{Type: ChunkTypeContent, Text: text})
}
