package llm

import "strings"

// doneSentinel is the SSE terminator line payload used by OpenAI-compatible
// providers to mark the end of a stream.
const doneSentinel = "[DONE]"

// DataHandler receives the JSON payload of one complete "data:" line.
// Payloads that fail to parse must be logged and dropped by the handler,
// never allowed to abort the stream.
type DataHandler func(payload string)

// Feed appends a raw chunk to the line buffer and dispatches every complete
// line in arrival order, leaving any trailing partial line buffered for the
// next chunk. The buffer holds raw bytes so a multi-byte rune split across
// two chunks reassembles intact; invalid UTF-8 is replaced only once a line
// is consumed.
func (s *StreamingState) Feed(chunk []byte, handle DataHandler) {
	s.buffer += string(chunk)
	for {
		nl := strings.IndexByte(s.buffer, '\n')
		if nl < 0 {
			return
		}
		line := s.buffer[:nl]
		s.buffer = s.buffer[nl+1:]
		s.processLine(strings.ToValidUTF8(line, "�"), handle)
	}
}

// Flush processes a final line that lacked a trailing newline. It is called
// once, after the HTTP response body ends.
func (s *StreamingState) Flush(handle DataHandler) {
	if s.buffer == "" {
		return
	}
	line := s.buffer
	s.buffer = ""
	s.processLine(strings.ToValidUTF8(line, "�"), handle)
}

func (s *StreamingState) processLine(line string, handle DataHandler) {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return
	}
	// SSE comments are keep-alives, skip them.
	if strings.HasPrefix(line, ":") {
		return
	}
	// Lines without a data prefix ("event:", "id:", ...) carry no payload here:
	// every provider we speak to duplicates the event type inside the JSON body.
	if !strings.HasPrefix(line, "data:") {
		return
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if payload == "" {
		return
	}
	if payload == doneSentinel {
		s.ContentComplete = true
		return
	}
	handle(payload)
}
