package openaicompat

import openai "github.com/sashabaranov/go-openai"

// streamPayload is one parsed SSE data line. The go-openai stream response
// covers the happy path; the error member covers providers that deliver
// failures in-band on a 200 stream.
type streamPayload struct {
	openai.ChatCompletionStreamResponse
	Error *wireError `json:"error,omitempty"`
}

type wireError struct {
	Message string      `json:"message"`
	Type    string      `json:"type,omitempty"`
	Code    interface{} `json:"code,omitempty"`
}
