package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog"

	"github.com/loicboutet/llm-toolkit-sub000/llm"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	apiVersion       = "2023-06-01"
	maxErrorBodySize = 1 << 20

	// Streaming reads get a generous ceiling: long generations take minutes,
	// and the timeout only exists to catch a fully hung connection.
	defaultStreamTimeout = 10 * time.Minute
)

// Client implements llm.Client against the Anthropic messages API. Request
// bodies are built with the official SDK's parameter types (which carry the
// cache_control plumbing); the streaming response side is read directly so
// the SSE state machine stays in this module.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, for tests and proxies.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient supplies a shared HTTP client / connection pool.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates an Anthropic client.
func NewClient(apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultStreamTimeout},
		logger:     logger.With().Str("component", "anthropic").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Provider implements llm.StreamAdapter.
func (c *Client) Provider() string {
	return llm.ProviderAnthropic
}

// Stream implements llm.StreamAdapter. It owns one streaming HTTP cycle:
// build the request, feed the body through the SSE state machine, dispatch
// events, and standardize the final state.
func (c *Client) Stream(ctx context.Context, req *llm.Request, emit llm.ChunkHandler) (*llm.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if emit == nil {
		emit = func(llm.Chunk) {}
	}

	body, err := c.buildRequestBody(req, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, llm.ClassifyHTTPStatus(resp.StatusCode, errBody)
	}

	state := llm.NewStreamingState()
	handle := func(payload string) {
		c.dispatch(state, payload, emit)
	}

	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			state.Feed(buf[:n], handle)
		}
		if state.LastError != "" {
			// In-band error: treat the stream as ended.
			break
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if state.ContentComplete {
				break
			}
			return nil, llm.ClassifyTransportError(readErr)
		}
	}
	state.Flush(handle)
	state.ContentComplete = true

	return llm.Standardize(state), nil
}

// dispatch interprets one SSE data payload and updates the streaming state.
// A payload that fails to parse is logged and dropped; a single malformed
// chunk must never fail an otherwise-good response.
func (c *Client) dispatch(state *llm.StreamingState, payload string, emit llm.ChunkHandler) {
	// Once the state is terminal the mutators no-op; skip emission too so
	// trailing data lines cannot produce chunks that diverge from the state.
	if state.LastError != "" || state.ContentComplete {
		return
	}

	var event streamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		c.logger.Warn().Err(err).Str("payload", payload).Msg("Dropping unparseable stream line")
		return
	}

	switch event.Type {
	case "message_start":
		if event.Message != nil {
			state.SetGenerationID(event.Message.ID)
			state.SetModel(event.Message.Model)
			state.SetUsage(toUsage(event.Message.Usage))
		}

	case "content_block_start":
		if event.ContentBlock != nil && event.ContentBlock.Type == "tool_use" {
			state.MergeToolCall(llm.ToolCallFragment{
				Index: event.Index,
				ID:    event.ContentBlock.ID,
				Name:  event.ContentBlock.Name,
			})
			emit(llm.Chunk{Type: llm.ChunkTypeToolCallUpdate, ToolCalls: state.ToolCalls()})
		}

	case "content_block_delta":
		if event.Delta == nil {
			return
		}
		switch event.Delta.Type {
		case "text_delta":
			if event.Delta.Text != "" {
				state.AppendContent(event.Delta.Text)
				emit(llm.Chunk{Type: llm.ChunkTypeContent, Text: event.Delta.Text})
			}
		case "input_json_delta":
			if event.Delta.PartialJSON != "" {
				state.MergeToolCall(llm.ToolCallFragment{
					Index:     event.Index,
					Arguments: event.Delta.PartialJSON,
				})
				emit(llm.Chunk{Type: llm.ChunkTypeToolCallUpdate, ToolCalls: state.ToolCalls()})
			}
		}

	case "content_block_stop":
		// Nothing to do: arguments are parsed at standardization time.

	case "message_delta":
		if event.Delta != nil {
			state.SetFinishReason(event.Delta.StopReason)
		}
		state.SetUsage(toUsage(event.Usage))

	case "message_stop":
		state.ContentComplete = true
		emit(llm.Chunk{Type: llm.ChunkTypeFinish, FinishReason: state.FinishReason, Usage: state.Usage})

	case "error":
		msg := "unknown stream error"
		if event.Error != nil && event.Error.Message != "" {
			msg = event.Error.Message
		}
		state.SetError(msg)
		emit(llm.Chunk{Type: llm.ChunkTypeError, Err: llm.TranslateError(msg)})

	case "ping":
		// Keep-alive, ignored.
	}
}

// Synchronous implements llm.Client.Synchronous.
func (c *Client) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	body, err := c.buildRequestBody(req, false)
	if err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.ClassifyTransportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, llm.ClassifyHTTPStatus(resp.StatusCode, respBody)
	}

	var message messageResponse
	if err := json.Unmarshal(respBody, &message); err != nil {
		return nil, llm.NewProviderError("unparseable response body", err)
	}
	return standardizeMessage(&message), nil
}

// buildRequestBody assembles the JSON request. Params are built with the SDK
// types, then re-marshaled through a map to add the stream flag the SDK only
// sets on its own transport.
func (c *Client) buildRequestBody(req *llm.Request, stream bool) ([]byte, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages:  ToMessageParams(req.Messages),
		System:    buildSystemBlocks(req.System),
		Tools:     ToToolUnionParams(req.Tools),
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal request params: %w", err)
	}
	if !stream {
		return raw, nil
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("rebuild request params: %w", err)
	}
	payload["stream"] = true
	return json.Marshal(payload)
}

func (c *Client) post(ctx context.Context, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, llm.ClassifyTransportError(err)
	}
	return resp, nil
}

// standardizeMessage maps a non-streaming response body onto the canonical
// shape with the same null-safety rules as the streaming path.
func standardizeMessage(message *messageResponse) *llm.Response {
	resp := &llm.Response{
		Model:        message.Model,
		Role:         llm.RoleAssistant,
		StopReason:   llm.NormalizeStopReason(message.StopReason),
		StopSequence: message.StopSequence,
		FinishReason: message.StopReason,
		Usage:        toUsage(message.Usage),
		ToolCalls:    make([]llm.ToolCall, 0, len(message.Content)),
	}
	for _, block := range message.Content {
		switch block.Type {
		case "text":
			resp.Content += block.Text
		case "tool_use":
			resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
				ID:    block.ID,
				Name:  block.Name,
				Input: llm.ParseToolInput(string(block.Input)),
			})
		}
	}
	return resp
}

func toUsage(u *usagePayload) *llm.Usage {
	if u == nil {
		return nil
	}
	return &llm.Usage{
		InputTokens:              u.InputTokens,
		OutputTokens:             u.OutputTokens,
		CacheCreationInputTokens: u.CacheCreationInputTokens,
		CacheReadInputTokens:     u.CacheReadInputTokens,
	}
}

var _ llm.Client = (*Client)(nil)
