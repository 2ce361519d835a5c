package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/loicboutet/llm-toolkit-sub000/llm"
)

const (
	maxErrorBodySize     = 1 << 20
	defaultStreamTimeout = 10 * time.Minute
)

// Quirks captures the per-provider deviations from the baseline OpenAI chat
// completions contract. Everything else about the wire format is shared.
type Quirks struct {
	// Name is the provider identifier reported by Provider().
	Name string
	// BaseURL is the default endpoint, without the trailing /chat/completions.
	BaseURL string
	// SupportsCacheControl enables Anthropic-style cache_control injection on
	// marked messages. Only OpenRouter forwards these upstream; other
	// providers reject content-block arrays where they expect strings.
	SupportsCacheControl bool
	// ExtraHeaders are added to every request (attribution headers etc.).
	ExtraHeaders map[string]string
}

// Client implements llm.Client against an OpenAI-compatible chat completions
// API. Requests are built with the go-openai types; the streaming response
// side is read directly so the shared SSE state machine applies.
type Client struct {
	quirks     Quirks
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

// NewClient creates a client for one OpenAI-compatible provider.
func NewClient(quirks Quirks, apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if quirks.Name == "" {
		return nil, fmt.Errorf("provider name is required")
	}
	c := &Client{
		quirks:     quirks,
		apiKey:     apiKey,
		baseURL:    quirks.BaseURL,
		httpClient: &http.Client{Timeout: defaultStreamTimeout},
		logger:     logger.With().Str("component", quirks.Name).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	return c, nil
}

// Provider implements llm.StreamAdapter.
func (c *Client) Provider() string {
	return c.quirks.Name
}

// Stream implements llm.StreamAdapter.
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

	result := llm.Standardize(state)
	ensureToolCallIDs(result)
	return result, nil
}

// dispatch interprets one SSE data payload and updates the streaming state.
// Malformed payloads are logged and dropped.
func (c *Client) dispatch(state *llm.StreamingState, payload string, emit llm.ChunkHandler) {
	// Once the state is terminal the mutators no-op; skip emission too so
	// trailing data lines cannot produce chunks that diverge from the state.
	if state.LastError != "" || state.ContentComplete {
		return
	}

	var chunk streamPayload
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		c.logger.Warn().Err(err).Str("payload", payload).Msg("Dropping unparseable stream line")
		return
	}

	// Some providers report mid-stream failures as an error object on an
	// otherwise normal chunk.
	if chunk.Error != nil && chunk.Error.Message != "" {
		state.SetError(chunk.Error.Message)
		emit(llm.Chunk{Type: llm.ChunkTypeError, Err: llm.TranslateError(chunk.Error.Message)})
		return
	}

	state.SetGenerationID(chunk.ID)
	state.SetModel(chunk.Model)
	if chunk.Usage != nil {
		state.SetUsage(toUsage(chunk.Usage))
	}

	// The final usage-only chunk carries an empty choices array.
	if len(chunk.Choices) == 0 {
		return
	}
	choice := chunk.Choices[0]

	if choice.Delta.Content != "" {
		state.AppendContent(choice.Delta.Content)
		emit(llm.Chunk{Type: llm.ChunkTypeContent, Text: choice.Delta.Content})
	}

	for _, tc := range choice.Delta.ToolCalls {
		frag := llm.ToolCallFragment{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}
		if tc.Index != nil {
			frag.Index = *tc.Index
		} else {
			// Mistral omits indices on complete tool calls: slot behind
			// whatever is already accumulated. Known IDs still merge by ID.
			frag.Index = len(state.ToolCalls())
		}
		state.MergeToolCall(frag)
		emit(llm.Chunk{Type: llm.ChunkTypeToolCallUpdate, ToolCalls: state.ToolCalls()})
	}

	if choice.FinishReason != "" {
		state.SetFinishReason(string(choice.FinishReason))
		emit(llm.Chunk{Type: llm.ChunkTypeFinish, FinishReason: state.FinishReason, Usage: state.Usage})
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

	var completion openai.ChatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, llm.NewProviderError("unparseable response body", err)
	}
	return standardizeCompletion(&completion), nil
}

// buildRequestBody assembles the JSON request from the go-openai types, then
// applies cache_control rewriting for providers that support it.
func (c *Client) buildRequestBody(req *llm.Request, stream bool) ([]byte, error) {
	messages, marked := ToChatMessages(req)

	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
		Tools:    ToTools(req.Tools),
		Stream:   stream,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = int(req.MaxTokens)
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}
	if stream {
		chatReq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}

	raw, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	if !c.quirks.SupportsCacheControl || len(marked) == 0 {
		return raw, nil
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("rebuild request: %w", err)
	}
	applyCacheControl(payload, marked)
	return json.Marshal(payload)
}

func (c *Client) post(ctx context.Context, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range c.quirks.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, llm.ClassifyTransportError(err)
	}
	return resp, nil
}

// standardizeCompletion maps a non-streaming completion onto the canonical
// shape with the same null-safety rules as the streaming path.
func standardizeCompletion(completion *openai.ChatCompletionResponse) *llm.Response {
	resp := &llm.Response{
		Model:     completion.Model,
		Role:      llm.RoleAssistant,
		ToolCalls: make([]llm.ToolCall, 0),
	}
	if completion.Usage.TotalTokens > 0 {
		resp.Usage = toUsage(&completion.Usage)
	}
	if len(completion.Choices) > 0 {
		choice := completion.Choices[0]
		resp.Content = choice.Message.Content
		resp.FinishReason = string(choice.FinishReason)
		resp.StopReason = llm.NormalizeStopReason(resp.FinishReason)
		for _, tc := range choice.Message.ToolCalls {
			resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
				ID:    tc.ID,
				Name:  tc.Function.Name,
				Input: llm.ParseToolInput(tc.Function.Arguments),
			})
		}
	}
	ensureToolCallIDs(resp)
	return resp
}

// ensureToolCallIDs backfills generated IDs for providers that omit them.
// Follow-up tool result messages need an ID to correlate against.
func ensureToolCallIDs(resp *llm.Response) {
	for i := range resp.ToolCalls {
		if resp.ToolCalls[i].ID == "" {
			resp.ToolCalls[i].ID = "call_" + uuid.NewString()
		}
	}
}

func toUsage(u *openai.Usage) *llm.Usage {
	out := &llm.Usage{
		InputTokens:  int64(u.PromptTokens),
		OutputTokens: int64(u.CompletionTokens),
	}
	if u.PromptTokensDetails != nil {
		out.CacheReadInputTokens = int64(u.PromptTokensDetails.CachedTokens)
	}
	return out
}

var _ llm.Client = (*Client)(nil)
