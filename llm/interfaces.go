package llm

import "context"

// StreamAdapter drives one provider streaming HTTP cycle. Implementations
// own a fresh StreamingState per Stream call, interpret the provider's event
// types, and emit normalized chunks synchronously and in order.
type StreamAdapter interface {
	// Provider returns the provider identifier ("anthropic", "openrouter", ...).
	Provider() string

	// Stream performs one streaming request, emitting chunks as they arrive
	// and returning the canonical response built from the final state.
	// In-band stream errors surface as error chunks, not as a returned error;
	// errors detected before any bytes are read (connection refused, non-2xx)
	// return a classified error for the retry controller.
	Stream(ctx context.Context, req *Request, emit ChunkHandler) (*Response, error)
}

// Client provides a provider-neutral interface for making LLM API calls.
type Client interface {
	StreamAdapter

	// Synchronous sends a request and returns a complete response without
	// streaming.
	Synchronous(ctx context.Context, req *Request) (*Response, error)
}

// HistorySupplier returns the ordered conversation history for one
// conversation. The core treats the returned slice as an immutable snapshot
// for the duration of a call.
type HistorySupplier interface {
	History(ctx context.Context, conversationID string) ([]Message, error)
}

// ToolOutcomeKind is one of the three outcome shapes a tool execution can
// produce.
type ToolOutcomeKind string

const (
	ToolOutcomeResult  ToolOutcomeKind = "result"
	ToolOutcomeError   ToolOutcomeKind = "error"
	ToolOutcomePending ToolOutcomeKind = "pending"
)

// ToolOutcome is the result of executing one completed tool call.
type ToolOutcome struct {
	Kind         ToolOutcomeKind
	Result       interface{} // JSON-serializable payload for result outcomes
	ErrorMessage string      // For error outcomes
}

// ToolExecutor runs a completed tool call. The core does not know how tools
// work internally, only the three outcome shapes.
type ToolExecutor interface {
	Execute(ctx context.Context, call ToolCall) (ToolOutcome, error)
}

// ChunkSink persists ordered chunk events as they are emitted. The core
// never reads persisted state back mid-stream.
type ChunkSink interface {
	AppendChunk(ctx context.Context, conversationID string, seq int, chunk Chunk) error
}

// Middleware provides hooks for decorating Client calls with cross-cutting
// concerns like logging or request rewriting.
type Middleware interface {
	// BeforeRequest is called before making an API request. It can modify
	// the request or return an error to abort it.
	BeforeRequest(ctx context.Context, req *Request) (*Request, error)

	// AfterResponse is called after a complete response is available.
	AfterResponse(ctx context.Context, req *Request, resp *Response) (*Response, error)

	// OnError is called with any terminal error. It can return a modified
	// error, or nil to swallow it.
	OnError(ctx context.Context, req *Request, err error) error
}

// MiddlewareFunc adapts plain functions to the Middleware interface.
type MiddlewareFunc struct {
	BeforeRequestFunc func(ctx context.Context, req *Request) (*Request, error)
	AfterResponseFunc func(ctx context.Context, req *Request, resp *Response) (*Response, error)
	OnErrorFunc       func(ctx context.Context, req *Request, err error) error
}

// BeforeRequest calls the BeforeRequestFunc if set.
func (f MiddlewareFunc) BeforeRequest(ctx context.Context, req *Request) (*Request, error) {
	if f.BeforeRequestFunc != nil {
		return f.BeforeRequestFunc(ctx, req)
	}
	return req, nil
}

// AfterResponse calls the AfterResponseFunc if set.
func (f MiddlewareFunc) AfterResponse(ctx context.Context, req *Request, resp *Response) (*Response, error) {
	if f.AfterResponseFunc != nil {
		return f.AfterResponseFunc(ctx, req, resp)
	}
	return resp, nil
}

// OnError calls the OnErrorFunc if set.
func (f MiddlewareFunc) OnError(ctx context.Context, req *Request, err error) error {
	if f.OnErrorFunc != nil {
		return f.OnErrorFunc(ctx, req, err)
	}
	return err
}

// WrapWithMiddleware wraps a Client with middleware without exposing the
// wrapping details. Middleware applies to both the synchronous and the
// streaming path; on the streaming path AfterResponse runs once with the
// final canonical response.
func WrapWithMiddleware(client Client, middleware ...Middleware) Client {
	if len(middleware) == 0 {
		return client
	}
	return &clientWithMiddleware{client: client, middleware: middleware}
}

type clientWithMiddleware struct {
	client     Client
	middleware []Middleware
}

func (c *clientWithMiddleware) Provider() string {
	return c.client.Provider()
}

func (c *clientWithMiddleware) Synchronous(ctx context.Context, req *Request) (*Response, error) {
	req, err := c.applyBefore(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Synchronous(ctx, req)
	if err != nil {
		return nil, c.applyOnError(ctx, req, err)
	}
	return c.applyAfter(ctx, req, resp)
}

func (c *clientWithMiddleware) Stream(ctx context.Context, req *Request, emit ChunkHandler) (*Response, error) {
	req, err := c.applyBefore(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Stream(ctx, req, emit)
	if err != nil {
		return nil, c.applyOnError(ctx, req, err)
	}
	return c.applyAfter(ctx, req, resp)
}

func (c *clientWithMiddleware) applyBefore(ctx context.Context, req *Request) (*Request, error) {
	for _, mw := range c.middleware {
		var err error
		req, err = mw.BeforeRequest(ctx, req)
		if err != nil {
			return nil, err
		}
	}
	return req, nil
}

func (c *clientWithMiddleware) applyAfter(ctx context.Context, req *Request, resp *Response) (*Response, error) {
	for i := len(c.middleware) - 1; i >= 0; i-- {
		var err error
		resp, err = c.middleware[i].AfterResponse(ctx, req, resp)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (c *clientWithMiddleware) applyOnError(ctx context.Context, req *Request, err error) error {
	for _, mw := range c.middleware {
		err = mw.OnError(ctx, req, err)
		if err == nil {
			break
		}
	}
	return err
}

var _ Client = (*clientWithMiddleware)(nil)
