// Package llm is a provider-neutral unification layer over heterogeneous LLM
// HTTP APIs (Anthropic, OpenRouter, Mistral, Scaleway), each with its own
// request shape, streaming event format and tool-calling conventions.
//
// # Core Concepts
//
//  1. StreamingState: the mutable state of one in-flight streaming call. An
//     adapter feeds raw SSE byte chunks through Feed/Flush, merges tool-call
//     fragments with MergeToolCall and accumulates assistant text; the state
//     is created per attempt and never shared.
//
//  2. Chunks: normalized streaming events (content, tool_call_update,
//     finish, error) handed synchronously to a ChunkHandler as they arrive.
//     In-band provider failures become error chunks rather than returned
//     errors so callers observe failure through one channel.
//
//  3. Canonical response: Standardize maps the terminal state (or a
//     provider's non-streaming payload) onto the single Response shape.
//     Content is never absent-for-nil, tool calls never nil, and tool
//     arguments flow through best-effort JSON repair (FixMalformedJSON,
//     ParseToolInput) before being exposed.
//
//  4. Retry: StreamWithRetry wraps one adapter invocation, retrying
//     network-level failures and a fixed set of 5xx statuses with
//     exponential backoff and jitter. All other statuses, 429 included,
//     fail fast. Every attempt starts from a fresh StreamingState.
//
//  5. Prompt caching: PlanBreakpoints selects the positional cache marker
//     set for a conversation history and MarkBreakpoints attaches the
//     markers; adapters translate them into provider-specific annotations
//     or drop them when the provider has no equivalent.
//
//  6. Collaborators: persistence, tool execution and history storage stay
//     outside this package behind ChunkSink, ToolExecutor and
//     HistorySupplier. Runner ties them together into a full turn with a
//     tool execution loop.
//
// # Extension Points
//
// To add a new provider implement the Client interface: translate between
// provider wire types and this package's types, feed the response body
// through StreamingState, and classify HTTP failures with
// ClassifyHTTPStatus/ClassifyTransportError so the retry controller can make
// its decision.
package llm
