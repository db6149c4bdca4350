// Package llm defines the Provider interface for the generative completion
// backends used by computovoce.
//
// A provider wraps a remote model API (e.g., Google Gemini via any-llm, or an
// OpenAI-compatible endpoint) and exposes a uniform interface for the analysis
// service to stream bill-of-quantities completions without coupling to any
// specific SDK.
//
// Implementors must be safe for concurrent use. Channels returned by
// StreamCompletion must be closed by the implementation when the stream ends
// or when the supplied context is cancelled.
package llm

import "context"

// Message represents a single message in a completion conversation.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Usage holds token accounting information returned by the backend.
// Counts are in the model's native token unit and may differ between
// providers for the same textual content.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input. The survey
	// text plus the filtered price-list extract dominates this value, which is
	// exactly what the relevance filter exists to bound.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// CompletionRequest carries everything the model needs to produce a response.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation. For computovoce this is typically a
	// single user message holding the assembled estimate prompt.
	Messages []Message

	// SystemPrompt is an optional high-priority instruction injected before the
	// conversation. Providers without a native system slot should prepend it as
	// a "system"-role message.
	SystemPrompt string

	// Temperature controls output randomness in [0.0, 2.0]. Zero requests the
	// provider default.
	Temperature float64

	// MaxTokens caps completion length. Zero means the provider default.
	MaxTokens int
}

// Chunk is a single fragment emitted by a streaming completion.
type Chunk struct {
	// Text is the incremental text content of this chunk. May be empty on the
	// final chunk when only FinishReason is carried.
	Text string

	// FinishReason is set on the final chunk: "stop" (natural end), "length"
	// (MaxTokens reached), "error" (stream failed mid-flight; Text holds the
	// error message), or "" for non-final chunks.
	FinishReason string
}

// FinishReasonError is the FinishReason value carried by a [Chunk] when the
// stream failed after it was opened.
const FinishReasonError = "error"

// CompletionResponse is returned by the non-streaming Complete method.
type CompletionResponse struct {
	// Content is the full text of the model's reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any completion backend.
//
// Implementations must be safe for concurrent use and must propagate context
// cancellation promptly: when ctx is cancelled each method must return (or
// close its channel) as quickly as possible.
type Provider interface {
	// StreamCompletion sends req to the model and returns a read-only channel
	// that emits [Chunk] values as they arrive. The channel is closed by the
	// implementation when generation finishes or ctx is cancelled.
	//
	// Callers must drain the channel to avoid goroutine leaks. Errors occurring
	// after the stream opens surface as a Chunk with FinishReason
	// [FinishReasonError]; the initial error return is non-nil only for
	// failures that prevent the stream from starting.
	//
	// The returned channel must never be nil when error is nil.
	StreamCompletion(ctx context.Context, req CompletionRequest) (<-chan Chunk, error)

	// Complete sends req to the model and waits for the full response. It is a
	// convenience for callers that do not need incremental output, such as the
	// keyword expansion pass.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// CountTokens estimates how many tokens messages would consume in the
	// model's context window. The result need not be exact but should not
	// undercount; it is used to sanity-check payloads against the transfer
	// budget before a request is sent.
	CountTokens(messages []Message) (int, error)
}
