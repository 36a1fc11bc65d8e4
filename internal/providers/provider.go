package providers

import (
	"context"
	"time"
)

// LLMClient is the interface for chat/completion requests. A client is
// bound to one model for its lifetime; the generator never switches models
// mid-run.
type LLMClient interface {
	// Chat sends a blocking chat completion request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// ChatStream opens a streamed chat completion request. The caller must
	// drain or Close the returned stream.
	ChatStream(ctx context.Context, req *ChatRequest) (ChatStream, error)

	// Name returns the client identifier (e.g., "groq").
	Name() string

	// Model returns the model this client sends requests to.
	Model() string
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ResponseFormat requests structured output ("json_object").
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	Messages []Message `json:"messages"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	// Generation parameters
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`

	// Structured output
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	// Request tracking
	RequestID string `json:"-"`
}

// Usage is the provider-reported token and timing accounting for one call.
// The timing fields are Groq extensions to the OpenAI usage object, in
// fractional seconds.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	QueueTime      float64 `json:"queue_time"`
	PromptTime     float64 `json:"prompt_time"`
	CompletionTime float64 `json:"completion_time"`
	TotalTime      float64 `json:"total_time"`
}

// ChatResult is the complete response from a blocking LLM call.
type ChatResult struct {
	Content   string `json:"content"`
	ModelUsed string `json:"model_used"`
	Usage     Usage  `json:"usage"`

	RequestID     string        `json:"request_id"`
	ExecutionTime time.Duration `json:"execution_time"`
}

// StreamChunk is one element of a streamed response: an incremental text
// fragment, a usage snapshot, or both. Groq delivers usage once, in the
// trailing x_groq chunk.
type StreamChunk struct {
	TextDelta string
	Usage     *Usage
}

// ChatStream yields StreamChunk values until io.EOF.
type ChatStream interface {
	Recv() (StreamChunk, error)
	Close() error
}
