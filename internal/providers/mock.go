package providers

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing. Chat responses are consumed from
// Responses in order (the last one repeats); streams are consumed from
// StreamScripts in order.
type MockClient struct {
	// Configurable behavior
	Latency    time.Duration
	ShouldFail bool
	FailAfter  int // Fail after N requests (0 = never)

	Responses     []string        // blocking chat responses, in call order
	ChatUsage     Usage           // usage attached to every blocking response
	StreamScripts [][]StreamChunk // one script per streamed call, in call order

	ModelName string

	mu           sync.Mutex
	requestCount atomic.Int64
	chatCount    int
	streamCount  int
	calls        []*ChatRequest
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		Responses: []string{"mock response"},
		ModelName: "mock-model",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Model returns the configured mock model name.
func (c *MockClient) Model() string {
	return c.ModelName
}

// Requests returns the total number of calls made (blocking and streamed).
func (c *MockClient) Requests() int {
	return int(c.requestCount.Load())
}

// Calls returns the recorded requests in call order.
func (c *MockClient) Calls() []*ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*ChatRequest(nil), c.calls...)
}

// Chat returns the next scripted response.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	if err := c.maybeFail(ctx, count); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.calls = append(c.calls, req)
	idx := c.chatCount
	c.chatCount++
	if idx >= len(c.Responses) {
		idx = len(c.Responses) - 1
	}
	content := ""
	if idx >= 0 {
		content = c.Responses[idx]
	}
	c.mu.Unlock()

	return &ChatResult{
		Content:       content,
		ModelUsed:     c.ModelName,
		Usage:         c.ChatUsage,
		RequestID:     fmt.Sprintf("mock-%d", count),
		ExecutionTime: time.Since(start),
	}, nil
}

// ChatStream returns the next scripted stream.
func (c *MockClient) ChatStream(ctx context.Context, req *ChatRequest) (ChatStream, error) {
	count := c.requestCount.Add(1)

	if err := c.maybeFail(ctx, count); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.calls = append(c.calls, req)
	var script []StreamChunk
	if c.streamCount < len(c.StreamScripts) {
		script = c.StreamScripts[c.streamCount]
	}
	c.streamCount++
	c.mu.Unlock()

	return &mockStream{chunks: script}, nil
}

func (c *MockClient) maybeFail(ctx context.Context, count int64) error {
	if c.ShouldFail {
		return fmt.Errorf("mock client configured to fail")
	}
	if c.FailAfter > 0 && int(count) > c.FailAfter {
		return fmt.Errorf("mock client failed after %d requests", c.FailAfter)
	}
	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

type mockStream struct {
	chunks []StreamChunk
	pos    int
	closed bool
}

func (s *mockStream) Recv() (StreamChunk, error) {
	if s.closed || s.pos >= len(s.chunks) {
		return StreamChunk{}, io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

func (s *mockStream) Close() error {
	s.closed = true
	return nil
}

// Verify interfaces
var (
	_ LLMClient  = (*MockClient)(nil)
	_ ChatStream = (*mockStream)(nil)
)
