package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	GroqName    = "groq"
	GroqBaseURL = "https://api.groq.com/openai/v1"

	// DefaultGroqModel is used when no model is configured.
	DefaultGroqModel = "llama-3.3-70b-versatile"
)

// ErrMissingAPIKey is returned by NewGroqClient when no API key is
// configured. Detected before any request is issued.
var ErrMissingAPIKey = errors.New("groq api key is required")

// GroqConfig holds configuration for the Groq client.
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// GroqClient implements LLMClient against the Groq chat completions API
// (OpenAI-compatible wire protocol plus Groq usage timing extensions).
// Requests are never retried; any failure propagates to the caller.
type GroqClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewGroqClient creates a new Groq client. It fails fast with
// ErrMissingAPIKey when the key is absent.
func NewGroqClient(cfg GroqConfig) (*GroqClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = GroqBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGroqModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &GroqClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// Name returns the client identifier.
func (c *GroqClient) Name() string {
	return GroqName
}

// Model returns the configured model.
func (c *GroqClient) Model() string {
	return c.model
}

// Chat sends a blocking chat completion request.
func (c *GroqClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	resp, err := c.do(ctx, c.buildRequest(req, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var gr groqResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(gr.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response (model=%s, id=%s)", gr.Model, gr.ID)
	}

	return &ChatResult{
		Content:       gr.Choices[0].Message.Content,
		ModelUsed:     gr.Model,
		Usage:         gr.Usage,
		RequestID:     requestID,
		ExecutionTime: time.Since(start),
	}, nil
}

// ChatStream opens a streamed chat completion request. Text arrives as
// incremental delta chunks; usage arrives once in the trailing x_groq
// chunk before the [DONE] sentinel.
func (c *GroqClient) ChatStream(ctx context.Context, req *ChatRequest) (ChatStream, error) {
	resp, err := c.do(ctx, c.buildRequest(req, true))
	if err != nil {
		return nil, err
	}
	return newGroqStream(resp.Body), nil
}

func (c *GroqClient) buildRequest(req *ChatRequest, stream bool) *groqRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}
	return &groqRequest{
		Model:          model,
		Messages:       req.Messages,
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: req.ResponseFormat,
		Stream:         stream,
	}
}

// do issues one HTTP request. No retries: transport and provider errors
// are fatal to the caller.
func (c *GroqClient) do(ctx context.Context, body *groqRequest) (*http.Response, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("groq error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return resp, nil
}

// Groq API wire types

type groqRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
}

type groqResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

type groqStreamChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Role    string `json:"role,omitempty"`
			Content string `json:"content,omitempty"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	XGroq *struct {
		ID    string `json:"id"`
		Usage *Usage `json:"usage"`
	} `json:"x_groq,omitempty"`
}

// Verify interface
var _ LLMClient = (*GroqClient)(nil)
