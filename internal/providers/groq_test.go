package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewGroqClient(t *testing.T) {
	t.Run("missing api key fails fast", func(t *testing.T) {
		_, err := NewGroqClient(GroqConfig{})
		if !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("NewGroqClient() error = %v, want ErrMissingAPIKey", err)
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		client, err := NewGroqClient(GroqConfig{APIKey: "test-key"})
		if err != nil {
			t.Fatalf("NewGroqClient() error = %v", err)
		}
		if client.Model() != DefaultGroqModel {
			t.Errorf("Model() = %q, want %q", client.Model(), DefaultGroqModel)
		}
		if client.Name() != GroqName {
			t.Errorf("Name() = %q", client.Name())
		}
	})
}

func TestGroqClient_Chat(t *testing.T) {
	t.Run("successful chat with usage timings", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chat/completions" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if r.Method != "POST" {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("unexpected authorization: %s", auth)
			}

			var req groqRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			if req.Stream {
				t.Error("blocking chat must not set stream")
			}

			resp := map[string]any{
				"id":    "chatcmpl-test",
				"model": "llama-3.3-70b-versatile",
				"choices": []map[string]any{
					{
						"message": map[string]any{
							"role":    "assistant",
							"content": "A Concise History of Everything Worth Knowing",
						},
						"finish_reason": "stop",
					},
				},
				"usage": map[string]any{
					"prompt_tokens":     25,
					"completion_tokens": 9,
					"total_tokens":      34,
					"queue_time":        0.003,
					"prompt_time":       0.011,
					"completion_time":   0.13,
					"total_time":        0.141,
				},
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		client, err := NewGroqClient(GroqConfig{APIKey: "test-key", BaseURL: server.URL})
		if err != nil {
			t.Fatalf("NewGroqClient() error = %v", err)
		}

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "Hello"}},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if result.Content != "A Concise History of Everything Worth Knowing" {
			t.Errorf("Content = %q", result.Content)
		}
		if result.Usage.PromptTokens != 25 || result.Usage.CompletionTokens != 9 {
			t.Errorf("token counts = %d/%d", result.Usage.PromptTokens, result.Usage.CompletionTokens)
		}
		if result.Usage.PromptTime != 0.011 {
			t.Errorf("PromptTime = %v, want 0.011", result.Usage.PromptTime)
		}
		if result.Usage.CompletionTime != 0.13 {
			t.Errorf("CompletionTime = %v, want 0.13", result.Usage.CompletionTime)
		}
		if result.Usage.TotalTime != 0.141 {
			t.Errorf("TotalTime = %v, want 0.141", result.Usage.TotalTime)
		}
	})

	t.Run("response format passed through", func(t *testing.T) {
		var gotFormat *ResponseFormat
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req groqRequest
			json.NewDecoder(r.Body).Decode(&req)
			gotFormat = req.ResponseFormat

			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"role": "assistant", "content": "{}"}},
				},
			})
		}))
		defer server.Close()

		client, _ := NewGroqClient(GroqConfig{APIKey: "test-key", BaseURL: server.URL})
		_, err := client.Chat(context.Background(), &ChatRequest{
			Messages:       []Message{{Role: "user", Content: "outline please"}},
			ResponseFormat: &ResponseFormat{Type: "json_object"},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if gotFormat == nil || gotFormat.Type != "json_object" {
			t.Errorf("response_format = %+v", gotFormat)
		}
	})

	t.Run("non-200 status is fatal", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
		}))
		defer server.Close()

		client, _ := NewGroqClient(GroqConfig{APIKey: "bad-key", BaseURL: server.URL})
		_, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "Hello"}},
		})
		if err == nil {
			t.Fatal("expected error for 401 response")
		}
	})

	t.Run("empty choices is fatal", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		}))
		defer server.Close()

		client, _ := NewGroqClient(GroqConfig{APIKey: "test-key", BaseURL: server.URL})
		_, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "Hello"}},
		})
		if err == nil {
			t.Fatal("expected error for empty choices")
		}
	})

	t.Run("model override per request", func(t *testing.T) {
		var gotModel string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req groqRequest
			json.NewDecoder(r.Body).Decode(&req)
			gotModel = req.Model
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"role": "assistant", "content": "ok"}},
				},
			})
		}))
		defer server.Close()

		client, _ := NewGroqClient(GroqConfig{APIKey: "test-key", BaseURL: server.URL, Model: "default-model"})
		client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "Hello"}},
			Model:    "other-model",
		})
		if gotModel != "other-model" {
			t.Errorf("model = %q, want other-model", gotModel)
		}
	})
}
