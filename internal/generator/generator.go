// Package generator orchestrates book generation: one title request, one
// structured outline request, then a streamed prose request per flattened
// outline leaf, exposed to the caller as a lazy event stream.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/booksmith/booksmith/internal/metrics"
	"github.com/booksmith/booksmith/internal/prompts"
	"github.com/booksmith/booksmith/internal/providers"
)

// Generation parameters per request kind. Title responses are short and a
// little creative; outline and prose requests run cooler and longer.
const (
	titleTemperature = 0.7
	titleMaxTokens   = 100
	bodyTemperature  = 0.3
	bodyMaxTokens    = 8000
)

// Defaults applied to empty optional request fields.
const (
	DefaultWritingStyle    = "Formal"
	DefaultComplexityLevel = "Intermediate"
)

// ErrEmptyTopic is returned when a generation request has no topic.
var ErrEmptyTopic = errors.New("topic is required")

// Generator drives book generation against a single LLM client. The model
// is fixed for the generator's lifetime via the client.
type Generator struct {
	client providers.LLMClient
	logger *slog.Logger
}

// New creates a generator around the given client.
func New(client providers.LLMClient, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{client: client, logger: logger}
}

// Request holds the generation parameters. Only Topic is required; empty
// style and complexity fall back to the defaults, and empty optional
// fields are omitted from prompts entirely.
type Request struct {
	Topic                  string
	AdditionalInstructions string
	WritingStyle           string
	ComplexityLevel        string
	SeedContent            string
}

// Generate starts a generation run and returns its event stream. The run
// is fully lazy: no request is issued until the consumer pulls the event
// that needs it, and a consumer that stops pulling causes no further
// requests. Events arrive in a fixed order: one progress event announcing
// the title, one statistics event for the outline request, zero or more
// cumulative statistics snapshots per section, and finally the completed
// book, after which Recv returns io.EOF. Any error is fatal: the stream
// terminates without a book event and the partial document is discarded.
func (g *Generator) Generate(ctx context.Context, req Request) *Stream {
	if req.WritingStyle == "" {
		req.WritingStyle = DefaultWritingStyle
	}
	if req.ComplexityLevel == "" {
		req.ComplexityLevel = DefaultComplexityLevel
	}
	return &Stream{gen: g, ctx: ctx, req: req}
}

// generateTitle issues the blocking title request and returns the trimmed
// title text.
func (g *Generator) generateTitle(ctx context.Context, req Request) (string, error) {
	system, err := prompts.Render(prompts.TitleSystem, nil)
	if err != nil {
		return "", err
	}
	user, err := prompts.Render(prompts.TitleUser, prompts.TitleData{Topic: req.Topic})
	if err != nil {
		return "", err
	}

	g.logger.Debug("requesting title", "topic", req.Topic, "model", g.client.Model())
	result, err := g.client.Chat(ctx, &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: titleTemperature,
		MaxTokens:   titleMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("title request failed: %w", err)
	}
	return strings.TrimSpace(result.Content), nil
}

// generateOutline issues the blocking structured outline request and
// returns the raw JSON text plus the request's usage record.
func (g *Generator) generateOutline(ctx context.Context, req Request) (string, *metrics.GenerationStats, error) {
	system, err := prompts.Render(prompts.OutlineSystem, nil)
	if err != nil {
		return "", nil, err
	}
	user, err := prompts.Render(prompts.OutlineUser, prompts.OutlineData{
		Topic:                  req.Topic,
		AdditionalInstructions: req.AdditionalInstructions,
		WritingStyle:           req.WritingStyle,
		ComplexityLevel:        req.ComplexityLevel,
		SeedContent:            req.SeedContent,
	})
	if err != nil {
		return "", nil, err
	}

	g.logger.Debug("requesting outline", "topic", req.Topic, "model", g.client.Model())
	result, err := g.client.Chat(ctx, &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    bodyTemperature,
		MaxTokens:      bodyMaxTokens,
		ResponseFormat: &providers.ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", nil, fmt.Errorf("outline request failed: %w", err)
	}

	return result.Content, g.statsFromUsage(&result.Usage), nil
}

// openSection opens the streamed prose request for one outline leaf.
func (g *Generator) openSection(ctx context.Context, leaf Leaf, req Request) (providers.ChatStream, error) {
	system, err := prompts.Render(prompts.SectionSystem, nil)
	if err != nil {
		return nil, err
	}
	user, err := prompts.Render(prompts.SectionUser, prompts.SectionData{
		Title:                  leaf.Title,
		Description:            leaf.Description,
		AdditionalInstructions: req.AdditionalInstructions,
		WritingStyle:           req.WritingStyle,
		ComplexityLevel:        req.ComplexityLevel,
		SeedContent:            req.SeedContent,
	})
	if err != nil {
		return nil, err
	}

	g.logger.Debug("streaming section", "section", leaf.Title, "model", g.client.Model())
	stream, err := g.client.ChatStream(ctx, &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: bodyTemperature,
		MaxTokens:   bodyMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("section %q request failed: %w", leaf.Title, err)
	}
	return stream, nil
}

func (g *Generator) statsFromUsage(u *providers.Usage) *metrics.GenerationStats {
	return &metrics.GenerationStats{
		Model:        g.client.Model(),
		InputTime:    u.PromptTime,
		OutputTime:   u.CompletionTime,
		TotalTime:    u.TotalTime,
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
	}
}
