package generator

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/booksmith/booksmith/internal/providers"
)

func usage(in, out int, inTime, outTime float64) *providers.Usage {
	return &providers.Usage{
		PromptTokens:     in,
		CompletionTokens: out,
		TotalTokens:      in + out,
		PromptTime:       inTime,
		CompletionTime:   outTime,
		TotalTime:        inTime + outTime,
	}
}

// newTestMock scripts a full run: title, a nested outline with three
// leaves, and one stream per leaf. The middle leaf's stream omits usage.
func newTestMock() *providers.MockClient {
	mock := providers.NewMockClient()
	mock.ModelName = "test-model"
	mock.Responses = []string{
		"A Test Title",
		`{"A":"descA","B":{"B1":"descB1","B2":"descB2"}}`,
	}
	mock.ChatUsage = providers.Usage{
		PromptTokens: 50, CompletionTokens: 100,
		PromptTime: 0.1, CompletionTime: 0.2, TotalTime: 0.3,
	}
	mock.StreamScripts = [][]providers.StreamChunk{
		{
			{TextDelta: "Alpha "},
			{TextDelta: "content.", Usage: usage(10, 20, 0.1, 0.4)},
		},
		{
			// No usage payload at all: section generates silently.
			{TextDelta: "Beta one content."},
		},
		{
			{TextDelta: "Beta two "},
			{TextDelta: "content."},
			{Usage: usage(30, 40, 0.2, 0.6)},
		},
	}
	return mock
}

func collect(t *testing.T, s *Stream) []Event {
	t.Helper()
	var events []Event
	for {
		ev, err := s.Recv()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("Recv() error = %v", err)
		}
		events = append(events, ev)
	}
}

func TestGenerate_EventSequence(t *testing.T) {
	mock := newTestMock()
	gen := New(mock, nil)

	events := collect(t, gen.Generate(context.Background(), Request{Topic: "testing"}))

	// progress, outline stats, stats for A, stats for B2, book.
	if len(events) != 5 {
		t.Fatalf("got %d events, want 5: %+v", len(events), events)
	}

	if events[0].Kind != EventProgress {
		t.Fatalf("event 0 kind = %s", events[0].Kind)
	}
	if events[0].Progress != "Generated title: A Test Title" {
		t.Errorf("progress = %q", events[0].Progress)
	}

	if events[1].Kind != EventStats {
		t.Fatalf("event 1 kind = %s", events[1].Kind)
	}
	if events[1].Stats.InputTokens != 50 || events[1].Stats.OutputTokens != 100 {
		t.Errorf("outline stats = %+v", events[1].Stats)
	}

	if events[2].Kind != EventStats {
		t.Fatalf("event 2 kind = %s", events[2].Kind)
	}
	if events[2].Stats.InputTokens != 10 || events[2].Stats.OutputTokens != 20 {
		t.Errorf("first section snapshot = %+v", events[2].Stats)
	}

	// Second snapshot is cumulative over both usage-reporting sections;
	// the middle section contributed nothing.
	if events[3].Kind != EventStats {
		t.Fatalf("event 3 kind = %s", events[3].Kind)
	}
	if events[3].Stats.InputTokens != 40 || events[3].Stats.OutputTokens != 60 {
		t.Errorf("cumulative snapshot = %+v", events[3].Stats)
	}
	if got := events[3].Stats.TotalTime; got < 1.29 || got > 1.31 {
		t.Errorf("cumulative TotalTime = %v, want 1.3", got)
	}

	if events[4].Kind != EventBook {
		t.Fatalf("event 4 kind = %s", events[4].Kind)
	}
	b := events[4].Book
	if b.Title != "A Test Title" {
		t.Errorf("book title = %q", b.Title)
	}
	if len(b.Sections) != 3 {
		t.Fatalf("got %d sections: %+v", len(b.Sections), b.Sections)
	}
	wantSections := []struct{ title, content string }{
		{"A", "Alpha content."},
		{"B1", "Beta one content."},
		{"B2", "Beta two content."},
	}
	for i, want := range wantSections {
		if b.Sections[i].Title != want.title {
			t.Errorf("section %d title = %q, want %q", i, b.Sections[i].Title, want.title)
		}
		if b.Sections[i].Content != want.content {
			t.Errorf("section %d content = %q, want %q", i, b.Sections[i].Content, want.content)
		}
		if len(b.Sections[i].Subsections) != 0 {
			t.Errorf("section %d has subsections: %+v", i, b.Sections[i].Subsections)
		}
	}
}

func TestGenerate_SnapshotsAreIndependentCopies(t *testing.T) {
	mock := newTestMock()
	gen := New(mock, nil)

	events := collect(t, gen.Generate(context.Background(), Request{Topic: "testing"}))

	// The first section snapshot must not have been mutated by the later
	// merge for the third section.
	if events[2].Stats.InputTokens != 10 {
		t.Errorf("earlier snapshot mutated: %+v", events[2].Stats)
	}
}

func TestGenerate_Lazy(t *testing.T) {
	mock := newTestMock()
	gen := New(mock, nil)

	stream := gen.Generate(context.Background(), Request{Topic: "testing"})
	if mock.Requests() != 0 {
		t.Fatalf("requests before first Recv = %d", mock.Requests())
	}

	if _, err := stream.Recv(); err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	if mock.Requests() != 1 {
		t.Errorf("requests after title event = %d, want 1", mock.Requests())
	}
}

func TestGenerate_EmptyTopic(t *testing.T) {
	mock := newTestMock()
	gen := New(mock, nil)

	stream := gen.Generate(context.Background(), Request{Topic: "   "})
	_, err := stream.Recv()
	if !errors.Is(err, ErrEmptyTopic) {
		t.Fatalf("Recv() error = %v, want ErrEmptyTopic", err)
	}
	if mock.Requests() != 0 {
		t.Errorf("requests issued for empty topic: %d", mock.Requests())
	}
}

func TestGenerate_ErrorIsTerminal(t *testing.T) {
	mock := newTestMock()
	mock.ShouldFail = true
	gen := New(mock, nil)

	stream := gen.Generate(context.Background(), Request{Topic: "testing"})
	_, err := stream.Recv()
	if err == nil {
		t.Fatal("expected error from failing client")
	}

	// The error repeats; no book event ever arrives.
	_, err2 := stream.Recv()
	if err2 == nil || err2.Error() != err.Error() {
		t.Errorf("second Recv() = %v, want repeated %v", err2, err)
	}
}

func TestGenerate_InvalidOutlineIsFatal(t *testing.T) {
	mock := newTestMock()
	mock.Responses[1] = `this is not json`
	gen := New(mock, nil)

	stream := gen.Generate(context.Background(), Request{Topic: "testing"})
	if _, err := stream.Recv(); err != nil {
		t.Fatalf("title Recv() error = %v", err)
	}
	if _, err := stream.Recv(); err == nil {
		t.Fatal("expected outline parse error")
	}
}

func TestGenerate_MidStreamFailureDiscardsBook(t *testing.T) {
	mock := newTestMock()
	mock.FailAfter = 3 // title, outline, first section stream succeed
	gen := New(mock, nil)

	stream := gen.Generate(context.Background(), Request{Topic: "testing"})
	var sawBook bool
	var err error
	for {
		var ev Event
		ev, err = stream.Recv()
		if err != nil {
			break
		}
		if ev.Kind == EventBook {
			sawBook = true
		}
	}
	if err == io.EOF {
		t.Fatal("stream finished without the scripted failure")
	}
	if sawBook {
		t.Error("book event emitted despite mid-run failure")
	}
}

func TestGenerate_PromptWiring(t *testing.T) {
	mock := newTestMock()
	gen := New(mock, nil)

	collect(t, gen.Generate(context.Background(), Request{
		Topic:                  "tide pools",
		AdditionalInstructions: "include field guides",
		SeedContent:            "Anemones are...",
	}))

	calls := mock.Calls()
	if len(calls) != 5 {
		t.Fatalf("got %d calls, want 5", len(calls))
	}

	title := calls[0]
	if !strings.Contains(title.Messages[1].Content, "tide pools") {
		t.Errorf("title prompt = %q", title.Messages[1].Content)
	}
	if title.MaxTokens != 100 {
		t.Errorf("title MaxTokens = %d", title.MaxTokens)
	}
	if title.ResponseFormat != nil {
		t.Error("title request must not ask for structured output")
	}

	outline := calls[1]
	if outline.ResponseFormat == nil || outline.ResponseFormat.Type != "json_object" {
		t.Errorf("outline response format = %+v", outline.ResponseFormat)
	}
	// Defaults fill the empty style/complexity fields.
	if !strings.Contains(outline.Messages[1].Content, "Writing style: Formal") {
		t.Errorf("outline prompt missing default style: %q", outline.Messages[1].Content)
	}
	if !strings.Contains(outline.Messages[1].Content, "Complexity level: Intermediate") {
		t.Errorf("outline prompt missing default complexity: %q", outline.Messages[1].Content)
	}

	section := calls[2]
	if !strings.Contains(section.Messages[1].Content, "Generate content for section: A") {
		t.Errorf("section prompt = %q", section.Messages[1].Content)
	}
	if !strings.Contains(section.Messages[1].Content, "Consider this seed content: Anemones are...") {
		t.Errorf("section prompt missing seed: %q", section.Messages[1].Content)
	}
}
