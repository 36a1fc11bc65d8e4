package generator

import (
	"github.com/booksmith/booksmith/internal/book"
	"github.com/booksmith/booksmith/internal/metrics"
)

// EventKind discriminates the payload of a stream Event.
type EventKind string

const (
	// EventProgress carries a human-readable progress message.
	EventProgress EventKind = "progress"
	// EventStats carries a usage statistics snapshot.
	EventStats EventKind = "stats"
	// EventBook carries the completed book. Always the final event.
	EventBook EventKind = "book"
)

// Event is one element of the generation stream. Exactly one payload
// field is set, matching Kind; consumers branch on Kind, not on payload
// presence.
type Event struct {
	Kind     EventKind
	Progress string
	Stats    *metrics.GenerationStats
	Book     *book.Book
}
