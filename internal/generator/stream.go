package generator

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/booksmith/booksmith/internal/book"
	"github.com/booksmith/booksmith/internal/metrics"
	"github.com/booksmith/booksmith/internal/providers"
)

type streamState int

const (
	stateStart streamState = iota
	stateOutline
	stateSections
	stateBook
	stateDone
)

// Stream is the lazy event sequence of one generation run. It is a pull
// state machine: each Recv performs only the work needed to produce the
// next event, so abandoning the stream issues no further requests. Recv
// returns io.EOF after the final book event; any other error is terminal
// and repeats on subsequent calls.
//
// A Stream is single-use and not safe for concurrent Recv calls.
type Stream struct {
	gen *Generator
	ctx context.Context
	req Request

	state streamState
	err   error

	title   string
	leaves  []Leaf
	leafIdx int

	// Section in flight. Content accumulates in curBuf and is moved into
	// the section only once its stream drains, so a half-filled section is
	// never visible in the book.
	cur    providers.ChatStream
	curSec *book.Section
	curBuf strings.Builder

	total *metrics.GenerationStats
	book  *book.Book
}

// Recv returns the next event in the sequence.
func (s *Stream) Recv() (Event, error) {
	if s.err != nil {
		return Event{}, s.err
	}

	switch s.state {
	case stateStart:
		if strings.TrimSpace(s.req.Topic) == "" {
			return s.fail(ErrEmptyTopic)
		}
		title, err := s.gen.generateTitle(s.ctx, s.req)
		if err != nil {
			return s.fail(err)
		}
		s.title = title
		s.state = stateOutline
		return Event{Kind: EventProgress, Progress: "Generated title: " + title}, nil

	case stateOutline:
		raw, stats, err := s.gen.generateOutline(s.ctx, s.req)
		if err != nil {
			return s.fail(err)
		}
		leaves, err := ParseOutline(raw)
		if err != nil {
			return s.fail(err)
		}
		s.leaves = leaves
		s.book = book.New(s.title)
		s.total = metrics.New(s.gen.client.Model())
		s.state = stateSections
		return Event{Kind: EventStats, Stats: stats}, nil

	case stateSections:
		return s.nextSectionEvent()

	case stateBook:
		s.state = stateDone
		return Event{Kind: EventBook, Book: s.book}, nil

	default:
		return Event{}, io.EOF
	}
}

// nextSectionEvent drains section streams, appending prose silently and
// surfacing a cumulative statistics snapshot whenever a stream delivers a
// usage payload. Sections whose stream reports no usage produce no event
// at all.
func (s *Stream) nextSectionEvent() (Event, error) {
	for {
		if s.cur == nil {
			if s.leafIdx >= len(s.leaves) {
				s.state = stateBook
				return s.Recv()
			}
			leaf := s.leaves[s.leafIdx]
			stream, err := s.gen.openSection(s.ctx, leaf, s.req)
			if err != nil {
				return s.fail(err)
			}
			s.cur = stream
			s.curSec = book.NewSection(leaf.Title)
			s.curBuf.Reset()
		}

		chunk, err := s.cur.Recv()
		if err == io.EOF {
			s.cur.Close()
			s.cur = nil
			s.curSec.Content = s.curBuf.String()
			s.book.AddSection(s.curSec)
			s.curSec = nil
			s.leafIdx++
			continue
		}
		if err != nil {
			s.cur.Close()
			s.cur = nil
			return s.fail(fmt.Errorf("section %q stream failed: %w", s.leaves[s.leafIdx].Title, err))
		}

		s.curBuf.WriteString(chunk.TextDelta)
		if chunk.Usage != nil {
			s.total.Add(s.gen.statsFromUsage(chunk.Usage))
			return Event{Kind: EventStats, Stats: s.total.Clone()}, nil
		}
	}
}

// Close releases any in-flight section stream. Recv returns io.EOF
// afterwards. Closing a finished stream is a no-op.
func (s *Stream) Close() error {
	s.state = stateDone
	if s.cur != nil {
		err := s.cur.Close()
		s.cur = nil
		return err
	}
	return nil
}

func (s *Stream) fail(err error) (Event, error) {
	s.err = err
	s.state = stateDone
	return Event{}, err
}
