// Package book provides the document model for generated books: a titled
// tree of sections with ordered children, plus markdown rendering.
// This package has no dependencies on other booksmith packages.
package book

import "strings"

// Section is one node of the book tree. Content is appended to while the
// section is being generated and is not touched afterwards. Subsections
// keep insertion order.
type Section struct {
	Title       string
	Content     string
	Subsections []*Section
}

// NewSection creates an empty section with the given title.
func NewSection(title string) *Section {
	return &Section{Title: title}
}

// AddSubsection appends a child section, preserving insertion order.
func (s *Section) AddSubsection(sub *Section) {
	s.Subsections = append(s.Subsections, sub)
}

// ToMap serializes the section (and its subtree) to a nested map.
func (s *Section) ToMap() map[string]any {
	subs := make(map[string]any, len(s.Subsections))
	for _, sub := range s.Subsections {
		subs[sub.Title] = sub.ToMap()
	}
	return map[string]any{
		"title":       s.Title,
		"content":     s.Content,
		"subsections": subs,
	}
}

// Book is a titled, ordered collection of sections. It owns its sections
// exclusively; sections are never shared between books.
type Book struct {
	Title    string
	Sections []*Section
}

// New creates an empty book with the given title.
func New(title string) *Book {
	return &Book{Title: title}
}

// AddSection appends a top-level section, preserving insertion order.
func (b *Book) AddSection(s *Section) {
	b.Sections = append(b.Sections, s)
}

// Section returns the first top-level section with the given title, or nil.
func (b *Book) Section(title string) *Section {
	for _, s := range b.Sections {
		if s.Title == title {
			return s
		}
	}
	return nil
}

// ToMap serializes the book to a nested map.
func (b *Book) ToMap() map[string]any {
	sections := make(map[string]any, len(b.Sections))
	for _, s := range b.Sections {
		sections[s.Title] = s.ToMap()
	}
	return map[string]any{
		"title":    b.Title,
		"sections": sections,
	}
}

// Markdown renders the book as flat markdown text: the book title as a
// level-1 heading, then each section depth-first with heading depth equal
// to its nesting level (top-level sections start at level 1), followed by
// the section content and a blank line.
func (b *Book) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(b.Title)
	sb.WriteString("\n\n")

	for _, s := range b.Sections {
		writeSection(&sb, s, 1)
	}

	return sb.String()
}

func writeSection(sb *strings.Builder, s *Section, level int) {
	sb.WriteString(strings.Repeat("#", level))
	sb.WriteString(" ")
	sb.WriteString(s.Title)
	sb.WriteString("\n")
	sb.WriteString(s.Content)
	sb.WriteString("\n\n")

	for _, sub := range s.Subsections {
		writeSection(sb, sub, level+1)
	}
}
