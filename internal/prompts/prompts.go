// Package prompts provides the prompt templates used for book generation.
// The embedded .tmpl files are the source of truth; each request kind has
// a system and a user template. Optional generation parameters are
// rendered as extra instruction lines only when non-empty.
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Template names.
const (
	TitleSystem   = "title_system"
	TitleUser     = "title_user"
	OutlineSystem = "outline_system"
	OutlineUser   = "outline_user"
	SectionSystem = "section_system"
	SectionUser   = "section_user"
)

// TitleData fills the title user prompt.
type TitleData struct {
	Topic string
}

// OutlineData fills the outline user prompt.
type OutlineData struct {
	Topic                  string
	AdditionalInstructions string
	WritingStyle           string
	ComplexityLevel        string
	SeedContent            string
}

// SectionData fills the per-section user prompt.
type SectionData struct {
	Title                  string
	Description            string
	AdditionalInstructions string
	WritingStyle           string
	ComplexityLevel        string
	SeedContent            string
}

var load = sync.OnceValue(func() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))
})

// Render executes the named template with the given data. Leading and
// trailing whitespace from the template files is trimmed.
func Render(name string, data any) (string, error) {
	var sb strings.Builder
	if err := load().ExecuteTemplate(&sb, name+".tmpl", data); err != nil {
		return "", fmt.Errorf("failed to render prompt %q: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}
