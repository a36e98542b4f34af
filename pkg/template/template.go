// Package template holds the system-prompt template. The template is
// configuration, not logic: it is loaded once at startup, validated to
// contain exactly the documented substitution point, and rendered per
// request with the retrieved context.
package template

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Placeholder is the single documented substitution point.
const Placeholder = "{{context}}"

// Default is the built-in system prompt used when no template asset is
// configured.
const Default = `You are a helpful assistant answering questions about Martin Hristev's CV.

Guidelines:
- Use conversation history for context
- Answer based on the CV context provided
- Be concise and accurate
- Prefer giving a concrete answer over saying that information is not specified.
- When the user asks about total years of experience, infer a reasonable total from the CV dates and roles.
  - If the exact number is not explicitly stated, provide your best estimate in years and clearly mark it as an estimate.
  - Example style: "Martin has approximately 5-6 years of total professional experience based on the CV timeline."
- Reference previous conversation naturally when relevant.

CV Context:

{{context}}`

// ErrMissingPlaceholder indicates the template text has no substitution point.
var ErrMissingPlaceholder = errors.New("template: missing " + Placeholder + " placeholder")

// Template is a validated system-prompt template.
type Template struct {
	text string
}

// New validates the template text and returns a Template.
func New(text string) (*Template, error) {
	if !strings.Contains(text, Placeholder) {
		return nil, ErrMissingPlaceholder
	}

	return &Template{text: text}, nil
}

// NewFromFile loads and validates a template asset. A missing or invalid
// asset is a startup failure.
func NewFromFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("template: read %s: %w", path, err)
	}

	return New(string(data))
}

// Render substitutes the trimmed context into the template.
func (t *Template) Render(context string) string {
	return strings.ReplaceAll(t.text, Placeholder, strings.TrimSpace(context))
}
