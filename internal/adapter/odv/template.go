// Package odv writes row-tables in the ODV Generic Spreadsheet format: a
// static header template followed by tab-separated data rows.
package odv

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
)

//go:embed helgoland_header.txt
var helgolandHeader string

// Template is the static ODV header written before the data rows. Its text
// always ends with exactly one newline.
type Template struct {
	text string
}

// NewTemplate normalises raw header text.
func NewTemplate(raw string) (*Template, error) {
	text := strings.TrimRight(raw, "\n")
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("odv template is empty")
	}
	return &Template{text: text + "\n"}, nil
}

// LoadTemplate reads a header template from path. An empty path selects the
// built-in Helgoland OpenSea template.
func LoadTemplate(path string) (*Template, error) {
	if path == "" {
		return NewTemplate(helgolandHeader)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load odv template: %w", err)
	}
	return NewTemplate(string(data))
}

// Text returns the header text.
func (t *Template) Text() string { return t.text }

// ColumnLabels returns the fields of the template's column label line (the
// first line that is not a "//" comment), or nil when there is none.
func (t *Template) ColumnLabels() []string {
	for _, line := range strings.Split(strings.TrimRight(t.text, "\n"), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "//") || strings.TrimSpace(line) == "" {
			continue
		}
		return strings.Split(line, "\t")
	}
	return nil
}
