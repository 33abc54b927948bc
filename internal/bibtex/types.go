// Package bibtex parses BibTeX databases into typed entries.
package bibtex

import (
	"fmt"
	"strings"
)

// Entry is one BibTeX record, such as @article{key, ...}.
type Entry struct {
	Type   string            `json:"type"` // lower-cased entry type
	Key    string            `json:"key"`
	Fields map[string]string `json:"fields"` // lower-cased names, delimiters removed
	Offset int               `json:"offset"` // byte offset of the '@'
}

// Get returns the value of a field and whether it is present.
func (e Entry) Get(name string) (string, bool) {
	v, ok := e.Fields[strings.ToLower(name)]
	return v, ok
}

// Field returns the value of a field, or "" when absent.
func (e Entry) Field(name string) string {
	v, _ := e.Get(name)
	return v
}

// ParseError represents a problem found while parsing a BibTeX database.
type ParseError struct {
	Offset  int    `json:"offset"`
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
}

func (e *ParseError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("offset %d: %s", e.Offset, e.Message)
	}
	return fmt.Sprintf("offset %d: %s: %q", e.Offset, e.Message, e.Context)
}
