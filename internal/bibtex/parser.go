package bibtex

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/francescoalemanno/latex-thebib/internal/latex"
)

// Parser state machine states
type parserState int

const (
	stateSeek parserState = iota // outside any entry, looking for '@'
	stateType                    // between '@' and the opening brace
	stateBody                    // inside the entry braces
)

// Entry types that carry no bibliography record.
var skippedTypes = map[string]bool{
	"comment":  true,
	"preamble": true,
	"string":   true,
}

// parser holds the state of the entry currently being read.
type parser struct {
	data string

	start     int // offset of the current '@'
	typeStart int
	entryType string
	depth     int
	inQuote   bool
	partStart int
	parts     []string

	entries []Entry
	errs    []error
}

// Parse reads every entry of a BibTeX database.
//
// The body of an entry is split on commas at brace depth 1; commas nested in
// braces or in a double-quoted value are part of the value. The first part
// is the citation key and each following part is a name = value field.
//
// Parsing is best-effort: a malformed field is dropped and reported, and the
// rest of its entry is kept. A missing opening brace or an unterminated entry
// stops the scan. Entries read before the failure are still returned.
func Parse(data string) ([]Entry, []error) {
	p := &parser{data: data}
	state := stateSeek

	for i := 0; i < len(data); i++ {
		c := data[i]

		switch state {
		case stateSeek:
			if c == '@' {
				p.start = i
				p.typeStart = i + 1
				state = stateType
			}

		case stateType:
			if c == '{' {
				p.entryType = strings.ToLower(strings.TrimSpace(data[p.typeStart:i]))
				p.depth = 1
				p.inQuote = false
				p.partStart = i + 1
				p.parts = nil
				state = stateBody
			} else if !isTypeChar(c) {
				p.errs = append(p.errs, &ParseError{
					Offset:  p.start,
					Message: "expected { after entry type",
					Context: truncate(data[p.start:min(len(data), i+1)], 40),
				})
				return p.entries, p.errs
			}

		case stateBody:
			if p.step(i, c) {
				p.finish()
				state = stateSeek
			}
		}
	}

	switch state {
	case stateType:
		p.errs = append(p.errs, &ParseError{
			Offset:  p.start,
			Message: "expected { after entry type",
			Context: truncate(data[p.start:], 40),
		})
	case stateBody:
		p.errs = append(p.errs, &ParseError{
			Offset:  p.start,
			Message: "unterminated entry",
			Context: truncate(data[p.start:], 40),
		})
	}

	return p.entries, p.errs
}

// step consumes one byte of an entry body and reports whether it closed
// the entry.
func (p *parser) step(i int, c byte) bool {
	quoted := !skippedTypes[p.entryType]

	if p.inQuote {
		switch {
		case c == '{':
			p.depth++
		case c == '}' && p.depth > 1:
			p.depth--
		case c == '"' && p.depth == 1 && p.data[i-1] != '\\':
			p.inQuote = false
		}
		return false
	}

	switch c {
	case '"':
		if quoted && p.depth == 1 {
			p.inQuote = true
		}
	case '{':
		p.depth++
	case '}':
		if p.depth == 1 {
			p.parts = append(p.parts, strings.TrimSpace(p.data[p.partStart:i]))
			return true
		}
		p.depth--
	case ',':
		if p.depth == 1 {
			p.parts = append(p.parts, strings.TrimSpace(p.data[p.partStart:i]))
			p.partStart = i + 1
		}
	}
	return false
}

// finish converts the collected parts into an Entry.
func (p *parser) finish() {
	if skippedTypes[p.entryType] {
		return
	}

	key := p.parts[0]
	if key == "" || strings.Contains(key, "=") {
		p.errs = append(p.errs, &ParseError{
			Offset:  p.start,
			Message: "entry without citation key",
			Context: truncate(p.data[p.start:p.partStart], 40),
		})
		return
	}

	entry := Entry{
		Type:   p.entryType,
		Key:    key,
		Fields: make(map[string]string, len(p.parts)-1),
		Offset: p.start,
	}

	for _, part := range p.parts[1:] {
		if part == "" {
			// Trailing comma
			continue
		}
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			p.errs = append(p.errs, &ParseError{
				Offset:  p.start,
				Message: fmt.Sprintf("field without = in entry %s", key),
				Context: truncate(part, 40),
			})
			continue
		}
		name := strings.ToLower(strings.TrimSpace(part[:eq]))
		entry.Fields[name] = trimDelimiters(strings.TrimSpace(part[eq+1:]))
	}

	p.entries = append(p.entries, entry)
}

// ParseFile reads a .bib file, strips % comments with latex.Normalize and
// parses the result. A read failure is returned as the only error.
func ParseFile(path string) ([]Entry, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{fmt.Errorf("reading %s: %w", path, err)}
	}
	return Parse(latex.Normalize(string(data)))
}

// trimDelimiters removes one enclosing pair of braces or double quotes.
// Braces are only removed when the first one closes at the very end, so
// "{A} and {B}" is kept intact.
func trimDelimiters(v string) string {
	if len(v) < 2 {
		return v
	}
	switch {
	case v[0] == '"' && v[len(v)-1] == '"':
		return v[1 : len(v)-1]
	case v[0] == '{' && v[len(v)-1] == '}':
		depth := 0
		for i := 0; i < len(v); i++ {
			switch v[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 && i != len(v)-1 {
					return v
				}
			}
		}
		return v[1 : len(v)-1]
	}
	return v
}

func isTypeChar(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' ||
		c == '_' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// truncate shortens s to at most maxLen bytes, adding "..." and never
// splitting a UTF-8 sequence.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
