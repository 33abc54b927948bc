// Package library keeps a persistent collection of bibliography entries.
//
// A JSONL file is the source of truth; a SQLite database with an FTS5 index
// is a cache rebuilt from it.
package library

import (
	"errors"
	"path/filepath"

	"github.com/francescoalemanno/latex-thebib/internal/latex"
)

// File names inside a library directory.
const (
	EntriesFile = "library.jsonl"
	DBFile      = "library.db"
)

// Source formats.
const (
	FormatBibTeX = "bibtex"
	FormatLaTeX  = "latex"
)

// ErrNotFound is returned when a key is not in the library.
var ErrNotFound = errors.New("entry not found")

// Entry is one stored bibliography record.
type Entry struct {
	Key      string `json:"key"`
	Text     string `json:"text"`
	Source   Source `json:"source"`
	ImportID string `json:"import_id"` // batch that last wrote the entry
}

// Source records where an entry was imported from.
type Source struct {
	File   string `json:"file"`
	Format string `json:"format"` // bibtex or latex
}

// BibEntry returns the entry as a \bibitem record.
func (e Entry) BibEntry() latex.BibEntry {
	return latex.BibEntry{Key: e.Key, Text: e.Text}
}

// EntriesPath returns the path to library.jsonl in dir.
func EntriesPath(dir string) string {
	return filepath.Join(dir, EntriesFile)
}

// DBPath returns the path to library.db in dir.
func DBPath(dir string) string {
	return filepath.Join(dir, DBFile)
}
