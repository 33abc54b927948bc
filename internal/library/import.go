package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/francescoalemanno/latex-thebib/internal/bibtex"
	"github.com/francescoalemanno/latex-thebib/internal/compile"
	"github.com/francescoalemanno/latex-thebib/internal/latex"
)

// Import actions.
const (
	ActionNew    = "new"
	ActionUpdate = "update"
	ActionSkip   = "skip"
)

// EntryWithAction pairs an incoming entry with what the import does to it.
type EntryWithAction struct {
	Entry       Entry  `json:"entry"`
	Action      string `json:"action"`       // new, update, skip
	ExistingIdx int    `json:"existing_idx"` // index in the merged entries, -1 for new
}

// ImportResult summarizes one import run.
type ImportResult struct {
	ImportID string            `json:"import_id"`
	Actions  []EntryWithAction `json:"actions"`
	New      int               `json:"new"`
	Updated  int               `json:"updated"`
	Skipped  int               `json:"skipped"`
	Errors   []string          `json:"errors,omitempty"`
}

// NewImportID returns a fresh identifier for an import batch.
func NewImportID() string {
	return uuid.NewString()
}

// Merge folds incoming into existing and returns the merged entries.
//
// An incoming key not yet present is new. A present key with different text
// is an update, and the stored entry takes the incoming text, source and
// importID. A present key with identical text is skipped. Keys repeated
// within incoming are compared against the earlier incoming entry.
// existing is not modified.
func Merge(existing, incoming []Entry, importID string) ([]Entry, []EntryWithAction) {
	merged := make([]Entry, len(existing), len(existing)+len(incoming))
	copy(merged, existing)

	index := make(map[string]int, len(merged))
	for i, e := range merged {
		index[e.Key] = i
	}

	actions := make([]EntryWithAction, 0, len(incoming))
	for _, e := range incoming {
		e.ImportID = importID
		idx, found := index[e.Key]
		switch {
		case !found:
			index[e.Key] = len(merged)
			merged = append(merged, e)
			actions = append(actions, EntryWithAction{Entry: e, Action: ActionNew, ExistingIdx: -1})
		case merged[idx].Text == e.Text:
			actions = append(actions, EntryWithAction{Entry: merged[idx], Action: ActionSkip, ExistingIdx: idx})
		default:
			merged[idx] = e
			actions = append(actions, EntryWithAction{Entry: e, Action: ActionUpdate, ExistingIdx: idx})
		}
	}
	return merged, actions
}

// ReadSource reads the entries of a file to import. A .bib file is parsed
// as BibTeX and each entry is rendered with compile.FormatText; anything
// else is read as LaTeX and its thebibliography entries are taken.
// Problems with single entries are returned alongside the entries that
// could be read.
func ReadSource(path string, opts compile.Options) ([]Entry, []error) {
	if strings.EqualFold(filepath.Ext(path), ".bib") {
		return readBibTeX(path, opts)
	}
	return readLaTeX(path)
}

func readBibTeX(path string, opts compile.Options) ([]Entry, []error) {
	parsed, errs := bibtex.ParseFile(path)
	var entries []Entry
	for _, be := range parsed {
		if err := compile.Validate(be); err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, Entry{
			Key:    be.Key,
			Text:   compile.FormatText(be, opts),
			Source: Source{File: path, Format: FormatBibTeX},
		})
	}
	return entries, errs
}

func readLaTeX(path string) ([]Entry, []error) {
	text, err := latex.ReadNormalized(path)
	if err != nil {
		return nil, []error{err}
	}
	items, err := latex.ParseBibliography(text)
	if err != nil {
		return nil, []error{fmt.Errorf("parsing %s: %w", path, err)}
	}
	entries := make([]Entry, len(items))
	for i, it := range items {
		entries[i] = Entry{
			Key:    it.Key,
			Text:   it.Text,
			Source: Source{File: path, Format: FormatLaTeX},
		}
	}
	return entries, nil
}

// Library is a library directory holding library.jsonl and library.db.
type Library struct {
	Dir string
}

// New returns the library stored in dir.
func New(dir string) *Library {
	return &Library{Dir: dir}
}

// Entries reads every stored entry.
func (l *Library) Entries() ([]Entry, error) {
	return ReadAll(EntriesPath(l.Dir))
}

// Import merges incoming into the library. Unless dryRun is set, the JSONL
// file is rewritten and the SQLite cache rebuilt from it.
func (l *Library) Import(incoming []Entry, dryRun bool) (*ImportResult, error) {
	existing, err := l.Entries()
	if err != nil {
		return nil, err
	}

	result := &ImportResult{ImportID: NewImportID()}
	merged, actions := Merge(existing, incoming, result.ImportID)
	result.Actions = actions
	for _, a := range actions {
		switch a.Action {
		case ActionNew:
			result.New++
		case ActionUpdate:
			result.Updated++
		case ActionSkip:
			result.Skipped++
		}
	}

	if dryRun {
		return result, nil
	}

	if err := os.MkdirAll(l.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating library directory: %w", err)
	}
	if err := WriteAll(EntriesPath(l.Dir), merged); err != nil {
		return nil, err
	}
	if _, err := l.Rebuild(); err != nil {
		return nil, err
	}
	return result, nil
}

// Rebuild recreates the SQLite cache from the JSONL file and returns the
// number of entries indexed.
func (l *Library) Rebuild() (int, error) {
	if err := os.MkdirAll(l.Dir, 0755); err != nil {
		return 0, fmt.Errorf("creating library directory: %w", err)
	}
	db, err := OpenDB(DBPath(l.Dir))
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return db.RebuildFromJSONL(EntriesPath(l.Dir))
}

// OpenDB opens the library's SQLite cache, rebuilding it first when the
// database file does not exist yet.
func (l *Library) OpenDB() (*DB, error) {
	if _, err := os.Stat(DBPath(l.Dir)); os.IsNotExist(err) {
		if _, err := l.Rebuild(); err != nil {
			return nil, err
		}
	}
	return OpenDB(DBPath(l.Dir))
}
