// Package refactor cleans legacy thebibliography documents: it extracts
// citations and entries across an include tree, canonicalizes duplicate keys
// and rewrites every file with one minimal, shared bibliography.
package refactor

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/francescoalemanno/latex-thebib/internal/latex"
)

// Options configures extraction and rewriting.
type Options struct {
	Threshold   float64    // clustering cutoff on normalized edit distance
	Subdir      string     // output folder created next to each file
	Extensions  []string   // include resolution suffixes, DefaultExtensions if empty
	SkipMissing bool       // record unresolved includes instead of failing
	DryRun      bool       // compute the rewrite without writing files
	FS          FileSystem // OSFileSystem if nil
	Logger      *slog.Logger
}

const (
	DefaultThreshold = 0.3
	DefaultSubdir    = "cleaned"
)

func (o Options) withDefaults() Options {
	if o.Subdir == "" {
		o.Subdir = DefaultSubdir
	}
	if len(o.Extensions) == 0 {
		o.Extensions = DefaultExtensions
	}
	if o.FS == nil {
		o.FS = OSFileSystem{}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Extraction is everything collected from a document tree.
type Extraction struct {
	Citations []latex.Citation `json:"citations"`
	Entries   []latex.BibEntry `json:"entries"`
	Files     []string         `json:"files"`   // visit order
	Skipped   []*IncludeError  `json:"skipped"` // only with SkipMissing
}

// walker tracks the include stack of one traversal.
type walker struct {
	opts  Options
	stack []string
}

func newWalker(opts Options) *walker {
	return &walker{opts: opts.withDefaults()}
}

// enter pushes path on the include stack, failing if it is already there.
func (w *walker) enter(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return &FileError{Path: path, Op: "resolve", Err: err}
	}
	for i, p := range w.stack {
		if p == abs {
			chain := append(append([]string{}, w.stack[i:]...), abs)
			w.opts.Logger.Warn("include cycle", "chain", chain)
			return &CycleError{Chain: chain}
		}
	}
	w.stack = append(w.stack, abs)
	return nil
}

func (w *walker) leave() {
	w.stack = w.stack[:len(w.stack)-1]
}

// read returns the normalized content of path.
func (w *walker) read(path string) (string, error) {
	data, err := w.opts.FS.ReadFile(path)
	if err != nil {
		return "", &FileError{Path: path, Op: "read", Err: err}
	}
	return latex.Normalize(string(data)), nil
}

// resolve finds the target of an include directive in file. When the target
// is missing and SkipMissing is set, it returns ok=false and a nil error
// after recording the problem through skip.
func (w *walker) resolve(file string, tok latex.Token, skip func(*IncludeError)) (string, bool, error) {
	target, found := ResolveInclude(w.opts.FS, file, tok.Target(), w.opts.Extensions)
	if found {
		return target, true, nil
	}
	incErr := &IncludeError{File: file, Target: tok.Target()}
	if !w.opts.SkipMissing {
		return "", false, incErr
	}
	w.opts.Logger.Warn("skipping missing include", "file", file, "target", tok.Target())
	skip(incErr)
	return "", false, nil
}

// Extract walks the document tree rooted at root and collects every citation
// and bibliography entry. Citations are ordered by an in-order depth-first
// traversal: an include directive contributes its whole subtree at the point
// where it appears. Each file's own entries precede those of its includes.
func Extract(root string, opts Options) (*Extraction, error) {
	w := newWalker(opts)
	out := &Extraction{}
	if err := w.extract(root, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *walker) extract(path string, out *Extraction) error {
	if err := w.enter(path); err != nil {
		return err
	}
	defer w.leave()

	w.opts.Logger.Debug("extracting", "file", path, "depth", len(w.stack))
	text, err := w.read(path)
	if err != nil {
		return err
	}
	out.Files = append(out.Files, path)

	entries, err := latex.ParseBibliography(text)
	if err != nil {
		return &ParseError{File: path, Err: err}
	}
	out.Entries = append(out.Entries, entries...)

	for _, tok := range latex.Scan(text) {
		if tok.IsCitation() {
			c, err := latex.ParseCitation(tok)
			if err != nil {
				return &ParseError{File: path, Err: err}
			}
			out.Citations = append(out.Citations, c)
			continue
		}

		target, ok, err := w.resolve(path, tok, func(e *IncludeError) {
			out.Skipped = append(out.Skipped, e)
		})
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := w.extract(target, out); err != nil {
			return fmt.Errorf("in %s: %w", path, err)
		}
	}
	return nil
}
