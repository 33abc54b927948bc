// Package compile renders BibTeX entries as a legacy thebibliography
// environment or as an enumerated list.
package compile

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/francescoalemanno/latex-thebib/internal/bibtex"
	"github.com/francescoalemanno/latex-thebib/internal/latex"
)

// ErrMissingField is returned for an entry lacking a required field.
var ErrMissingField = errors.New("missing required field")

// RequiredFields must be present in every compiled entry.
var RequiredFields = []string{"author", "title", "year"}

// Options controls the compiled output.
type Options struct {
	Publisher  bool   // append "- publisher" when the entry has one
	Sort       bool   // most recent year first
	AsList     bool   // \begin{enumerate} with \item[(n)] labels
	CitePrefix string // prepended to every \bibitem key
}

// Compile renders entries in input order, or by year when opts.Sort is set.
// Entries missing a required field are left out and reported; the output
// still holds every other entry.
func Compile(entries []bibtex.Entry, opts Options) (string, []error) {
	var errs []error
	valid := make([]bibtex.Entry, 0, len(entries))
	for _, e := range entries {
		if err := Validate(e); err != nil {
			errs = append(errs, err)
			continue
		}
		valid = append(valid, e)
	}

	if opts.Sort {
		SortByYear(valid)
	}

	var b strings.Builder
	if opts.AsList {
		b.WriteString("\\begin{enumerate}\n")
	} else {
		b.WriteString(fmt.Sprintf("\\begin{thebibliography}{%d}\n\n", latex.BibliographySize(len(valid))))
	}

	for n, e := range valid {
		label := fmt.Sprintf("\\bibitem{%s%s}", opts.CitePrefix, e.Key)
		if opts.AsList {
			label = fmt.Sprintf("\\item[(%d)] ", n+1)
		}
		b.WriteString(latex.CleanBibText(label + " " + FormatText(e, opts)))
		b.WriteString("\n\n")
	}

	if opts.AsList {
		b.WriteString("\\end{enumerate}")
	} else {
		b.WriteString("\\end{thebibliography}")
	}

	return b.String(), errs
}

// Validate checks that e carries every required field.
func Validate(e bibtex.Entry) error {
	for _, name := range RequiredFields {
		if _, ok := e.Get(name); !ok {
			return fmt.Errorf("entry %s: %w %q", e.Key, ErrMissingField, name)
		}
	}
	return nil
}

// FormatText renders the bibliography text of one entry, without its label:
// authors, italic title, journal, volume block, optional publisher and year.
func FormatText(e bibtex.Entry, opts Options) string {
	elements := []string{
		FormatAuthors(e.Field("author")),
		fmt.Sprintf("\\textit{%s},", e.Field("title")),
		e.Field("journal"),
		FormatVolume(e.Field("volume"), e.Field("number"), e.Field("pages")),
	}
	if opts.Publisher {
		if p, ok := e.Get("publisher"); ok {
			elements = append(elements, "- "+p)
		}
	}
	elements = append(elements, fmt.Sprintf("(%s)", e.Field("year")))

	return strings.TrimSpace(latex.CleanBibText(strings.Join(elements, " ")))
}

// SortByYear orders entries by numeric year, most recent first. The sort is
// stable and a year that does not parse counts as 0.
func SortByYear(entries []bibtex.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return year(entries[i]) > year(entries[j])
	})
}

func year(e bibtex.Entry) int {
	y, err := strconv.Atoi(strings.TrimSpace(e.Field("year")))
	if err != nil {
		return 0
	}
	return y
}
