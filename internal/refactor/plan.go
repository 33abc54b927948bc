package refactor

import (
	"github.com/francescoalemanno/latex-thebib/internal/latex"
	"github.com/francescoalemanno/latex-thebib/internal/similarity"
)

// MissingEntryText is the bibliography text written for a cited key that has
// no entry anywhere in the document tree.
const MissingEntryText = "ERROR, BIBENTRY NOT FOUND."

// Lookup supplies text for cited keys that the document itself lacks.
type Lookup func(key string) (text string, ok bool)

// RewritePlan is the read-only context shared by every file of a rewrite.
type RewritePlan struct {
	Citations    []latex.Citation `json:"citations"`    // cleaned, in extraction order
	Bibliography []latex.BibEntry `json:"bibliography"` // minimal, in first-citation order
	Missing      []string         `json:"missing"`      // cited keys given MissingEntryText
	Recovered    []string         `json:"recovered"`    // cited keys filled by the fallback Lookup

	block     string
	rewritten map[string]string
}

// Block returns the thebibliography environment that replaces every block
// in the tree.
func (p *RewritePlan) Block() string {
	return p.block
}

// Rewritten returns the cleaned rendering of a raw citation command.
func (p *RewritePlan) Rewritten(raw string) (string, bool) {
	s, ok := p.rewritten[raw]
	return s, ok
}

// Plan remaps every citation through the clustering, removes duplicate keys
// within each citation and builds the minimal bibliography: each distinct
// cited key once, in order of first citation.
//
// A cited key with no canonical entry is looked up through fallback, when
// given, and otherwise receives MissingEntryText.
func Plan(citations []latex.Citation, clustering similarity.Clustering, fallback Lookup) *RewritePlan {
	plan := &RewritePlan{rewritten: make(map[string]string, len(citations))}

	for _, c := range citations {
		cleaned := CleanCitation(c, clustering)
		plan.Citations = append(plan.Citations, cleaned)
		plan.rewritten[c.Raw] = cleaned.String()
	}

	texts := make(map[string]string, len(clustering.Canonical))
	for _, e := range clustering.Canonical {
		texts[e.Key] = e.Text
	}

	for _, key := range OrderedKeys(plan.Citations) {
		text, ok := texts[key]
		if !ok && fallback != nil {
			if text, ok = fallback(key); ok {
				plan.Recovered = append(plan.Recovered, key)
			}
		}
		if !ok {
			text = MissingEntryText
			plan.Missing = append(plan.Missing, key)
		}
		plan.Bibliography = append(plan.Bibliography, latex.BibEntry{Key: key, Text: text})
	}

	plan.block = latex.RenderBibliography(plan.Bibliography)
	return plan
}

// CleanCitation maps each key of c to its canonical key and drops repeats,
// keeping the first occurrence. The result is a new Citation; c is unchanged.
func CleanCitation(c latex.Citation, clustering similarity.Clustering) latex.Citation {
	seen := make(map[string]bool, len(c.Keys))
	keys := make([]string, 0, len(c.Keys))
	for _, k := range c.Keys {
		canon := clustering.Lookup(k)
		if seen[canon] {
			continue
		}
		seen[canon] = true
		keys = append(keys, canon)
	}
	return latex.Citation{Keys: keys, Kind: c.Kind, Raw: c.Raw}
}

// OrderedKeys returns the distinct keys of citations in first-seen order.
func OrderedKeys(citations []latex.Citation) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, c := range citations {
		for _, k := range c.Keys {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}
