package latex

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	beginBibliography = `\begin{thebibliography}`
	endBibliography   = `\end{thebibliography}`
	bibitemCommand    = `\bibitem`
)

// BibEntry is one bibliography record.
type BibEntry struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// String renders the entry as \bibitem{key} text.
func (b BibEntry) String() string {
	return fmt.Sprintf("\\bibitem{%s} %s", b.Key, b.Text)
}

// Block is one \begin{thebibliography}...\end{thebibliography} region.
type Block struct {
	Start int // byte offset of \begin{thebibliography}
	End   int // byte offset just past \end{thebibliography}
	Raw   string
}

// FindBlocks returns every thebibliography block in text, in order.
// A begin marker without a matching end marker is a SyntaxError.
func FindBlocks(text string) ([]Block, error) {
	var blocks []Block
	pos := 0
	for {
		idx := strings.Index(text[pos:], beginBibliography)
		if idx < 0 {
			return blocks, nil
		}
		start := pos + idx
		end := strings.Index(text[start:], endBibliography)
		if end < 0 {
			return nil, &SyntaxError{
				Token:   beginBibliography,
				Offset:  start,
				Message: "unterminated thebibliography environment",
			}
		}
		stop := start + end + len(endBibliography)
		blocks = append(blocks, Block{Start: start, End: stop, Raw: text[start:stop]})
		pos = stop
	}
}

// Entries parses the \bibitem children of the block. Each entry's text runs
// to the next \bibitem or the end of the block and is cleaned with
// CleanBibText.
func (b Block) Entries() ([]BibEntry, error) {
	body := b.Raw[:len(b.Raw)-len(endBibliography)]
	first := strings.Index(body, bibitemCommand)
	if first < 0 {
		return nil, nil
	}

	var entries []BibEntry
	offset := b.Start + first
	for _, piece := range strings.Split(body[first:], bibitemCommand) {
		pieceOffset := offset
		offset += len(piece) + len(bibitemCommand)

		item := strings.TrimSpace(strings.ReplaceAll(piece, "\n", " "))
		if item == "" {
			continue
		}
		key, text, ok := splitBibitem(item)
		if !ok {
			return nil, &SyntaxError{
				Token:   bibitemCommand + truncate(item, 40),
				Offset:  pieceOffset,
				Message: "bibitem without {key}",
			}
		}
		entries = append(entries, BibEntry{Key: key, Text: CleanBibText(text)})
	}
	return entries, nil
}

// splitBibitem splits "[label]{key} text" into key and text. The optional
// label may itself contain braces.
func splitBibitem(item string) (key, text string, ok bool) {
	rest := item
	if strings.HasPrefix(rest, "[") {
		depth := 0
		closed := -1
		for i, r := range rest {
			switch r {
			case '{':
				depth++
			case '}':
				depth--
			case ']':
				if depth == 0 {
					closed = i
				}
			}
			if closed >= 0 {
				break
			}
		}
		if closed < 0 {
			return "", "", false
		}
		rest = strings.TrimSpace(rest[closed+1:])
	}

	if !strings.HasPrefix(rest, "{") {
		return "", "", false
	}
	end := strings.Index(rest, "}")
	if end < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(rest[1:end])
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(rest[end+1:]), true
}

// ParseBibliography collects the entries of every thebibliography block in text.
func ParseBibliography(text string) ([]BibEntry, error) {
	blocks, err := FindBlocks(text)
	if err != nil {
		return nil, err
	}
	var entries []BibEntry
	for _, b := range blocks {
		items, err := b.Entries()
		if err != nil {
			return nil, err
		}
		entries = append(entries, items...)
	}
	return entries, nil
}

// ReplaceBlocks replaces every block in text with replacement. The blocks
// must come from FindBlocks on the same text.
func ReplaceBlocks(text string, blocks []Block, replacement string) string {
	if len(blocks) == 0 {
		return text
	}
	var b strings.Builder
	pos := 0
	for _, blk := range blocks {
		b.WriteString(text[pos:blk.Start])
		b.WriteString(replacement)
		pos = blk.End
	}
	b.WriteString(text[pos:])
	return b.String()
}

// RenderBibliography builds a thebibliography environment holding entries,
// separated by blank lines.
func RenderBibliography(entries []BibEntry) string {
	items := make([]string, len(entries))
	for i, e := range entries {
		items[i] = e.String()
	}
	return fmt.Sprintf("%s{%d}\n%s\n%s",
		beginBibliography, BibliographySize(len(entries)), strings.Join(items, "\n\n"), endBibliography)
}

// BibliographySize returns the widest-label argument for n entries: the
// smallest number of the form 10^k-1 that is at least n.
func BibliographySize(n int) int {
	size := 0
	for size < n {
		size = size*10 + 9
	}
	return size
}

// CleanBibText collapses whitespace in bibliography text and replaces the
// \it font switch with \em. Passes repeat until nothing changes, so the
// result is a fixed point.
func CleanBibText(s string) string {
	replacer := strings.NewReplacer(
		"  ", " ",
		`\it `, `\em `,
		"\n", " ",
		"\r", " ",
		"\t", " ",
	)
	for {
		next := replacer.Replace(s)
		if next == s {
			return s
		}
		s = next
	}
}

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
