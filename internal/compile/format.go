package compile

import (
	"fmt"
	"strings"
	"unicode"
)

// FormatAuthors renders a BibTeX author list in small caps.
//
// "Knuth, Donald E. and Lamport, Leslie" becomes
// \textsc{D. E. Knuth \& L. Lamport}. Names without a comma are kept as
// written. Three or more authors are joined with ", " before the final \&.
func FormatAuthors(field string) string {
	field = strings.Join(strings.Fields(field), " ")
	if field == "" {
		return ""
	}

	var authors []string
	for _, name := range strings.Split(field, " and ") {
		if name = strings.TrimSpace(name); name != "" {
			authors = append(authors, FormatAuthor(name))
		}
	}

	switch len(authors) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("\\textsc{%s}", authors[0])
	}
	last := len(authors) - 1
	return fmt.Sprintf("\\textsc{%s \\& %s}", strings.Join(authors[:last], ", "), authors[last])
}

// FormatAuthor turns "Last, First Middle" into "F. M. Last" and
// "Last, Jr, First" into "F. Last, Jr".
func FormatAuthor(name string) string {
	parts := strings.Split(name, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var last, first string
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		last, first = parts[0], parts[1]
	default:
		last, first = parts[0]+", "+parts[1], strings.Join(parts[2:], " ")
	}

	var initials []string
	for _, word := range strings.Fields(first) {
		if r, ok := initial(word); ok {
			initials = append(initials, string(unicode.ToUpper(r))+".")
		}
	}
	if len(initials) == 0 {
		return last
	}
	return strings.Join(initials, " ") + " " + last
}

// initial returns the first letter of a given name, looking past braces and
// accent commands such as {\"O}rjan.
func initial(word string) (rune, bool) {
	for i, r := range word {
		switch {
		case r == '{' || r == '}':
			continue
		case r == '\\':
			// \"O skips the accent; \O stands for its own letter.
			rest := word[i+1:]
			if len(rest) > 0 && !unicode.IsLetter(rune(rest[0])) {
				return initial(rest[1:])
			}
			return initial(rest)
		case unicode.IsLetter(r):
			return r, true
		}
	}
	return 0, false
}

// FormatVolume renders the volume block from whichever of volume, number
// and pages are present. The outermost present one is bold, the next is
// parenthesized and the last is prefixed with a colon:
// \textbf{volume}(number):pages.
func FormatVolume(volume, number, pages string) string {
	var present []string
	for _, v := range []string{volume, number, pages} {
		if v != "" {
			present = append(present, v)
		}
	}

	var b strings.Builder
	if len(present) > 0 {
		b.WriteString(fmt.Sprintf("\\textbf{%s}", present[0]))
	}
	if len(present) > 1 {
		b.WriteString(fmt.Sprintf("(%s)", present[1]))
	}
	if len(present) > 2 {
		b.WriteString(fmt.Sprintf(":%s", present[2]))
	}
	return b.String()
}
