package latex

import (
	"fmt"
	"regexp"
	"strings"
)

// Citation command names.
const (
	KindCite  = "cite"
	KindCitet = "citet"
	KindCitep = "citep"
)

// Include directive names.
const (
	DirectiveInput       = "input"
	DirectiveInclude     = "include"
	DirectiveIncludeOnly = "includeonly"
)

// commandPattern matches citations and include directives in one left-to-right
// scan so their relative order is the order of appearance.
var commandPattern = regexp.MustCompile(`\\(citet|citep|cite|includeonly|include|input)\{([^}]+)\}`)

// includePattern matches include directives only.
var includePattern = regexp.MustCompile(`\\(includeonly|include|input)\{([^}]+)\}`)

// Token is one matched command.
type Token struct {
	Name    string // command name without the backslash
	Content string // text between the braces
	Raw     string // exact matched text
	Offset  int    // byte offset of Raw in the scanned text
}

// IsCitation reports whether the token is a \cite, \citet or \citep command.
func (t Token) IsCitation() bool {
	switch t.Name {
	case KindCite, KindCitet, KindCitep:
		return true
	}
	return false
}

// IsInclude reports whether the token is an \input, \include or \includeonly directive.
func (t Token) IsInclude() bool {
	switch t.Name {
	case DirectiveInput, DirectiveInclude, DirectiveIncludeOnly:
		return true
	}
	return false
}

// Target returns the trimmed include target of a directive.
func (t Token) Target() string {
	return strings.TrimSpace(t.Content)
}

// Scan returns every citation and include directive in text, in order.
func Scan(text string) []Token {
	return scanWith(commandPattern, text)
}

// Includes returns the include directives in text, in order.
func Includes(text string) []Token {
	return scanWith(includePattern, text)
}

func scanWith(re *regexp.Regexp, text string) []Token {
	matches := re.FindAllStringSubmatchIndex(text, -1)
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, Token{
			Name:    text[m[2]:m[3]],
			Content: text[m[4]:m[5]],
			Raw:     text[m[0]:m[1]],
			Offset:  m[0],
		})
	}
	return tokens
}

// Citation is one citation command with its keys as written.
type Citation struct {
	Keys []string `json:"keys"`
	Kind string   `json:"kind"`
	Raw  string   `json:"raw"`
}

// String renders the citation as \kind{k1,k2,...}.
func (c Citation) String() string {
	return fmt.Sprintf("\\%s{%s}", c.Kind, strings.Join(c.Keys, ","))
}

// ParseCitation builds a Citation from a citation token. Keys are split on
// commas and trimmed; empty keys are dropped.
func ParseCitation(tok Token) (Citation, error) {
	if !tok.IsCitation() {
		return Citation{}, &SyntaxError{Token: tok.Raw, Offset: tok.Offset, Message: "not a citation command"}
	}

	var keys []string
	for _, k := range strings.Split(tok.Content, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return Citation{}, &SyntaxError{Token: tok.Raw, Offset: tok.Offset, Message: "citation without keys"}
	}

	return Citation{Keys: keys, Kind: tok.Name, Raw: tok.Raw}, nil
}

// ReplaceCitations rewrites every citation command in text through fn.
// Include directives are left untouched.
func ReplaceCitations(text string, fn func(raw string) string) string {
	return commandPattern.ReplaceAllStringFunc(text, func(raw string) string {
		m := commandPattern.FindStringSubmatch(raw)
		if m == nil || !(Token{Name: m[1]}).IsCitation() {
			return raw
		}
		return fn(raw)
	})
}

// SyntaxError reports a LaTeX construct the scanner could not interpret.
type SyntaxError struct {
	Token   string // offending text
	Offset  int    // byte offset in the scanned text
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s: %q", e.Offset, e.Message, e.Token)
}
