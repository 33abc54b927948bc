package latex

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text unchanged", "Hello world", "Hello world"},
		{"trailing comment removed", "text % a comment", "text"},
		{"comment-only line dropped", "a\n% comment\nb", "a\nb"},
		{"indented comment line dropped", "a\n   % comment\nb", "a\nb"},
		{"escaped percent kept", `50\% of cases % note`, `50\% of cases`},
		{"escaped percent at end", `100\%`, `100\%`},
		{"backslash pair before percent kept", `line\\% rest`, `line\\% rest`},
		{"lines trimmed", "  a  \n\tb\t", "a\nb"},
		{"crlf line endings", "a\r\nb\r\n", "a\nb"},
		{"one blank line kept", "a\n\nb", "a\n\nb"},
		{"blank run folded", "a\n\n\n\n\nb", "a\n\nb"},
		{"comment between blanks folded", "a\n\n% x\n\n\nb", "a\n\nb"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_NoTripleNewlines(t *testing.T) {
	input := strings.Repeat("x\n\n\n\n% c\n\n\n", 20)
	got := Normalize(input)
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("Normalize() left a run of 3+ newlines: %q", got)
	}
}

func TestStripComment(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"no comment", "no comment"},
		{"%all", ""},
		{`a\%b%c`, `a\%b`},
		{`\%`, `\%`},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := StripComment(tt.line); got != tt.want {
				t.Errorf("StripComment(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestCollapseRuns(t *testing.T) {
	if got := CollapseRuns("aaaaaa", "a", 3); got != "aa" {
		t.Errorf("CollapseRuns() = %q, want %q", got, "aa")
	}
	if got := CollapseRuns("abab", "x", 3); got != "abab" {
		t.Errorf("CollapseRuns() = %q, want unchanged", got)
	}
}

func TestReadNormalized(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.tex")
	if err := os.WriteFile(path, []byte("Intro % hidden\n% gone\nBody\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadNormalized(path)
	if err != nil {
		t.Fatalf("ReadNormalized() error = %v", err)
	}
	if got != "Intro\nBody" {
		t.Errorf("ReadNormalized() = %q, want %q", got, "Intro\nBody")
	}
}

func TestReadNormalized_MissingFile(t *testing.T) {
	_, err := ReadNormalized(filepath.Join(t.TempDir(), "absent.tex"))
	if err == nil {
		t.Fatal("ReadNormalized() expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadNormalized() error = %v, want not-exist cause", err)
	}
}
