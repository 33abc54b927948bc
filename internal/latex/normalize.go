// Package latex provides the LaTeX text primitives used by the cleaner:
// comment stripping, command scanning, thebibliography blocks and
// bibliography text cleaning.
package latex

import (
	"fmt"
	"os"
	"strings"
)

// Normalize strips LaTeX comments from raw file content.
//
// Lines are trimmed, comment-only lines are dropped, and everything after an
// unescaped % is removed. An escaped \% is kept as written. Runs of three or
// more newlines are folded to a single blank line.
func Normalize(text string) string {
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "%") {
			continue
		}
		kept = append(kept, strings.TrimSpace(StripComment(line)))
	}

	return CollapseRuns(strings.Join(kept, "\n"), "\n", 3)
}

// StripComment removes everything from the first unescaped % to the end of
// a single line.
func StripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == '%' && (i == 0 || line[i-1] != '\\') {
			return line[:i]
		}
	}
	return line
}

// CollapseRuns folds every run of reps or more consecutive tokens down to
// reps-1 tokens.
func CollapseRuns(s, token string, reps int) string {
	if reps < 2 {
		return s
	}
	long := strings.Repeat(token, reps)
	short := strings.Repeat(token, reps-1)
	for {
		next := strings.ReplaceAll(s, long, short)
		if next == s {
			return s
		}
		s = next
	}
}

// ReadNormalized reads a file and returns its normalized content.
func ReadNormalized(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return Normalize(string(data)), nil
}
