// Package similarity detects near-duplicate bibliography entries by
// normalized edit distance and groups them into clusters.
package similarity

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// EditDistance returns the Levenshtein distance between a and b counted in
// Unicode scalars, with unit cost for insertion, deletion and substitution.
func EditDistance(a, b string) int {
	if a == b {
		return 0
	}
	return levenshtein([]rune(a), []rune(b))
}

func levenshtein(s1, s2 []rune) int {
	if len(s1) > len(s2) {
		s1, s2 = s2, s1
	}
	m, n := len(s1), len(s2)
	if m == 0 {
		return n
	}

	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for i := 0; i <= m; i++ {
		prev[i] = i
	}

	for j := 1; j <= n; j++ {
		curr[0] = j
		for i := 1; i <= m; i++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[m]
}

// Distance returns 2*EditDistance(a, b) divided by the combined length of a
// and b. Both texts are NFC-normalized first so that composed and decomposed
// accents compare equal. The distance of two empty strings is 0.
func Distance(a, b string) float64 {
	a = norm.NFC.String(a)
	b = norm.NFC.String(b)
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 0
	}
	return 2 * float64(EditDistance(a, b)) / float64(total)
}
