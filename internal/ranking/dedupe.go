package ranking

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// NormalizeTitle lowercases the title, strips punctuation and collapses
// whitespace so near-identical supplier listings compare equal.
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastSpace := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// titleSimilarity returns a similarity ratio in [0,1] between two normalized
// titles, based on Levenshtein edit distance over runes.
func titleSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
