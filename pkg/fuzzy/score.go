// Package fuzzy ranks target stations against a query name and escalates
// through increasingly lenient query forms until one is accepted.
package fuzzy

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Scorer rates the similarity of two comparison-form names in [0,100].
type Scorer func(a, b string) int

// TokenSortRatio sorts the whitespace separated tokens of both names and
// compares the results by edit distance, so word order does not matter.
// Two empty names score 100; one empty name scores 0.
func TokenSortRatio(a, b string) int {
	return Ratio(sortTokens(a), sortTokens(b))
}

// Ratio is 100 * (1 - distance/longest), rounded, over runes.
func Ratio(a, b string) int {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 100
	}
	distance := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(distance)/float64(longest))))
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
