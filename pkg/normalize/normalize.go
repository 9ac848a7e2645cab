// Package normalize maps raw station names to their comparison form.
//
// Normalization is a pure function of the raw name and an immutable
// abbreviation table: NFC composition, lower-casing and whitespace collapsing
// (Fold), followed by a single left-to-right pass of whole-word abbreviation
// expansion (Expand). Stripping bracketed qualifiers is a separate, explicit
// step because the fuzzy tier uses both forms as distinct strategies.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer holds the configuration of a normalization run. The zero value
// folds names but expands nothing.
type Normalizer struct {
	table          Table
	foldDiacritics bool
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithDiacriticFolding strips combining marks (ü → u) before expansion.
// Table keys and values are folded the same way so expansion keeps matching.
func WithDiacriticFolding() Option {
	return func(n *Normalizer) {
		n.foldDiacritics = true
	}
}

// New creates a Normalizer over the given table.
func New(table Table, opts ...Option) *Normalizer {
	n := &Normalizer{table: table}
	for _, opt := range opts {
		opt(n)
	}
	if n.foldDiacritics {
		n.table = newTable(table.entries, func(s string) string {
			return stripMarks(fold(s))
		})
	}
	return n
}

// Table returns the table the normalizer expands with.
func (n *Normalizer) Table() Table {
	return n.table
}

// Fold lower-cases raw, composes it to NFC and collapses whitespace runs.
// This is the exact-match key.
func (n *Normalizer) Fold(raw string) string {
	s := fold(raw)
	if n.foldDiacritics {
		s = stripMarks(s)
	}
	return s
}

// Expand applies every abbreviation once, in table order, to already folded text.
func (n *Normalizer) Expand(folded string) string {
	s := folded
	for _, a := range n.table.entries {
		s = replaceWord(s, a.Short, a.Long)
	}
	return collapse(s)
}

// Normalize is Fold followed by Expand.
func (n *Normalizer) Normalize(raw string) string {
	return n.Expand(n.Fold(raw))
}

var (
	parenGroup   = regexp.MustCompile(`\s*\([^)]*\)`)
	bracketGroup = regexp.MustCompile(`\s*\[[^\]]*\]`)
)

// StripParentheticals removes "(...)" and "[...]" groups and the whitespace
// in front of them: "Frankfurt (Oder)" becomes "Frankfurt".
func StripParentheticals(name string) string {
	s := parenGroup.ReplaceAllString(name, "")
	s = bracketGroup.ReplaceAllString(s, "")
	return collapse(s)
}

// HasBrackets reports whether name carries a bracketed qualifier.
func HasBrackets(name string) bool {
	return (strings.Contains(name, "(") && strings.Contains(name, ")")) ||
		(strings.Contains(name, "[") && strings.Contains(name, "]"))
}

func fold(raw string) string {
	return collapse(strings.ToLower(norm.NFC.String(raw)))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripMarks removes combining marks. The transformer is built per call
// because transform chains keep internal state.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// replaceWord replaces non-overlapping occurrences of short in s with long,
// scanning left to right. An occurrence only counts when both of its ends sit
// on a word boundary, where letters, numbers and '_' are word characters.
func replaceWord(s, short, long string) string {
	if short == "" || !strings.Contains(s, short) {
		return s
	}

	var b strings.Builder
	pos := 0
	for pos <= len(s) {
		i := strings.Index(s[pos:], short)
		if i < 0 {
			break
		}
		start := pos + i
		end := start + len(short)
		if boundaryAt(s, start) && boundaryAt(s, end) {
			b.WriteString(s[pos:start])
			b.WriteString(long)
			pos = end
			continue
		}
		// Retry one rune further on, like a regex engine would.
		_, size := utf8.DecodeRuneInString(s[start:])
		b.WriteString(s[pos : start+size])
		pos = start + size
	}
	b.WriteString(s[pos:])
	return b.String()
}

// boundaryAt reports whether byte offset i of s lies between a word and a
// non-word character (the start and end of s count as non-word).
func boundaryAt(s string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:i])
		before = isWord(r)
	}
	if i < len(s) {
		r, _ := utf8.DecodeRuneInString(s[i:])
		after = isWord(r)
	}
	return before != after
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
