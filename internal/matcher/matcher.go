// Package matcher selects station records by name with glob or regex
// patterns. Patterns and names are compared in folded form, so "berlin*"
// selects "Berlin Hbf" as well as "BERLIN-Spandau".
package matcher

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/luisKisters/bahnhofjaeger/pkg/stations"
)

// PatternType represents the type of pattern matching to use.
type PatternType int

const (
	// Glob uses shell-style glob patterns (*, ?, []).
	Glob PatternType = iota
	// Regex uses regular expressions.
	Regex
	// Auto detects the pattern type.
	Auto
)

// String returns a string representation of the PatternType.
func (pt PatternType) String() string {
	switch pt {
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	case Auto:
		return "auto"
	default:
		return "unknown"
	}
}

// FoldFunc maps a name to its comparison form.
type FoldFunc func(string) string

type pattern struct {
	raw      string
	kind     PatternType
	glob     string
	compiled *regexp.Regexp
}

// NameFilter matches names against any of several patterns.
type NameFilter struct {
	fold     FoldFunc
	patterns []pattern
}

// New compiles patterns into a NameFilter. A nil fold lower-cases. An empty
// pattern list matches every name.
func New(fold FoldFunc, patterns ...string) (*NameFilter, error) {
	if fold == nil {
		fold = strings.ToLower
	}
	f := &NameFilter{fold: fold}
	for _, raw := range patterns {
		p, err := compile(raw, fold)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", raw, err)
		}
		f.patterns = append(f.patterns, p)
	}
	return f, nil
}

func compile(raw string, fold FoldFunc) (pattern, error) {
	p := pattern{raw: raw, kind: detectPatternType(raw)}
	switch p.kind {
	case Regex:
		compiled, err := regexp.Compile("(?i)" + raw)
		if err != nil {
			return p, err
		}
		p.compiled = compiled
	default:
		p.glob = fold(raw)
		if _, err := filepath.Match(p.glob, ""); err != nil {
			return p, err
		}
	}
	return p, nil
}

// Match reports whether name matches any pattern.
func (f *NameFilter) Match(name string) bool {
	if len(f.patterns) == 0 {
		return true
	}
	folded := f.fold(name)
	for _, p := range f.patterns {
		if p.compiled != nil {
			if p.compiled.MatchString(folded) {
				return true
			}
			continue
		}
		if ok, _ := filepath.Match(p.glob, folded); ok {
			return true
		}
	}
	return false
}

// Patterns returns the patterns as given.
func (f *NameFilter) Patterns() []string {
	out := make([]string, len(f.patterns))
	for i, p := range f.patterns {
		out[i] = p.raw
	}
	return out
}

// Sources returns the records whose raw name matches, in input order.
func (f *NameFilter) Sources(records []stations.SourceRecord) []stations.SourceRecord {
	if len(f.patterns) == 0 {
		return records
	}
	var out []stations.SourceRecord
	for _, r := range records {
		if f.Match(r.RawName) {
			out = append(out, r)
		}
	}
	return out
}

// detectPatternType treats patterns with regex metacharacters that glob
// lacks as regular expressions.
func detectPatternType(pattern string) PatternType {
	regexIndicators := []string{
		"^", "$", "\\d", "\\w", "\\s", "\\b",
		"(?:", "(?i)", "{", "}", "+", "|", ".*",
	}
	for _, indicator := range regexIndicators {
		if strings.Contains(pattern, indicator) {
			return Regex
		}
	}
	return Glob
}
