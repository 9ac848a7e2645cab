package stations

import "fmt"

// Method records which strategy produced a candidate.
type Method string

// Candidate methods, in escalation order.
const (
	MethodExact                 Method = "exact"
	MethodFuzzyPlain            Method = "fuzzy-plain"
	MethodFuzzyExpanded         Method = "fuzzy-expanded"
	MethodFuzzyNoParens         Method = "fuzzy-no-parens"
	MethodFuzzyExpandedNoParens Method = "fuzzy-expanded-no-parens"
)

// FuzzyMethods lists the fuzzy strategies in the order they are attempted.
var FuzzyMethods = []Method{
	MethodFuzzyPlain,
	MethodFuzzyExpanded,
	MethodFuzzyNoParens,
	MethodFuzzyExpandedNoParens,
}

// String implements fmt.Stringer.
func (m Method) String() string {
	return string(m)
}

// Candidate is a scored target for one query. Candidates are ephemeral and
// never outlive the run that produced them.
type Candidate struct {
	TargetID string `json:"target_id" yaml:"target_id"`
	Name     string `json:"name" yaml:"name"`
	Score    int    `json:"score" yaml:"score"`
	Method   Method `json:"method" yaml:"method"`
}

// String implements fmt.Stringer.
func (c Candidate) String() string {
	return fmt.Sprintf("%s %q (%d, %s)", c.TargetID, c.Name, c.Score, c.Method)
}

// MatchType is the tier that resolved a source record.
type MatchType string

// Match types, highest precedence first.
const (
	MatchExact       MatchType = "exact"
	MatchFuzzy       MatchType = "fuzzy"
	MatchAIValidated MatchType = "ai-validated"
	MatchUnmatched   MatchType = "unmatched"
)

// Precedence ranks match types; a lower value wins. Unmatched ranks last.
func (t MatchType) Precedence() int {
	switch t {
	case MatchExact:
		return 0
	case MatchFuzzy:
		return 1
	case MatchAIValidated:
		return 2
	default:
		return 3
	}
}

// Subtypes that are not candidate methods.
const (
	SubtypeAIValidated    = "ai-validated"
	SubtypeAmbiguousExact = "ambiguous-exact"
	SubtypeNoCandidates   = "no-candidates"

	// SubtypeRejected marks candidates the arbiter looked at and declined.
	SubtypeRejected = "rejected"
	// SubtypeUnresolved marks candidates the arbiter never decided on.
	SubtypeUnresolved = "unresolved"
)

// Result is the final classification of one source record.
type Result struct {
	SourceID    string    `json:"source_id" yaml:"source_id"`
	TargetID    string    `json:"target_id,omitempty" yaml:"target_id,omitempty"`
	Type        MatchType `json:"match_type" yaml:"match_type"`
	Score       int       `json:"match_score" yaml:"match_score"`
	Subtype     string    `json:"match_subtype,omitempty" yaml:"match_subtype,omitempty"`
	Explanation string    `json:"explanation,omitempty" yaml:"explanation,omitempty"`

	// Confidence is the arbiter's self-reported confidence, if any.
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`

	// Ambiguous is set when several targets share the source's exact key.
	// CandidateIDs then lists those targets in file order.
	Ambiguous    bool     `json:"ambiguous,omitempty" yaml:"ambiguous,omitempty"`
	CandidateIDs []string `json:"candidate_ids,omitempty" yaml:"candidate_ids,omitempty"`
}

// Matched reports whether the result links the source to a target.
func (r Result) Matched() bool {
	return r.Type != MatchUnmatched && r.TargetID != ""
}
