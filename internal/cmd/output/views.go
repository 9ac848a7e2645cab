package output

import (
	"fmt"
	"strconv"

	"github.com/luisKisters/bahnhofjaeger/pkg/reconciler"
	"github.com/luisKisters/bahnhofjaeger/pkg/stations"
)

// Summary is the printable outcome of a match run.
type Summary struct {
	RunID    string `json:"run_id" yaml:"run_id"`
	Duration string `json:"duration" yaml:"duration"`

	Sources     int `json:"sources" yaml:"sources"`
	Targets     int `json:"targets" yaml:"targets"`
	Matched     int `json:"matched" yaml:"matched"`
	Exact       int `json:"exact" yaml:"exact"`
	Fuzzy       int `json:"fuzzy" yaml:"fuzzy"`
	AIValidated int `json:"ai_validated" yaml:"ai_validated"`
	Unmatched   int `json:"unmatched" yaml:"unmatched"`

	ByMethod map[string]int `json:"by_method,omitempty" yaml:"by_method,omitempty"`

	Ambiguous    int `json:"ambiguous" yaml:"ambiguous"`
	NoCandidates int `json:"no_candidates" yaml:"no_candidates"`

	ArbiterEnabled       bool `json:"arbiter_enabled" yaml:"arbiter_enabled"`
	ArbiterRequests      int  `json:"arbiter_requests" yaml:"arbiter_requests"`
	ArbiterBatchesFailed int  `json:"arbiter_batches_failed" yaml:"arbiter_batches_failed"`
	ArbiterItemsSkipped  int  `json:"arbiter_items_skipped" yaml:"arbiter_items_skipped"`

	RowsSkipped int `json:"rows_skipped" yaml:"rows_skipped"`

	OutputFile    string `json:"output_file,omitempty" yaml:"output_file,omitempty"`
	UnmatchedFile string `json:"unmatched_file,omitempty" yaml:"unmatched_file,omitempty"`
}

// NewSummary builds a Summary from a finished run.
func NewSummary(result *reconciler.Result) Summary {
	s := result.Stats
	summary := Summary{
		RunID:                result.RunID,
		Duration:             result.Metadata.Duration.String(),
		Sources:              s.Sources,
		Targets:              s.Targets,
		Matched:              s.Matched(),
		Exact:                s.Exact,
		Fuzzy:                s.Fuzzy,
		AIValidated:          s.AIValidated,
		Unmatched:            s.Unmatched,
		Ambiguous:            s.Ambiguous,
		NoCandidates:         s.NoCandidates,
		ArbiterEnabled:       result.Metadata.ArbiterEnabled,
		ArbiterRequests:      s.ArbiterRequests,
		ArbiterBatchesFailed: s.ArbiterBatchesFailed,
		ArbiterItemsSkipped:  s.ArbiterItemsSkipped,
		RowsSkipped:          s.RowsSkipped,
	}
	if len(s.ByMethod) > 0 {
		summary.ByMethod = make(map[string]int, len(s.ByMethod))
		for method, n := range s.ByMethod {
			summary.ByMethod[string(method)] = n
		}
	}
	return summary
}

// TableData renders the summary as a two column table.
func (s Summary) TableData() Data {
	rows := [][]string{
		{"Run", s.RunID},
		{"Sources", strconv.Itoa(s.Sources)},
		{"Targets", strconv.Itoa(s.Targets)},
		{"Matched", fmt.Sprintf("%d (%s)", s.Matched, percent(s.Matched, s.Sources))},
		{"Exact", strconv.Itoa(s.Exact)},
		{"Fuzzy", strconv.Itoa(s.Fuzzy)},
	}
	for _, method := range stations.FuzzyMethods {
		if n := s.ByMethod[string(method)]; n > 0 {
			rows = append(rows, []string{"  " + string(method), strconv.Itoa(n)})
		}
	}
	rows = append(rows,
		[]string{"AI validated", strconv.Itoa(s.AIValidated)},
		[]string{"Unmatched", strconv.Itoa(s.Unmatched)},
		[]string{"Ambiguous", strconv.Itoa(s.Ambiguous)},
		[]string{"No candidates", strconv.Itoa(s.NoCandidates)},
	)
	if s.ArbiterEnabled {
		rows = append(rows,
			[]string{"Arbiter requests", strconv.Itoa(s.ArbiterRequests)},
			[]string{"Failed batches", strconv.Itoa(s.ArbiterBatchesFailed)},
			[]string{"Skipped items", strconv.Itoa(s.ArbiterItemsSkipped)},
		)
	}
	rows = append(rows,
		[]string{"Skipped rows", strconv.Itoa(s.RowsSkipped)},
		[]string{"Duration", s.Duration},
	)
	if s.OutputFile != "" {
		rows = append(rows, []string{"Output", s.OutputFile})
	}
	if s.UnmatchedFile != "" {
		rows = append(rows, []string{"Unmatched file", s.UnmatchedFile})
	}

	return Data{
		Headers:         []string{"Metric", "Value"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

func percent(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))
}

// Ranking is the printable result of ranking one name against the targets.
type Ranking struct {
	Query      string               `json:"query" yaml:"query"`
	Accepted   *stations.Candidate  `json:"accepted,omitempty" yaml:"accepted,omitempty"`
	Attempted  []stations.Method    `json:"attempted" yaml:"attempted"`
	Candidates []stations.Candidate `json:"candidates" yaml:"candidates"`
}

// TableData renders the ranked candidates, marking the accepted one.
func (r Ranking) TableData() Data {
	rows := make([][]string, 0, len(r.Candidates))
	for i, c := range r.Candidates {
		mark := ""
		if r.Accepted != nil && r.Accepted.TargetID == c.TargetID {
			mark = "*"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			c.TargetID,
			c.Name,
			strconv.Itoa(c.Score),
			string(c.Method),
			mark,
		})
	}
	return Data{
		Headers:         []string{"#", "Target", "Name", "Score", "Method", "Accepted"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignCenter},
	}
}

// NormalizedName shows the forms the matcher derives from one raw name.
type NormalizedName struct {
	Raw      string `json:"raw" yaml:"raw"`
	Folded   string `json:"folded" yaml:"folded"`
	Expanded string `json:"expanded" yaml:"expanded"`
	NoParens string `json:"no_parens" yaml:"no_parens"`
}

// NormalizedTableData renders one row per name.
func NormalizedTableData(names []NormalizedName) Data {
	rows := make([][]string, 0, len(names))
	for _, n := range names {
		rows = append(rows, []string{n.Raw, n.Folded, n.Expanded, n.NoParens})
	}
	return Data{
		Headers: []string{"Raw", "Folded", "Expanded", "No Parens"},
		Rows:    rows,
	}
}
