package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/utc"

	"github.com/luisKisters/bahnhofjaeger/pkg/stations"
)

// Result represents the outcome of a reconciliation run.
type Result struct {
	// RunID identifies the run in logs and output
	RunID string `json:"run_id" yaml:"run_id"`

	// Results holds exactly one entry per source record, in source order
	Results []stations.Result `json:"results" yaml:"results"`

	// Metadata
	Metadata ResultMetadata `json:"metadata" yaml:"metadata"`

	// Stats counts outcomes per tier
	Stats Stats `json:"stats" yaml:"stats"`

	// Errors holds batch-scoped arbiter failures; none of them abort a run
	Errors []error `json:"-" yaml:"-"`
}

// ResultMetadata contains metadata about the reconciliation run.
type ResultMetadata struct {
	StartedAt  utc.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt utc.Time      `json:"finished_at" yaml:"finished_at"`
	Duration   time.Duration `json:"duration" yaml:"duration"`

	PrimaryThreshold  int  `json:"primary_threshold" yaml:"primary_threshold"`
	FallbackThreshold int  `json:"fallback_threshold" yaml:"fallback_threshold"`
	TopK              int  `json:"top_k" yaml:"top_k"`
	ArbiterEnabled    bool `json:"arbiter_enabled" yaml:"arbiter_enabled"`
}

// Stats contains counts about the reconciliation.
type Stats struct {
	Sources int `json:"sources" yaml:"sources"`
	Targets int `json:"targets" yaml:"targets"`

	Exact       int `json:"exact" yaml:"exact"`
	Fuzzy       int `json:"fuzzy" yaml:"fuzzy"`
	AIValidated int `json:"ai_validated" yaml:"ai_validated"`
	Unmatched   int `json:"unmatched" yaml:"unmatched"`

	// ByMethod counts fuzzy matches per strategy
	ByMethod map[stations.Method]int `json:"by_method" yaml:"by_method"`

	Ambiguous    int `json:"ambiguous" yaml:"ambiguous"`
	NoCandidates int `json:"no_candidates" yaml:"no_candidates"`

	ArbiterRequests      int `json:"arbiter_requests" yaml:"arbiter_requests"`
	ArbiterBatches       int `json:"arbiter_batches" yaml:"arbiter_batches"`
	ArbiterBatchesFailed int `json:"arbiter_batches_failed" yaml:"arbiter_batches_failed"`
	ArbiterItemsSkipped  int `json:"arbiter_items_skipped" yaml:"arbiter_items_skipped"`

	// RowsSkipped counts input rows dropped while loading
	RowsSkipped int `json:"rows_skipped" yaml:"rows_skipped"`
}

// Matched returns the number of sources linked to a target.
func (s Stats) Matched() int {
	return s.Exact + s.Fuzzy + s.AIValidated
}

// count records one final result.
func (s *Stats) count(r stations.Result) {
	switch r.Type {
	case stations.MatchExact:
		s.Exact++
	case stations.MatchFuzzy:
		s.Fuzzy++
		s.ByMethod[stations.Method(r.Subtype)]++
	case stations.MatchAIValidated:
		s.AIValidated++
	default:
		s.Unmatched++
		if r.Subtype == stations.SubtypeNoCandidates {
			s.NoCandidates++
		}
	}
	if r.Ambiguous {
		s.Ambiguous++
	}
}

// Unmatched returns the results that link to no target.
func (r *Result) Unmatched() []stations.Result {
	var out []stations.Result
	for _, res := range r.Results {
		if res.Type == stations.MatchUnmatched {
			out = append(out, res)
		}
	}
	return out
}

// ByType returns the results of one match type, in source order.
func (r *Result) ByType(t stations.MatchType) []stations.Result {
	var out []stations.Result
	for _, res := range r.Results {
		if res.Type == t {
			out = append(out, res)
		}
	}
	return out
}

// IsSuccess returns true if no arbiter batch failed.
func (r *Result) IsSuccess() bool {
	return len(r.Errors) == 0
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	s := r.Stats
	return fmt.Sprintf("%d of %d stations matched (%d exact, %d fuzzy, %d ai-validated), %d unmatched",
		s.Matched(), s.Sources, s.Exact, s.Fuzzy, s.AIValidated, s.Unmatched)
}

// NewResult creates a new result with defaults.
func NewResult(runID string) *Result {
	return &Result{
		RunID:  runID,
		Errors: []error{},
		Stats: Stats{
			ByMethod: make(map[stations.Method]int),
		},
		Metadata: ResultMetadata{
			StartedAt: utc.Now(),
		},
	}
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.Metadata.FinishedAt = utc.Now()
	r.Metadata.Duration = r.Metadata.FinishedAt.Time.Sub(r.Metadata.StartedAt.Time)
}
