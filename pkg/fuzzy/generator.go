package fuzzy

import (
	"github.com/luisKisters/bahnhofjaeger/pkg/constants"
	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
	"github.com/luisKisters/bahnhofjaeger/pkg/normalize"
	"github.com/luisKisters/bahnhofjaeger/pkg/stations"
)

// Generator runs the fuzzy strategies for one query at a time. It holds no
// per-query state and is safe for concurrent use.
type Generator struct {
	normalizer *normalize.Normalizer
	pool       *Pool
	scorer     Scorer
	primary    int
	fallback   int
}

// Option configures a Generator.
type Option func(*Generator) error

// WithThresholds sets the acceptance cutoffs. The primary cutoff applies to
// the plain and expanded strategies, the fallback cutoff to the bracket
// stripped ones, and it may not exceed the primary one.
func WithThresholds(primary, fallback int) Option {
	return func(g *Generator) error {
		if primary < 0 || primary > constants.MaxScore {
			return errors.NewValidationError("primary_threshold", primary, "must be between 0 and 100")
		}
		if fallback < 0 || fallback > constants.MaxScore {
			return errors.NewValidationError("fallback_threshold", fallback, "must be between 0 and 100")
		}
		if fallback > primary {
			return errors.NewValidationError("fallback_threshold", fallback, "cannot exceed the primary threshold")
		}
		g.primary = primary
		g.fallback = fallback
		return nil
	}
}

// WithScorer replaces TokenSortRatio.
func WithScorer(scorer Scorer) Option {
	return func(g *Generator) error {
		if scorer == nil {
			return &errors.ValidationError{
				Field:   "scorer",
				Message: "cannot be nil",
			}
		}
		g.scorer = scorer
		return nil
	}
}

// NewGenerator creates a Generator ranking against pool.
func NewGenerator(n *normalize.Normalizer, pool *Pool, opts ...Option) (*Generator, error) {
	if n == nil {
		return nil, &errors.ValidationError{Field: "normalizer", Message: "cannot be nil"}
	}
	if pool == nil {
		return nil, &errors.ValidationError{Field: "pool", Message: "cannot be nil"}
	}

	g := &Generator{
		normalizer: n,
		pool:       pool,
		scorer:     TokenSortRatio,
		primary:    constants.DefaultPrimaryThreshold,
		fallback:   constants.DefaultFallbackThreshold,
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Pool returns the pool the generator ranks against.
func (g *Generator) Pool() *Pool {
	return g.pool
}

// Thresholds returns the primary and fallback cutoffs.
func (g *Generator) Thresholds() (primary, fallback int) {
	return g.primary, g.fallback
}

// Outcome is the result of running the strategies for one query.
type Outcome struct {
	// Accepted is the top candidate of the first strategy whose best score
	// reached its cutoff, or nil.
	Accepted *stations.Candidate

	// Ranked holds every pool entry once with its best score over the
	// attempted strategies, best first. Ties keep pool order.
	Ranked []stations.Candidate

	// Attempted lists the strategies that ran, in order.
	Attempted []stations.Method
}

// Top returns at most k ranked candidates.
func (o Outcome) Top(k int) []stations.Candidate {
	if k <= 0 || k >= len(o.Ranked) {
		return o.Ranked
	}
	return o.Ranked[:k]
}

type strategy struct {
	method stations.Method
	query  string
	cutoff int
}

// strategies derives the query forms for raw, skipping forms that repeat
// the one before them.
func (g *Generator) strategies(raw string) []strategy {
	folded := g.normalizer.Fold(raw)
	if folded == "" {
		return nil
	}

	out := []strategy{{stations.MethodFuzzyPlain, folded, g.primary}}
	if expanded := g.normalizer.Expand(folded); expanded != folded {
		out = append(out, strategy{stations.MethodFuzzyExpanded, expanded, g.primary})
	}

	if !normalize.HasBrackets(raw) {
		return out
	}
	stripped := g.normalizer.Fold(normalize.StripParentheticals(raw))
	if stripped == "" {
		return out
	}
	out = append(out, strategy{stations.MethodFuzzyNoParens, stripped, g.fallback})
	if expanded := g.normalizer.Expand(stripped); expanded != stripped {
		out = append(out, strategy{stations.MethodFuzzyExpandedNoParens, expanded, g.fallback})
	}
	return out
}

// Match escalates through the strategies for raw and stops at the first one
// that accepts a candidate.
func (g *Generator) Match(raw string) Outcome {
	var outcome Outcome
	if g.pool.Len() == 0 {
		return outcome
	}

	best := make([]stations.Candidate, g.pool.Len())
	for i := range best {
		best[i].Score = -1
	}

	for _, s := range g.strategies(raw) {
		outcome.Attempted = append(outcome.Attempted, s.method)

		top, topScore := -1, -1
		for i, e := range g.pool.entries {
			score := g.scorer(s.query, e.Key)
			if score > best[i].Score {
				best[i] = stations.Candidate{TargetID: e.TargetID, Name: e.Name, Score: score, Method: s.method}
			}
			if score > topScore {
				top, topScore = i, score
			}
		}

		if topScore >= s.cutoff {
			e := g.pool.entries[top]
			outcome.Accepted = &stations.Candidate{TargetID: e.TargetID, Name: e.Name, Score: topScore, Method: s.method}
			break
		}
	}

	if len(outcome.Attempted) == 0 {
		return outcome
	}
	outcome.Ranked = best
	sortCandidates(outcome.Ranked)
	return outcome
}
