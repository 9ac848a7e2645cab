package fuzzy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
	"github.com/luisKisters/bahnhofjaeger/pkg/fuzzy"
	"github.com/luisKisters/bahnhofjaeger/pkg/normalize"
	"github.com/luisKisters/bahnhofjaeger/pkg/stations"
)

func newGenerator(t *testing.T, names []string, opts ...fuzzy.Option) *fuzzy.Generator {
	t.Helper()
	n := normalize.New(normalize.DefaultTable())
	targets := make([]stations.TargetRecord, len(names))
	for i, name := range names {
		targets[i] = stations.TargetRecord{ID: string(rune('a' + i)), Name: name}
	}
	g, err := fuzzy.NewGenerator(n, fuzzy.NewPool(targets, n.Fold), opts...)
	require.NoError(t, err)
	return g
}

func TestTokenSortRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"identical", "berlin hauptbahnhof", "berlin hauptbahnhof", 100},
		{"word order ignored", "hauptbahnhof berlin", "berlin hauptbahnhof", 100},
		{"both empty", "", "", 100},
		{"one empty", "berlin", "", 0},
		{"one substitution", "koln", "köln", 75},
		{"disjoint", "abc", "xyz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fuzzy.TokenSortRatio(tt.a, tt.b))
		})
	}
}

func TestRankStableTies(t *testing.T) {
	pool := fuzzy.NewPoolFromEntries(
		fuzzy.Entry{TargetID: "1", Key: "x"},
		fuzzy.Entry{TargetID: "2", Key: "y"},
		fuzzy.Entry{TargetID: "3", Key: "z"},
	)
	scores := map[string]int{"x": 50, "y": 70, "z": 50}
	scorer := func(_, key string) int { return scores[key] }

	ranked := fuzzy.Rank("q", pool, scorer, stations.MethodFuzzyPlain)
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"2", "1", "3"}, []string{ranked[0].TargetID, ranked[1].TargetID, ranked[2].TargetID})
	assert.Equal(t, stations.MethodFuzzyPlain, ranked[0].Method)

	assert.Empty(t, fuzzy.Rank("q", fuzzy.NewPoolFromEntries(), scorer, stations.MethodFuzzyPlain))
}

func TestNewPoolSkipsEmptyNames(t *testing.T) {
	n := normalize.New(normalize.DefaultTable())
	pool := fuzzy.NewPool([]stations.TargetRecord{
		{ID: "1", Name: "Berlin Hbf"},
		{ID: "2", Name: " "},
		{ID: "3", Name: "Hamburg"},
	}, n.Fold)

	entries := pool.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "berlin hbf", entries[0].Key)
	assert.Equal(t, "Berlin Hbf", entries[0].Name)
	assert.Equal(t, "3", entries[1].TargetID)
}

// Berlin Hbf only reaches Berlin Hauptbahnhof once hbf is expanded.
func TestMatchExpandedAbbreviation(t *testing.T) {
	g := newGenerator(t, []string{"Hamburg Hauptbahnhof", "Berlin Hauptbahnhof"})

	outcome := g.Match("Berlin Hbf")
	require.NotNil(t, outcome.Accepted)
	assert.Equal(t, "b", outcome.Accepted.TargetID)
	assert.Equal(t, stations.MethodFuzzyExpanded, outcome.Accepted.Method)
	assert.GreaterOrEqual(t, outcome.Accepted.Score, 90)
	assert.Equal(t, []stations.Method{stations.MethodFuzzyPlain, stations.MethodFuzzyExpanded}, outcome.Attempted)
}

// Frankfurt (Oder) only reaches Frankfurt once the qualifier is stripped.
func TestMatchStrippedQualifier(t *testing.T) {
	g := newGenerator(t, []string{"Frankfurt", "Oderberg"})

	outcome := g.Match("Frankfurt (Oder)")
	require.NotNil(t, outcome.Accepted)
	assert.Equal(t, "a", outcome.Accepted.TargetID)
	assert.Equal(t, stations.MethodFuzzyNoParens, outcome.Accepted.Method)
	assert.GreaterOrEqual(t, outcome.Accepted.Score, 80)

	// expanded forms repeat the plain ones and are skipped
	assert.Equal(t, []stations.Method{stations.MethodFuzzyPlain, stations.MethodFuzzyNoParens}, outcome.Attempted)
}

func TestMatchPlainFirst(t *testing.T) {
	g := newGenerator(t, []string{"Köln Hbf"})

	outcome := g.Match("KÖLN  HBF")
	require.NotNil(t, outcome.Accepted)
	assert.Equal(t, stations.MethodFuzzyPlain, outcome.Accepted.Method)
	assert.Equal(t, 100, outcome.Accepted.Score)
	assert.Len(t, outcome.Attempted, 1)
}

func TestMatchThresholdBoundary(t *testing.T) {
	scorer := func(score int) fuzzy.Scorer {
		return func(_, _ string) int { return score }
	}

	tests := []struct {
		name     string
		raw      string
		score    int
		accepted bool
		method   stations.Method
	}{
		{"primary at cutoff", "Halle", 90, true, stations.MethodFuzzyPlain},
		{"primary below cutoff", "Halle", 89, false, ""},
		{"fallback at cutoff", "Halle (Saale)", 80, true, stations.MethodFuzzyNoParens},
		{"fallback below cutoff", "Halle (Saale)", 79, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGenerator(t, []string{"Halle"}, fuzzy.WithScorer(scorer(tt.score)))
			outcome := g.Match(tt.raw)
			if !tt.accepted {
				assert.Nil(t, outcome.Accepted)
				require.Len(t, outcome.Ranked, 1)
				assert.Equal(t, tt.score, outcome.Ranked[0].Score)
				return
			}
			require.NotNil(t, outcome.Accepted)
			assert.Equal(t, tt.method, outcome.Accepted.Method)
			assert.Equal(t, tt.score, outcome.Accepted.Score)
		})
	}
}

func TestMatchRankedKeepsBestScorePerTarget(t *testing.T) {
	// plain query favours "a", stripped query favours "b"; neither is accepted
	scorer := func(query, key string) int {
		switch {
		case query == "x (y)" && key == "a":
			return 60
		case query == "x" && key == "b":
			return 70
		}
		return 10
	}
	n := normalize.New(normalize.NewTable())
	pool := fuzzy.NewPoolFromEntries(
		fuzzy.Entry{TargetID: "1", Key: "a"},
		fuzzy.Entry{TargetID: "2", Key: "b"},
		fuzzy.Entry{TargetID: "3", Key: "c"},
	)
	g, err := fuzzy.NewGenerator(n, pool, fuzzy.WithScorer(scorer))
	require.NoError(t, err)

	outcome := g.Match("X (Y)")
	assert.Nil(t, outcome.Accepted)
	require.Len(t, outcome.Ranked, 3)
	assert.Equal(t, stations.Candidate{TargetID: "2", Score: 70, Method: stations.MethodFuzzyNoParens}, outcome.Ranked[0])
	assert.Equal(t, stations.Candidate{TargetID: "1", Score: 60, Method: stations.MethodFuzzyPlain}, outcome.Ranked[1])
	assert.Equal(t, stations.Candidate{TargetID: "3", Score: 10, Method: stations.MethodFuzzyPlain}, outcome.Ranked[2])

	assert.Len(t, outcome.Top(2), 2)
	assert.Len(t, outcome.Top(0), 3)
}

func TestMatchNoCandidates(t *testing.T) {
	g := newGenerator(t, nil)
	outcome := g.Match("Berlin")
	assert.Nil(t, outcome.Accepted)
	assert.Empty(t, outcome.Ranked)

	g = newGenerator(t, []string{"Berlin"})
	outcome = g.Match("   ")
	assert.Nil(t, outcome.Accepted)
	assert.Empty(t, outcome.Ranked)
	assert.Empty(t, outcome.Attempted)
}

func TestWithThresholds(t *testing.T) {
	n := normalize.New(normalize.DefaultTable())
	pool := fuzzy.NewPoolFromEntries()

	_, err := fuzzy.NewGenerator(n, pool, fuzzy.WithThresholds(80, 90))
	assert.True(t, errors.IsValidationError(err))

	_, err = fuzzy.NewGenerator(n, pool, fuzzy.WithThresholds(101, 80))
	assert.True(t, errors.IsValidationError(err))

	_, err = fuzzy.NewGenerator(n, pool, fuzzy.WithScorer(nil))
	assert.True(t, errors.IsValidationError(err))

	g, err := fuzzy.NewGenerator(n, pool, fuzzy.WithThresholds(85, 85))
	require.NoError(t, err)
	primary, fallback := g.Thresholds()
	assert.Equal(t, 85, primary)
	assert.Equal(t, 85, fallback)

	_, err = fuzzy.NewGenerator(nil, pool)
	assert.Error(t, err)
}
