package reconciler_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luisKisters/bahnhofjaeger/pkg/arbiter"
	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
	"github.com/luisKisters/bahnhofjaeger/pkg/logging"
	"github.com/luisKisters/bahnhofjaeger/pkg/reconciler"
	"github.com/luisKisters/bahnhofjaeger/pkg/stations"
)

func testTargets() []stations.TargetRecord {
	return []stations.TargetRecord{
		{ID: "t1", Name: "Berlin Hauptbahnhof"},
		{ID: "t2", Name: "Hamburg Hbf"},
		{ID: "t3", Name: "Frankfurt"},
		{ID: "t4", Name: "Neustadt"},
		{ID: "t5", Name: "neustadt"},
		{ID: "t6", Name: "Leipzig Messe"},
	}
}

func testSources() []stations.SourceRecord {
	return []stations.SourceRecord{
		{ID: "s1", RawName: "Hamburg Hbf"},
		{ID: "s2", RawName: "Berlin Hbf"},
		{ID: "s3", RawName: "Frankfurt (Oder)"},
		{ID: "s4", RawName: "Neustadt"},
		{ID: "s5", RawName: "Kleinkleckersdorf"},
		{ID: "s6", RawName: "  "},
	}
}

// recordingClient answers every call with the same text and keeps the prompts.
type recordingClient struct {
	mu      sync.Mutex
	text    string
	err     error
	prompts []string
}

func (c *recordingClient) Generate(_ context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	return c.text, c.err
}

func newReconciler(t *testing.T, client arbiter.Client, opts ...reconciler.Option) reconciler.Reconciler {
	t.Helper()
	nop := logging.NewNopLogger()
	opts = append([]reconciler.Option{reconciler.WithLogger(nop)}, opts...)
	if client != nil {
		adapter, err := arbiter.New(client, arbiter.WithLogger(nop))
		require.NoError(t, err)
		opts = append(opts, reconciler.WithArbiter(adapter))
	}
	r, err := reconciler.New(opts...)
	require.NoError(t, err)
	return r
}

func resultsByID(results []stations.Result) map[string]stations.Result {
	out := make(map[string]stations.Result, len(results))
	for _, r := range results {
		out[r.SourceID] = r
	}
	return out
}

func assertPartition(t *testing.T, sources []stations.SourceRecord, result *reconciler.Result) {
	t.Helper()
	require.Len(t, result.Results, len(sources))
	for i, src := range sources {
		assert.Equal(t, src.ID, result.Results[i].SourceID)
	}
	s := result.Stats
	assert.Equal(t, len(sources), s.Exact+s.Fuzzy+s.AIValidated+s.Unmatched)
}

func TestReconcileTiers(t *testing.T) {
	r := newReconciler(t, nil)
	sources := testSources()

	result, err := r.Reconcile(context.Background(), sources, testTargets())
	require.NoError(t, err)
	assertPartition(t, sources, result)
	byID := resultsByID(result.Results)

	exact := byID["s1"]
	assert.Equal(t, stations.MatchExact, exact.Type)
	assert.Equal(t, "t2", exact.TargetID)
	assert.Equal(t, 100, exact.Score)
	assert.Equal(t, "exact", exact.Subtype)

	expanded := byID["s2"]
	assert.Equal(t, stations.MatchFuzzy, expanded.Type)
	assert.Equal(t, "t1", expanded.TargetID)
	assert.Equal(t, string(stations.MethodFuzzyExpanded), expanded.Subtype)
	assert.GreaterOrEqual(t, expanded.Score, 90)

	stripped := byID["s3"]
	assert.Equal(t, stations.MatchFuzzy, stripped.Type)
	assert.Equal(t, "t3", stripped.TargetID)
	assert.Equal(t, string(stations.MethodFuzzyNoParens), stripped.Subtype)
	assert.GreaterOrEqual(t, stripped.Score, 80)

	empty := byID["s6"]
	assert.Equal(t, stations.MatchUnmatched, empty.Type)
	assert.Equal(t, stations.SubtypeNoCandidates, empty.Subtype)

	assert.Equal(t, 1, result.Stats.Exact)
	assert.Equal(t, 2, result.Stats.Fuzzy)
	assert.Equal(t, 1, result.Stats.ByMethod[stations.MethodFuzzyExpanded])
	assert.Equal(t, 1, result.Stats.ByMethod[stations.MethodFuzzyNoParens])
	assert.Equal(t, 3, result.Stats.Unmatched)
	assert.Equal(t, 1, result.Stats.NoCandidates)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 90, result.Metadata.PrimaryThreshold)
	assert.False(t, result.Metadata.ArbiterEnabled)
}

// Two targets sharing a key must never be resolved silently.
func TestReconcileAmbiguousExactKey(t *testing.T) {
	r := newReconciler(t, nil)

	result, err := r.Reconcile(context.Background(), testSources(), testTargets())
	require.NoError(t, err)

	res := resultsByID(result.Results)["s4"]
	assert.Equal(t, stations.MatchUnmatched, res.Type)
	assert.Empty(t, res.TargetID)
	assert.True(t, res.Ambiguous)
	assert.Equal(t, stations.SubtypeAmbiguousExact, res.Subtype)
	assert.Equal(t, []string{"t4", "t5"}, res.CandidateIDs)
	assert.Contains(t, res.Explanation, "t4, t5")
	assert.Equal(t, 1, result.Stats.Ambiguous)
}

func TestReconcileArbiterValidated(t *testing.T) {
	client := &recordingClient{text: `[
		{"station_id": "1", "correct_match_index": 2, "confidence": 90, "explanation": "second entry is the station"},
		{"station_id": "2", "correct_match_index": null, "explanation": "no candidate fits"}
	]`}
	r := newReconciler(t, client)
	sources := testSources()

	result, err := r.Reconcile(context.Background(), sources, testTargets())
	require.NoError(t, err)
	assertPartition(t, sources, result)
	byID := resultsByID(result.Results)

	validated := byID["s4"]
	assert.Equal(t, stations.MatchAIValidated, validated.Type)
	assert.Equal(t, "t5", validated.TargetID)
	assert.Equal(t, 100, validated.Score)
	assert.Equal(t, stations.SubtypeAIValidated, validated.Subtype)
	assert.Equal(t, "second entry is the station", validated.Explanation)
	require.NotNil(t, validated.Confidence)
	assert.InDelta(t, 90, *validated.Confidence, 0.001)
	assert.True(t, validated.Ambiguous)

	rejected := byID["s5"]
	assert.Equal(t, stations.MatchUnmatched, rejected.Type)
	assert.Equal(t, stations.SubtypeRejected, rejected.Subtype)
	assert.Equal(t, "no candidate fits", rejected.Explanation)

	require.Len(t, client.prompts, 1)
	prompt := client.prompts[0]
	assert.Contains(t, prompt, "Station 1: 'Neustadt'")
	assert.Contains(t, prompt, "Station 2: 'Kleinkleckersdorf'")
	assert.NotContains(t, prompt, "Station 3")

	assert.Equal(t, 1, result.Stats.AIValidated)
	assert.Equal(t, 2, result.Stats.ArbiterRequests)
	assert.Equal(t, 1, result.Stats.ArbiterBatches)
	assert.True(t, result.IsSuccess())
}

// A malformed arbiter response loses its batch, nothing else.
func TestReconcileMalformedArbiterResponse(t *testing.T) {
	client := &recordingClient{text: "I am not sure about these stations."}
	r := newReconciler(t, client)
	sources := testSources()

	result, err := r.Reconcile(context.Background(), sources, testTargets())
	require.NoError(t, err)
	assertPartition(t, sources, result)
	byID := resultsByID(result.Results)

	assert.Equal(t, stations.MatchUnmatched, byID["s4"].Type)
	assert.Equal(t, stations.SubtypeAmbiguousExact, byID["s4"].Subtype)
	assert.Equal(t, stations.MatchUnmatched, byID["s5"].Type)
	assert.Equal(t, stations.SubtypeUnresolved, byID["s5"].Subtype)

	assert.Equal(t, 0, result.Stats.AIValidated)
	assert.Equal(t, 1, result.Stats.ArbiterBatchesFailed)
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], errors.ErrArbiterMalformedResponse)
	assert.False(t, result.IsSuccess())

	// higher tiers are untouched
	assert.Equal(t, stations.MatchExact, byID["s1"].Type)
	assert.Equal(t, stations.MatchFuzzy, byID["s2"].Type)
}

func TestReconcileArbiterCannotReclaim(t *testing.T) {
	// the arbiter answers for every station number it could see
	client := &recordingClient{text: `[
		{"station_id": 1, "correct_match_index": 1},
		{"station_id": 2, "correct_match_index": 1},
		{"station_id": 3, "correct_match_index": 1},
		{"station_id": 4, "correct_match_index": 1}
	]`}
	r := newReconciler(t, client)

	result, err := r.Reconcile(context.Background(), testSources(), testTargets())
	require.NoError(t, err)
	byID := resultsByID(result.Results)

	assert.Equal(t, stations.MatchExact, byID["s1"].Type)
	assert.Equal(t, stations.MatchFuzzy, byID["s2"].Type)
	assert.Equal(t, stations.MatchFuzzy, byID["s3"].Type)
	assert.Equal(t, 2, result.Stats.ArbiterItemsSkipped)

	for _, prompt := range client.prompts {
		assert.NotContains(t, prompt, "'Hamburg Hbf'\nPossible")
		assert.NotContains(t, prompt, "'Berlin Hbf'\nPossible")
	}
}

func TestReconcileArbiterCallFailure(t *testing.T) {
	client := &recordingClient{err: fmt.Errorf("connection reset")}
	r := newReconciler(t, client)
	sources := testSources()

	result, err := r.Reconcile(context.Background(), sources, testTargets())
	require.NoError(t, err)
	assertPartition(t, sources, result)
	assert.Equal(t, 1, result.Stats.ArbiterBatchesFailed)
	assert.ErrorIs(t, result.Errors[0], errors.ErrArbiterCallFailed)
}

func TestReconcileTopK(t *testing.T) {
	client := &recordingClient{text: "[]"}
	r := newReconciler(t, client, reconciler.WithTopK(2))

	_, err := r.Reconcile(context.Background(), []stations.SourceRecord{{ID: "s", RawName: "Kleinkleckersdorf"}}, testTargets())
	require.NoError(t, err)
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "    2. ")
	assert.NotContains(t, client.prompts[0], "    3. ")
}

func TestReconcilePartitionOverManySources(t *testing.T) {
	targets := testTargets()
	names := []string{"Berlin Hbf", "Neustadt", "", "Hamburg Hbf", "Frankfurt (Oder)", "Leipzig", "Leipzig Messe", "x"}
	var sources []stations.SourceRecord
	for i := 0; i < 40; i++ {
		sources = append(sources, stations.SourceRecord{ID: fmt.Sprint("s", i), RawName: names[i%len(names)]})
	}

	client := &recordingClient{text: `[{"station_id": 1, "correct_match_index": 1}]`}
	r := newReconciler(t, client)

	result, err := r.Reconcile(context.Background(), sources, targets)
	require.NoError(t, err)
	assertPartition(t, sources, result)

	for _, res := range result.Results {
		if res.Type == stations.MatchExact {
			assert.Equal(t, 100, res.Score)
		}
		if res.Matched() {
			assert.NotEmpty(t, res.TargetID)
		}
	}
}

func TestReconcileEmptyTargets(t *testing.T) {
	r := newReconciler(t, &recordingClient{text: "[]"})
	sources := testSources()

	result, err := r.Reconcile(context.Background(), sources, nil)
	require.NoError(t, err)
	assertPartition(t, sources, result)
	for _, res := range result.Results {
		assert.Equal(t, stations.SubtypeNoCandidates, res.Subtype, res.SourceID)
	}
	assert.Len(t, result.Unmatched(), len(sources))
	assert.Equal(t, 0, result.Stats.ArbiterRequests)
}

func TestReconcileRejectsBadSources(t *testing.T) {
	r := newReconciler(t, nil)

	_, err := r.Reconcile(context.Background(), []stations.SourceRecord{{ID: "a"}, {ID: "a"}}, nil)
	assert.True(t, errors.IsValidationError(err))

	_, err = r.Reconcile(context.Background(), []stations.SourceRecord{{ID: ""}}, nil)
	assert.True(t, errors.IsValidationError(err))
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := reconciler.New(reconciler.WithThresholds(70, 80))
	assert.True(t, errors.IsValidationError(err))

	_, err = reconciler.New(reconciler.WithTopK(0))
	assert.True(t, errors.IsValidationError(err))

	_, err = reconciler.New(reconciler.WithNormalizer(nil))
	assert.True(t, errors.IsValidationError(err))
}

func TestResultSummary(t *testing.T) {
	r := newReconciler(t, nil)
	result, err := r.Reconcile(context.Background(), testSources(), testTargets())
	require.NoError(t, err)

	summary := result.Summary()
	assert.True(t, strings.HasPrefix(summary, "3 of 6 stations matched"), summary)
	assert.Len(t, result.ByType(stations.MatchFuzzy), 2)
}
