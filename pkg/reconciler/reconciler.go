// Package reconciler resolves source stations against target stations in
// three tiers of decreasing certainty: exact key lookup, fuzzy ranking and
// external arbitration. Every source record yields exactly one result, and a
// lower tier never reclaims a source that a higher tier resolved.
package reconciler

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/luisKisters/bahnhofjaeger/pkg/arbiter"
	"github.com/luisKisters/bahnhofjaeger/pkg/constants"
	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
	"github.com/luisKisters/bahnhofjaeger/pkg/fuzzy"
	"github.com/luisKisters/bahnhofjaeger/pkg/index"
	"github.com/luisKisters/bahnhofjaeger/pkg/logging"
	"github.com/luisKisters/bahnhofjaeger/pkg/normalize"
	"github.com/luisKisters/bahnhofjaeger/pkg/stations"
)

// Reconciler is the main interface for matching source stations to targets.
type Reconciler interface {
	// Reconcile classifies every source record against the targets.
	Reconcile(ctx context.Context, sources []stations.SourceRecord, targets []stations.TargetRecord) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	normalizer *normalize.Normalizer
	fuzzyOpts  []fuzzy.Option
	arbiter    *arbiter.Adapter
	topK       int
	logger     *zerolog.Logger
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	// Create options with defaults
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	r := &reconciler{
		normalizer: options.normalizer,
		fuzzyOpts:  options.fuzzyOpts,
		arbiter:    options.arbiter,
		topK:       options.topK,
		logger:     options.logger,
	}

	// Surface invalid generator options now rather than on the first run
	if _, err := fuzzy.NewGenerator(r.normalizer, fuzzy.NewPoolFromEntries(), r.fuzzyOpts...); err != nil {
		return nil, err
	}
	return r, nil
}

// reconcileContext holds shared state for one run.
type reconcileContext struct {
	ctx       context.Context
	logger    *zerolog.Logger
	sources   []stations.SourceRecord
	index     *index.Index
	generator *fuzzy.Generator
	result    *Result

	// slots holds the decided result per source position
	slots []*stations.Result

	// pending are the sources handed to the arbiter, in source order
	pending []pendingSource
}

// pendingSource is a source awaiting arbitration.
type pendingSource struct {
	position  int
	request   arbiter.Request
	ambiguous bool
}

// Reconcile performs reconciliation with a clean step-by-step flow.
func (r *reconciler) Reconcile(ctx context.Context, sources []stations.SourceRecord, targets []stations.TargetRecord) (*Result, error) {
	// Step 1: Initialize context and validate
	rctx, err := r.initialize(ctx, sources, targets)
	if err != nil {
		return nil, err
	}

	// Step 2: Exact pass
	r.exactPass(rctx)

	// Step 3: Fuzzy pass over what the exact pass left
	r.fuzzyPass(rctx)

	// Step 4: Arbiter pass over what the fuzzy pass left
	r.arbiterPass(rctx)

	// Step 5: Everything still undecided is unmatched
	r.classifyRemaining(rctx)

	// Step 6: Assemble results in source order and check the partition
	return r.assemble(rctx)
}

// initialize sets up the run: ids, logger, index and generator.
func (r *reconciler) initialize(ctx context.Context, sources []stations.SourceRecord, targets []stations.TargetRecord) (*reconcileContext, error) {
	seen := make(map[string]bool, len(sources))
	for i, src := range sources {
		if src.ID == "" {
			return nil, errors.NewValidationError("sources", i, fmt.Sprintf("record %d has no id", i+1))
		}
		if seen[src.ID] {
			return nil, errors.NewValidationError("sources", src.ID, "duplicate source id")
		}
		seen[src.ID] = true
	}

	runID := uuid.NewString()
	logger := r.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	l := logger.With().Str("run_id", runID).Logger()
	ctx = logging.WithLogger(ctx, &l)

	pool := fuzzy.NewPool(targets, r.normalizer.Fold)
	generator, err := fuzzy.NewGenerator(r.normalizer, pool, r.fuzzyOpts...)
	if err != nil {
		return nil, err
	}

	result := NewResult(runID)
	result.Stats.Sources = len(sources)
	result.Stats.Targets = len(targets)
	result.Metadata.PrimaryThreshold, result.Metadata.FallbackThreshold = generator.Thresholds()
	result.Metadata.TopK = r.topK
	result.Metadata.ArbiterEnabled = r.arbiter.Available()

	rctx := &reconcileContext{
		ctx:       ctx,
		logger:    &l,
		sources:   sources,
		index:     index.Build(targets, r.normalizer.Fold),
		generator: generator,
		result:    result,
		slots:     make([]*stations.Result, len(sources)),
	}

	l.Info().
		Int("sources", len(sources)).
		Int("targets", len(targets)).
		Int("keys", rctx.index.Len()).
		Int("pool", pool.Len()).
		Msg("Starting reconciliation")
	return rctx, nil
}

// exactPass resolves sources whose folded name is the key of exactly one
// target. Keys shared by several targets are sent to the arbiter with the
// colliding targets as candidates.
func (r *reconciler) exactPass(rctx *reconcileContext) {
	matched, ambiguous := 0, 0
	for i, src := range rctx.sources {
		key := r.normalizer.Fold(src.RawName)
		if key == "" {
			rctx.slots[i] = noCandidates(src, "source name is empty")
			continue
		}

		hits := rctx.index.Lookup(key)
		switch {
		case len(hits) == 1:
			rctx.slots[i] = &stations.Result{
				SourceID: src.ID,
				TargetID: hits[0].ID,
				Type:     stations.MatchExact,
				Score:    constants.MaxScore,
				Subtype:  string(stations.MethodExact),
			}
			matched++
		case len(hits) > 1:
			offers := make([]arbiter.Offer, len(hits))
			for j, hit := range hits {
				offers[j] = arbiter.Offer{TargetID: hit.ID, Name: hit.Name, Score: constants.MaxScore}
			}
			rctx.pending = append(rctx.pending, pendingSource{
				position:  i,
				request:   arbiter.Request{SourceID: src.ID, SourceName: src.RawName, Candidates: offers},
				ambiguous: true,
			})
			ambiguous++
			rctx.logger.Debug().
				Str("source_id", src.ID).
				Str("key", key).
				Int("targets", len(hits)).
				Msg("Exact key is ambiguous")
		}
	}

	rctx.logger.Info().
		Str("tier", "exact").
		Int("matched", matched).
		Int("ambiguous", ambiguous).
		Msg("Exact pass complete")
}

// fuzzyPass runs the fuzzy strategies for every source the exact pass left
// undecided, except ambiguous ones.
func (r *reconciler) fuzzyPass(rctx *reconcileContext) {
	ambiguous := make(map[int]bool, len(rctx.pending))
	for _, p := range rctx.pending {
		ambiguous[p.position] = true
	}

	var pending []pendingSource
	matched := 0
	for i, src := range rctx.sources {
		if rctx.slots[i] != nil || ambiguous[i] {
			continue
		}

		outcome := rctx.generator.Match(src.RawName)
		if c := outcome.Accepted; c != nil {
			rctx.slots[i] = &stations.Result{
				SourceID: src.ID,
				TargetID: c.TargetID,
				Type:     stations.MatchFuzzy,
				Score:    c.Score,
				Subtype:  string(c.Method),
			}
			matched++
			rctx.logger.Debug().
				Str("source_id", src.ID).
				Str("target_id", c.TargetID).
				Int("score", c.Score).
				Str("method", string(c.Method)).
				Msg("Fuzzy match")
			continue
		}

		top := outcome.Top(r.topK)
		if len(top) == 0 {
			rctx.slots[i] = noCandidates(src, "no target to compare against")
			continue
		}
		offers := make([]arbiter.Offer, len(top))
		for j, c := range top {
			offers[j] = arbiter.Offer{TargetID: c.TargetID, Name: c.Name, Score: c.Score}
		}
		pending = append(pending, pendingSource{
			position: i,
			request:  arbiter.Request{SourceID: src.ID, SourceName: src.RawName, Candidates: offers},
		})
	}

	// keep arbiter requests in source order
	rctx.pending = mergeByPosition(rctx.pending, pending)

	rctx.logger.Info().
		Str("tier", "fuzzy").
		Int("matched", matched).
		Int("remaining", len(rctx.pending)).
		Msg("Fuzzy pass complete")
}

// arbiterPass asks the arbiter about every pending source and records its
// picks. Sources it declines or never answers for stay undecided.
func (r *reconciler) arbiterPass(rctx *reconcileContext) {
	if len(rctx.pending) == 0 {
		return
	}

	requests := make([]arbiter.Request, len(rctx.pending))
	for i, p := range rctx.pending {
		requests[i] = p.request
	}
	rctx.result.Stats.ArbiterRequests = len(requests)

	if r.arbiter == nil {
		rctx.logger.Warn().
			Int("stations", len(requests)).
			Msg("No arbiter configured, remaining stations stay unmatched")
		return
	}

	batches := r.arbiter.ValidateAll(logging.WithTier(rctx.ctx, "arbiter"), requests)

	decided := make(map[string]arbiter.Validation)
	for _, batch := range batches {
		rctx.result.Stats.ArbiterBatches++
		rctx.result.Stats.ArbiterItemsSkipped += batch.Skipped
		if batch.Failed() {
			rctx.result.Stats.ArbiterBatchesFailed++
			rctx.result.Errors = append(rctx.result.Errors, batch.Err)
			continue
		}
		for _, v := range batch.Validations {
			decided[v.SourceID] = v
		}
	}

	matched := 0
	for _, p := range rctx.pending {
		v, ok := decided[p.request.SourceID]
		if !ok {
			continue
		}
		if !v.Matched() {
			res := unmatched(p, stations.SubtypeRejected, v.Explanation)
			res.Confidence = v.Confidence
			rctx.slots[p.position] = res
			continue
		}

		res := &stations.Result{
			SourceID:    p.request.SourceID,
			TargetID:    v.TargetID,
			Type:        stations.MatchAIValidated,
			Score:       v.Score,
			Subtype:     stations.SubtypeAIValidated,
			Explanation: v.Explanation,
			Confidence:  v.Confidence,
		}
		if p.ambiguous {
			res.Ambiguous = true
			res.CandidateIDs = candidateIDs(p.request)
		}
		rctx.slots[p.position] = res
		matched++
	}

	rctx.logger.Info().
		Str("tier", "arbiter").
		Int("requests", len(requests)).
		Int("batches", len(batches)).
		Int("failed_batches", rctx.result.Stats.ArbiterBatchesFailed).
		Int("skipped_items", rctx.result.Stats.ArbiterItemsSkipped).
		Int("matched", matched).
		Msg("Arbiter pass complete")
}

// classifyRemaining marks every pending source the arbiter did not decide
// as unmatched.
func (r *reconciler) classifyRemaining(rctx *reconcileContext) {
	for _, p := range rctx.pending {
		if rctx.slots[p.position] != nil {
			continue
		}
		rctx.slots[p.position] = unmatched(p, stations.SubtypeUnresolved, "")
	}
}

// assemble collects the slots and verifies one result per source.
func (r *reconciler) assemble(rctx *reconcileContext) (*Result, error) {
	result := rctx.result
	result.Results = make([]stations.Result, 0, len(rctx.sources))

	for i, slot := range rctx.slots {
		if slot == nil || slot.SourceID != rctx.sources[i].ID {
			return nil, fmt.Errorf("%w: source %q", errors.ErrPartitionViolated, rctx.sources[i].ID)
		}
		result.Results = append(result.Results, *slot)
		result.Stats.count(*slot)
	}
	result.Finalize()

	rctx.logger.Info().
		Int("exact", result.Stats.Exact).
		Int("fuzzy", result.Stats.Fuzzy).
		Int("ai_validated", result.Stats.AIValidated).
		Int("unmatched", result.Stats.Unmatched).
		Int("ambiguous", result.Stats.Ambiguous).
		Dur("duration", result.Metadata.Duration).
		Msg("Reconciliation complete")
	return result, nil
}

func noCandidates(src stations.SourceRecord, explanation string) *stations.Result {
	return &stations.Result{
		SourceID:    src.ID,
		Type:        stations.MatchUnmatched,
		Subtype:     stations.SubtypeNoCandidates,
		Explanation: explanation,
	}
}

// unmatched builds the final result of a pending source nobody resolved.
// Ambiguous sources keep the collision as their explanation.
func unmatched(p pendingSource, subtype, explanation string) *stations.Result {
	res := &stations.Result{
		SourceID:    p.request.SourceID,
		Type:        stations.MatchUnmatched,
		Subtype:     subtype,
		Explanation: explanation,
	}
	if p.ambiguous {
		ids := candidateIDs(p.request)
		res.Ambiguous = true
		res.Subtype = stations.SubtypeAmbiguousExact
		res.CandidateIDs = ids
		collision := fmt.Sprintf("exact key shared by %d targets: %s", len(ids), strings.Join(ids, ", "))
		if explanation != "" {
			collision += "; " + explanation
		}
		res.Explanation = collision
	}
	return res
}

func candidateIDs(req arbiter.Request) []string {
	ids := make([]string, len(req.Candidates))
	for i, c := range req.Candidates {
		ids[i] = c.TargetID
	}
	return ids
}

// mergeByPosition merges two lists that are each sorted by position.
func mergeByPosition(a, b []pendingSource) []pendingSource {
	out := make([]pendingSource, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].position < b[j].position {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
