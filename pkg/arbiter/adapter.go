package arbiter

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
	"github.com/luisKisters/bahnhofjaeger/pkg/logging"
	"github.com/luisKisters/bahnhofjaeger/pkg/normalize"
)

// names compares echoed station names loosely.
var names = normalize.New(normalize.NewTable())

// Validate sends one batch as a single call and maps the response back to
// the batch's requests. Requests beyond the batch size are not split off;
// use ValidateAll for that.
func (a *Adapter) Validate(ctx context.Context, batch []Request) BatchResult {
	return a.validateBatch(ctx, 1, batch)
}

// ValidateAll splits requests into batches and validates them with at most
// the configured number of calls in flight. Results are returned in batch
// order whatever order the calls complete in. Without a client nothing is
// sent and nil is returned.
func (a *Adapter) ValidateAll(ctx context.Context, requests []Request) []BatchResult {
	if a == nil || len(requests) == 0 {
		return nil
	}
	logger := a.loggerFor(ctx)

	if !a.Available() {
		a.unavailableOnce.Do(func() {
			logger.Warn().
				Err(errors.NewArbiterError(errors.ArbiterUnavailable, 0, 0, "no client configured", nil)).
				Int("stations", len(requests)).
				Msg("Arbiter unavailable, remaining stations stay unmatched")
		})
		return nil
	}

	batches := split(requests, a.batchSize)
	logger.Info().
		Int("stations", len(requests)).
		Int("batches", len(batches)).
		Int("concurrency", a.concurrency).
		Msg("Validating candidates with arbiter")

	results := make([]BatchResult, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, batch := range batches {
		g.Go(func() error {
			results[i] = a.validateBatch(gctx, i+1, batch)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (a *Adapter) validateBatch(ctx context.Context, number int, batch []Request) BatchResult {
	result := BatchResult{Batch: number, Requests: len(batch)}
	logger := a.loggerFor(ctx).With().Int("batch", number).Int("stations", len(batch)).Logger()

	if !a.Available() {
		result.Err = errors.NewArbiterError(errors.ArbiterUnavailable, number, 0, "no client configured", nil)
		return result
	}
	if len(batch) == 0 {
		return result
	}

	text, err := a.call(ctx, BuildPrompt(batch, a.topK), &logger)
	if err != nil {
		result.Err = errors.NewArbiterError(errors.ArbiterCallFailed, number, 0, err.Error(), err)
		logger.Error().Err(result.Err).Msg("Arbiter call failed, skipping batch")
		return result
	}

	items, itemErrs, err := ParseResponse(text)
	if err != nil {
		if ae, ok := err.(*errors.ArbiterError); ok {
			ae.Batch = number
		}
		result.Err = err
		logger.Warn().Err(err).Str("response_preview", preview(text)).Msg("Malformed arbiter response, skipping batch")
		return result
	}
	for _, ie := range itemErrs {
		ie.Batch = number
		result.Skipped++
		logger.Warn().Err(ie).Msg("Skipping arbiter response item")
	}

	seen := make([]bool, len(batch))
	for _, item := range items {
		v, ok := a.resolve(number, item, batch, seen, &logger)
		if !ok {
			result.Skipped++
			continue
		}
		if v != nil {
			result.Validations = append(result.Validations, *v)
		}
	}

	matched := 0
	for _, v := range result.Validations {
		if v.Matched() {
			matched++
		}
	}
	logger.Info().
		Int("items", len(items)+len(itemErrs)).
		Int("matched", matched).
		Int("skipped", result.Skipped).
		Msg("Arbiter batch processed")
	return result
}

// call performs the single attempt for a batch.
func (a *Adapter) call(ctx context.Context, prompt string, logger *zerolog.Logger) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	logger.Debug().Int("prompt_length", len(prompt)).Msg("Sending batch to arbiter")
	text, err := a.client.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	logger.Debug().Int("response_length", len(text)).Str("response_preview", preview(text)).Msg("Received arbiter response")
	return text, nil
}

// resolve maps an item to its request. ok is false when the item is
// unusable; a nil validation with ok set means the item was a repeat.
func (a *Adapter) resolve(number int, item Item, batch []Request, seen []bool, logger *zerolog.Logger) (*Validation, bool) {
	pos := stationPosition(item, batch, seen)
	if pos < 0 {
		logger.Warn().
			Int("item", item.Position).
			Int("station_id", item.StationID).
			Str("station_name", item.StationName).
			Msg("Arbiter item matches no station in the batch")
		return nil, false
	}
	if seen[pos] {
		logger.Debug().Int("item", item.Position).Int("station", pos+1).Msg("Ignoring repeated arbiter item")
		return nil, true
	}
	seen[pos] = true

	req := batch[pos]
	v := &Validation{
		SourceID:    req.SourceID,
		Confidence:  item.Confidence,
		Explanation: item.Explanation,
	}
	if !item.Picked {
		return v, true
	}

	offers := limitOffers(req.Candidates, a.topK)
	if item.Index < 1 || item.Index > len(offers) {
		err := errors.NewArbiterError(errors.ArbiterIndexOutOfRange, number, item.Position,
			fmt.Sprintf("index %d outside 1..%d for %q", item.Index, len(offers), req.SourceName), nil)
		logger.Warn().Err(err).Msg("Skipping arbiter response item")
		return nil, false
	}

	if a.minConfidence > 0 && (item.Confidence == nil || *item.Confidence < a.minConfidence) {
		logger.Debug().
			Str("source_id", req.SourceID).
			Float64("min_confidence", a.minConfidence).
			Msg("Rejecting low confidence arbiter pick")
		return v, true
	}

	offer := offers[item.Index-1]
	v.TargetID = offer.TargetID
	v.Score = offer.Score
	return v, true
}

// stationPosition finds the request an item refers to: by its 1-based
// station id first, then by the echoed name, compared as given and then
// folded. Unclaimed requests win over claimed ones with the same name.
func stationPosition(item Item, batch []Request, seen []bool) int {
	if item.StationID >= 1 && item.StationID <= len(batch) {
		return item.StationID - 1
	}
	if item.StationName == "" {
		return -1
	}

	folded := names.Fold(item.StationName)
	for _, same := range []func(Request) bool{
		func(r Request) bool { return r.SourceName == item.StationName },
		func(r Request) bool { return names.Fold(r.SourceName) == folded },
	} {
		first := -1
		for i, req := range batch {
			if !same(req) {
				continue
			}
			if !seen[i] {
				return i
			}
			if first < 0 {
				first = i
			}
		}
		if first >= 0 {
			return first
		}
	}
	return -1
}

func split(requests []Request, size int) [][]Request {
	var batches [][]Request
	for start := 0; start < len(requests); start += size {
		end := min(start+size, len(requests))
		batches = append(batches, requests[start:end])
	}
	return batches
}

func (a *Adapter) loggerFor(ctx context.Context) *zerolog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return logging.FromContext(ctx)
}
