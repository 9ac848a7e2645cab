// Package arbiter asks an external model to pick the correct target among a
// station's fuzzy candidates.
//
// The model is an injected Client. The adapter owns everything around it:
// batching, the prompt, strict decoding of the response and the mapping of
// picks back to target ids. Failures are scoped to a batch or a single
// response item and never abort a run; an adapter without a client
// validates nothing.
package arbiter

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/luisKisters/bahnhofjaeger/pkg/constants"
	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
)

// Client generates a completion for a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f ClientFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Offer is one ranked candidate presented to the arbiter.
type Offer struct {
	TargetID string `json:"target_id" yaml:"target_id"`
	Name     string `json:"name" yaml:"name"`
	Score    int    `json:"score" yaml:"score"`
}

// Request asks the arbiter to resolve one source station.
type Request struct {
	SourceID   string  `json:"source_id" yaml:"source_id"`
	SourceName string  `json:"source_name" yaml:"source_name"`
	Candidates []Offer `json:"candidates" yaml:"candidates"`
}

// Validation is the arbiter's decision for one station. An empty TargetID
// means the arbiter found no correct candidate.
type Validation struct {
	SourceID    string   `json:"source_id" yaml:"source_id"`
	TargetID    string   `json:"target_id,omitempty" yaml:"target_id,omitempty"`
	Score       int      `json:"score,omitempty" yaml:"score,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Explanation string   `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// Matched reports whether the arbiter picked a target.
func (v Validation) Matched() bool {
	return v.TargetID != ""
}

// BatchResult is the outcome of one arbiter call.
type BatchResult struct {
	Batch       int          // 1-based batch number
	Requests    int          // stations in the batch
	Validations []Validation // at most one per station, in response order
	Skipped     int          // response items that could not be used
	Err         error        // batch-scoped failure, if any
}

// Failed reports whether the whole batch was lost.
func (r BatchResult) Failed() bool {
	return r.Err != nil
}

// Adapter validates candidate lists through a Client.
type Adapter struct {
	client        Client
	batchSize     int
	topK          int
	concurrency   int
	limiter       *rate.Limiter
	minConfidence float64
	timeout       time.Duration
	logger        *zerolog.Logger

	unavailableOnce sync.Once
}

// Option configures an Adapter.
type Option func(*Adapter) error

// WithBatchSize sets how many stations share one call.
func WithBatchSize(n int) Option {
	return func(a *Adapter) error {
		if n <= 0 {
			return errors.NewValidationError("batch_size", n, "must be positive")
		}
		a.batchSize = n
		return nil
	}
}

// WithTopK caps the candidates offered per station.
func WithTopK(k int) Option {
	return func(a *Adapter) error {
		if k <= 0 {
			return errors.NewValidationError("top_k", k, "must be positive")
		}
		a.topK = k
		return nil
	}
}

// WithConcurrency sets how many batches may be in flight at once.
func WithConcurrency(n int) Option {
	return func(a *Adapter) error {
		if n <= 0 || n > constants.MaxArbiterConcurrency {
			return errors.NewValidationError("concurrency", n, "must be between 1 and 8")
		}
		a.concurrency = n
		return nil
	}
}

// WithRateLimit throttles calls to perSecond. Zero disables throttling.
func WithRateLimit(perSecond float64) Option {
	return func(a *Adapter) error {
		if perSecond < 0 {
			return errors.NewValidationError("rate_per_second", perSecond, "cannot be negative")
		}
		if perSecond == 0 {
			a.limiter = nil
			return nil
		}
		a.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		return nil
	}
}

// WithMinConfidence rejects picks whose confidence is below min.
func WithMinConfidence(min float64) Option {
	return func(a *Adapter) error {
		if min < 0 || min > 100 {
			return errors.NewValidationError("min_confidence", min, "must be between 0 and 100")
		}
		a.minConfidence = min
		return nil
	}
}

// WithTimeout bounds each call. Zero leaves the caller's deadline alone.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) error {
		if d < 0 {
			return errors.NewValidationError("timeout", d, "cannot be negative")
		}
		a.timeout = d
		return nil
	}
}

// WithLogger sets the logger. Without it the context logger is used.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *Adapter) error {
		if logger == nil {
			return &errors.ValidationError{
				Field:   "logger",
				Message: "cannot be nil",
			}
		}
		a.logger = logger
		return nil
	}
}

// New creates an Adapter. A nil client yields an adapter that validates
// nothing.
func New(client Client, opts ...Option) (*Adapter, error) {
	a := &Adapter{
		client:      client,
		batchSize:   constants.DefaultBatchSize,
		topK:        constants.DefaultTopK,
		concurrency: constants.DefaultArbiterConcurrency,
		timeout:     constants.DefaultArbiterTimeout,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Available reports whether the adapter has a client to call.
func (a *Adapter) Available() bool {
	return a != nil && a.client != nil
}

// BatchSize returns the configured batch size.
func (a *Adapter) BatchSize() int {
	return a.batchSize
}

// TopK returns the configured candidate cap.
func (a *Adapter) TopK() int {
	return a.topK
}
