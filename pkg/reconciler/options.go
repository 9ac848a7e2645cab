package reconciler

import (
	"github.com/rs/zerolog"

	"github.com/luisKisters/bahnhofjaeger/pkg/arbiter"
	"github.com/luisKisters/bahnhofjaeger/pkg/constants"
	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
	"github.com/luisKisters/bahnhofjaeger/pkg/fuzzy"
	"github.com/luisKisters/bahnhofjaeger/pkg/normalize"
)

// Options configures a reconciler.
type options struct {
	normalizer *normalize.Normalizer
	fuzzyOpts  []fuzzy.Option
	arbiter    *arbiter.Adapter
	topK       int
	logger     *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		normalizer: normalize.New(normalize.DefaultTable()),
		topK:       constants.DefaultTopK,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithNormalizer sets the normalizer used for exact keys and fuzzy queries.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(o *options) error {
		if n == nil {
			return &errors.ValidationError{
				Field:   "normalizer",
				Message: "cannot be nil",
			}
		}
		o.normalizer = n
		return nil
	}
}

// WithGenerator configures the fuzzy generator built for each run.
func WithGenerator(opts ...fuzzy.Option) Option {
	return func(o *options) error {
		o.fuzzyOpts = append(o.fuzzyOpts, opts...)
		return nil
	}
}

// WithThresholds sets the primary and fallback fuzzy cutoffs.
func WithThresholds(primary, fallback int) Option {
	return WithGenerator(fuzzy.WithThresholds(primary, fallback))
}

// WithArbiter sets the adapter for the last tier. Without one, everything
// the fuzzy tier leaves behind is unmatched.
func WithArbiter(a *arbiter.Adapter) Option {
	return func(o *options) error {
		o.arbiter = a
		return nil
	}
}

// WithTopK caps the candidates forwarded to the arbiter per source.
func WithTopK(k int) Option {
	return func(o *options) error {
		if k <= 0 {
			return errors.NewValidationError("top_k", k, "must be positive")
		}
		o.topK = k
		return nil
	}
}

// WithLogger sets the logger. Without it the context logger is used.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{
				Field:   "logger",
				Message: "cannot be nil",
			}
		}
		o.logger = logger
		return nil
	}
}
