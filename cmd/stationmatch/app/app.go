// Package app provides the application context and dependency management
// for the stationmatch CLI. It centralizes configuration, logging and the
// lazily built matching dependencies.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/luisKisters/bahnhofjaeger/cmd/application"
	"github.com/luisKisters/bahnhofjaeger/internal/arbiter/cache"
	"github.com/luisKisters/bahnhofjaeger/internal/arbiter/gemini"
	"github.com/luisKisters/bahnhofjaeger/pkg/arbiter"
	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
	"github.com/luisKisters/bahnhofjaeger/pkg/normalize"
)

// App represents the stationmatch application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// customLogger keeps an injected logger across flag parsing
	customLogger bool

	// Lazily built dependencies
	mu         sync.Mutex
	normalizer *normalize.Normalizer
	adapter    *arbiter.Adapter
	client     arbiter.Client
	cache      *cache.Client
}

var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Paths returns the configured input and output files.
func (a *App) Paths() application.Paths {
	return a.config.Paths()
}

// Matching returns the configured thresholds and candidate limit.
func (a *App) Matching() application.Matching {
	return a.config.Matching()
}

// Normalizer returns the normalizer, loading the abbreviation table on
// first use.
func (a *App) Normalizer() (*normalize.Normalizer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.normalizer != nil {
		return a.normalizer, nil
	}

	table := normalize.DefaultTable()
	if path := a.config.AbbreviationsFile; path != "" {
		loaded, err := normalize.LoadTable(path)
		if err != nil {
			return nil, err
		}
		table = loaded
		a.logger.Debug().Str("path", path).Int("entries", table.Len()).Msg("Loaded abbreviation table")
	}

	var opts []normalize.Option
	if a.config.FoldDiacritics {
		opts = append(opts, normalize.WithDiacriticFolding())
	}
	a.normalizer = normalize.New(table, opts...)
	return a.normalizer, nil
}

// Arbiter returns the arbiter adapter, or nil when the tier is disabled.
// Without an API key the adapter is built without a client and every
// station it would have decided stays unmatched.
func (a *App) Arbiter() (*arbiter.Adapter, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cfg := a.config.Arbiter
	if !cfg.Enabled {
		return nil, nil
	}
	if a.adapter != nil {
		return a.adapter, nil
	}

	client, err := a.arbiterClient(cfg)
	if err != nil {
		return nil, err
	}

	opts := []arbiter.Option{
		arbiter.WithBatchSize(cfg.BatchSize),
		arbiter.WithTopK(a.config.TopK),
		arbiter.WithConcurrency(cfg.Concurrency),
		arbiter.WithRateLimit(cfg.RatePerSecond),
		arbiter.WithMinConfidence(cfg.MinConfidence),
		arbiter.WithTimeout(cfg.Timeout),
		arbiter.WithLogger(a.logger),
	}
	adapter, err := arbiter.New(client, opts...)
	if err != nil {
		return nil, errors.WrapResource("create", "arbiter", cfg.Model, err)
	}
	a.adapter = adapter
	return adapter, nil
}

// arbiterClient returns the injected client, or a Gemini client wrapped in
// the response cache when one is configured. It returns nil without error
// when no API key is available.
func (a *App) arbiterClient(cfg ArbiterConfig) (arbiter.Client, error) {
	client := a.client
	if client == nil {
		key := cfg.APIKey
		if key == "" {
			key = gemini.APIKeyFromEnv()
		}
		if key == "" {
			a.logger.Warn().Msg("No Gemini API key configured; arbiter tier unavailable")
			return nil, nil
		}
		g, err := gemini.NewClient(gemini.Config{APIKey: key, Model: cfg.Model})
		if err != nil {
			return nil, err
		}
		client = g
	}

	if cfg.CacheFile == "" {
		return client, nil
	}
	cached, err := cache.Open(cfg.CacheFile, cfg.Model, client)
	if err != nil {
		return nil, err
	}
	a.cache = cached
	a.logger.Debug().Str("path", cached.Path()).Msg("Using arbiter response cache")
	return cached, nil
}

// Shutdown releases resources held by the application.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cache == nil {
		return nil
	}
	stats := a.cache.Stats()
	a.logger.Debug().Int64("hits", stats.Hits).Int64("misses", stats.Misses).Msg("Arbiter cache closed")
	err := a.cache.Close()
	a.cache = nil
	return err
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return errors.NewValidationError("config", nil, "cannot be nil")
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		if logger == nil {
			return errors.NewValidationError("logger", nil, "cannot be nil")
		}
		a.logger = logger
		a.customLogger = true
		return nil
	}
}

// WithArbiterClient replaces the Gemini client (useful for testing).
func WithArbiterClient(client arbiter.Client) Option {
	return func(a *App) error {
		a.client = client
		return nil
	}
}
