// Package application provides the application interface for stationmatch
// commands.
//
// Commands accept an Application rather than the concrete App so they can be
// exercised with a Mock:
//
//	mock := &application.Mock{
//	    PathsFunc: func() application.Paths {
//	        return application.Paths{Source: "a.csv", Target: "b.csv"}
//	    },
//	}
//	cmd := match.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/luisKisters/bahnhofjaeger/pkg/arbiter"
	"github.com/luisKisters/bahnhofjaeger/pkg/normalize"
)

// Paths names the files a match run reads and writes.
type Paths struct {
	Source    string
	Target    string
	Output    string
	Unmatched string
}

// Matching holds the tuning knobs of the matching tiers.
type Matching struct {
	PrimaryThreshold  int
	FallbackThreshold int
	TopK              int
}

// Application provides what commands need from the app.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Paths returns the configured input and output files.
	Paths() Paths

	// Matching returns the configured thresholds and candidate limit.
	Matching() Matching

	// Normalizer returns the normalizer built from the configured
	// abbreviation table.
	Normalizer() (*normalize.Normalizer, error)

	// Arbiter returns the arbiter adapter, creating its client lazily.
	// A nil adapter means the arbiter tier is disabled.
	Arbiter() (*arbiter.Adapter, error)

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
