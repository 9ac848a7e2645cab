// Package constants provides shared constants used throughout stationmatch.
// This includes match thresholds, batch limits, timeouts, file permissions and
// default file names that must stay consistent between the library packages
// and the CLI.
package constants

import "time"

// Threshold constants define the acceptance cutoffs of the fuzzy tier
const (
	// DefaultPrimaryThreshold is the cutoff for the plain and expanded strategies
	DefaultPrimaryThreshold = 90

	// DefaultFallbackThreshold is the cutoff for the parenthetical-stripped strategies
	DefaultFallbackThreshold = 80

	// MaxScore is the score of an exact match and the upper bound of every scorer
	MaxScore = 100
)

// Arbiter constants bound the size and pace of external validation calls
const (
	// DefaultBatchSize is the number of stations sent per arbiter call
	DefaultBatchSize = 10

	// DefaultTopK is the number of ranked candidates offered per station
	DefaultTopK = 10

	// DefaultArbiterConcurrency is the number of arbiter batches in flight
	DefaultArbiterConcurrency = 1

	// MaxArbiterConcurrency caps configured concurrency to respect provider rate limits
	MaxArbiterConcurrency = 8

	// DefaultArbiterModel is the Gemini model used for validation
	DefaultArbiterModel = "gemini-2.0-flash"

	// DefaultArbiterTemperature keeps the arbiter close to deterministic
	DefaultArbiterTemperature = 0.1

	// DefaultArbiterTimeout bounds a single arbiter call
	DefaultArbiterTimeout = 60 * time.Second

	// ResponsePreviewLength is how much of a raw arbiter response is logged
	ResponsePreviewLength = 200
)

// Timeout constants
const (
	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 30 * time.Minute

	// ShutdownTimeout bounds graceful shutdown after an error
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Default file names, matching the names used by the data preparation scripts
const (
	DefaultSourceFile    = "Stationspreisliste-2025-final.csv"
	DefaultTargetFile    = "turbopass-export.csv"
	DefaultOutputFile    = "combined_station_matches.csv"
	DefaultUnmatchedFile = "unmatched_stations.csv"
	DefaultConfigName    = ".stationmatch"
	EnvPrefix            = "STATIONMATCH"
)
