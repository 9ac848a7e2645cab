// Package logging provides structured logging for stationmatch using zerolog.
// Console output is used when writing to a terminal, JSON otherwise, so a
// matching run can be followed interactively or piped into log tooling.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Int("sources", 5400).Msg("Loaded price list")
//
//	ctx := logging.WithLogger(context.Background(), log)
//	ctx = logging.WithTier(ctx, "fuzzy")
//	logging.FromContext(ctx).Debug().Str("station", "Berlin Hbf").Msg("Accepted")
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultLogger is the process-wide fallback used when no logger is injected.
var defaultLogger = NewLoggerFromConfig(&Config{
	Level:  getEnvOrDefault("LOG_LEVEL", "info"),
	Format: getEnvOrDefault("LOG_FORMAT", "auto"),
	Output: "stderr",
})

// Default returns the default global logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault sets the default global logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// New creates a new JSON logger writing to w at the global level.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(zerolog.GlobalLevel()).
		With().
		Timestamp().
		Logger()
}

// NewConsole creates a new console logger for human-readable output on stderr.
func NewConsole() zerolog.Logger {
	return New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    os.Getenv("NO_COLOR") != "",
	})
}

// isTerminal reports whether w is a terminal file descriptor.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
