package logging_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luisKisters/bahnhofjaeger/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.InfoLevel))

	logging.Default().Debug().Msg("debug message")
	logging.Default().Info().Msg("info message")

	assert.Contains(t, buf.String(), "info message")
	assert.NotContains(t, buf.String(), "debug message")
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithRun(ctx, "run-1")
	ctx = logging.WithTier(ctx, "arbiter")
	ctx = logging.WithBatch(ctx, 3)
	ctx = logging.WithSource(ctx, "42")

	logging.FromContext(ctx).Info().Msg("batch failed")

	testLogger.AssertContains(t, `"run_id":"run-1"`)
	testLogger.AssertContains(t, `"tier":"arbiter"`)
	testLogger.AssertContains(t, `"batch":3`)
	testLogger.AssertContains(t, `"source_id":"42"`)
	testLogger.AssertContains(t, "batch failed")
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	//nolint:staticcheck // nil context is part of the contract
	assert.Same(t, logging.Default(), logging.FromContext(nil))
}

func TestWithFieldError(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithField(ctx, "error", errors.New("boom"))
	ctx = logging.WithField(ctx, "cause", errors.New("quota"))

	logging.FromContext(ctx).Warn().Msg("call failed")

	testLogger.AssertContains(t, `"error":"boom"`)
	testLogger.AssertContains(t, `"cause":"quota"`)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, logging.ParseLevel(input))
		})
	}
}

func TestNewLoggerFromConfig(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	t.Run("file output is json with default fields", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.log")
		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:  "info",
			Format: "auto",
			Output: path,
			Fields: map[string]any{"component": "stationmatch", "attempt": 1},
		})
		logger.Info().Msg("written to file")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		line := strings.TrimSpace(string(data))
		assert.True(t, strings.HasPrefix(line, "{"), "expected JSON, got %q", line)
		assert.Contains(t, line, `"component":"stationmatch"`)
		assert.Contains(t, line, `"attempt":1`)
	})

	t.Run("discard", func(t *testing.T) {
		logger := logging.NewLoggerFromConfig(&logging.Config{Level: "debug", Output: "discard"})
		assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		logger := logging.NewLoggerFromConfig(nil)
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})
}

func TestTestLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)
	assert.Empty(t, tl.Lines())

	tl.Info().Msg("first")
	tl.Debug().Msg("second")

	assert.Len(t, tl.Lines(), 2)
	assert.True(t, tl.Contains("second"))
}
