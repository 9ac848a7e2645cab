package application

import (
	"github.com/rs/zerolog"

	"github.com/luisKisters/bahnhofjaeger/pkg/arbiter"
	"github.com/luisKisters/bahnhofjaeger/pkg/normalize"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	PathsFunc        func() Paths
	MatchingFunc     func() Matching
	NormalizerFunc   func() (*normalize.Normalizer, error)
	ArbiterFunc      func() (*arbiter.Adapter, error)
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Paths returns the paths using the mock function or zero paths.
func (m *Mock) Paths() Paths {
	if m.PathsFunc != nil {
		return m.PathsFunc()
	}
	return Paths{}
}

// Matching returns the matching settings using the mock function or 90/80/10.
func (m *Mock) Matching() Matching {
	if m.MatchingFunc != nil {
		return m.MatchingFunc()
	}
	return Matching{PrimaryThreshold: 90, FallbackThreshold: 80, TopK: 10}
}

// Normalizer returns a normalizer using the mock function or one built on
// the default table.
func (m *Mock) Normalizer() (*normalize.Normalizer, error) {
	if m.NormalizerFunc != nil {
		return m.NormalizerFunc()
	}
	return normalize.New(normalize.DefaultTable()), nil
}

// Arbiter returns an adapter using the mock function or nil.
func (m *Mock) Arbiter() (*arbiter.Adapter, error) {
	if m.ArbiterFunc != nil {
		return m.ArbiterFunc()
	}
	return nil, nil
}

// Version returns a version using the mock function or "test".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "test"
}

// Commit returns a commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns a date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns a builder using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}
