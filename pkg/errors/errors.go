// Package errors provides custom error types for the station matching system.
// Loading failures are fatal and abort a run before any matching happens,
// while arbiter failures are scoped to a batch or a single response item and
// never abort reconciliation.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Sentinel errors for errors.Is checks.
var (
	// ErrInputMissing indicates that an input dataset could not be found or opened.
	ErrInputMissing = errors.New("input missing")

	// ErrInputMalformed indicates that an input dataset or row could not be parsed.
	ErrInputMalformed = errors.New("input malformed")

	// ErrInvalidInput indicates that provided input was invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAPIKeyRequired indicates that an API key is required but not provided.
	ErrAPIKeyRequired = errors.New("API key required")

	// ErrArbiterUnavailable indicates that no arbiter capability is configured.
	ErrArbiterUnavailable = errors.New("arbiter unavailable")

	// ErrArbiterMalformedResponse indicates that an arbiter response could not be parsed.
	ErrArbiterMalformedResponse = errors.New("arbiter response malformed")

	// ErrArbiterIndexOutOfRange indicates that an arbiter picked a candidate that does not exist.
	ErrArbiterIndexOutOfRange = errors.New("arbiter index out of range")

	// ErrArbiterCallFailed indicates that the external arbiter call itself failed.
	ErrArbiterCallFailed = errors.New("arbiter call failed")

	// ErrPartitionViolated indicates that reconciliation did not yield exactly one result per source.
	ErrPartitionViolated = errors.New("result partition violated")
)

// InputKind classifies input failures.
type InputKind string

const (
	// InputMissing means the dataset file does not exist or cannot be opened.
	InputMissing InputKind = "missing"
	// InputMalformed means the dataset or one of its rows cannot be parsed.
	InputMalformed InputKind = "malformed"
)

// InputError represents a failure to load one of the two datasets.
// Row is 1-based and zero when the whole dataset is affected.
type InputError struct {
	Kind    InputKind
	Path    string
	Row     int
	Message string
	Err     error
}

// Error implements the error interface
func (e *InputError) Error() string {
	switch {
	case e.Row > 0:
		return fmt.Sprintf("input %s: %s row %d: %s", e.Kind, e.Path, e.Row, e.Message)
	case e.Path != "":
		return fmt.Sprintf("input %s: %s: %s", e.Kind, e.Path, e.Message)
	default:
		return fmt.Sprintf("input %s: %s", e.Kind, e.Message)
	}
}

// Unwrap implements errors.Unwrap
func (e *InputError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *InputError) Is(target error) bool {
	switch e.Kind {
	case InputMissing:
		return target == ErrInputMissing
	case InputMalformed:
		return target == ErrInputMalformed
	}
	return false
}

// NewInputMissing creates an InputError for a dataset that cannot be opened.
func NewInputMissing(path string, err error) *InputError {
	message := "file not found"
	if err != nil {
		message = err.Error()
	}
	return &InputError{Kind: InputMissing, Path: path, Message: message, Err: err}
}

// NewInputMalformed creates an InputError for an unparseable dataset or row.
func NewInputMalformed(path string, row int, message string, err error) *InputError {
	return &InputError{Kind: InputMalformed, Path: path, Row: row, Message: message, Err: err}
}

// ArbiterKind classifies arbiter failures.
type ArbiterKind string

// Arbiter failure kinds.
const (
	ArbiterUnavailable       ArbiterKind = "unavailable"
	ArbiterMalformedResponse ArbiterKind = "malformed-response"
	ArbiterIndexOutOfRange   ArbiterKind = "index-out-of-range"
	ArbiterCallFailed        ArbiterKind = "call-failed"
)

// ArbiterError represents a failure scoped to one arbiter batch or one item
// within a batch. Batch is 1-based; Item is 1-based and zero for batch-scoped
// failures.
type ArbiterError struct {
	Kind    ArbiterKind
	Batch   int
	Item    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ArbiterError) Error() string {
	if e.Item > 0 {
		return fmt.Sprintf("arbiter %s in batch %d item %d: %s", e.Kind, e.Batch, e.Item, e.Message)
	}
	if e.Batch > 0 {
		return fmt.Sprintf("arbiter %s in batch %d: %s", e.Kind, e.Batch, e.Message)
	}
	return fmt.Sprintf("arbiter %s: %s", e.Kind, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ArbiterError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ArbiterError) Is(target error) bool {
	switch e.Kind {
	case ArbiterUnavailable:
		return target == ErrArbiterUnavailable
	case ArbiterMalformedResponse:
		return target == ErrArbiterMalformedResponse
	case ArbiterIndexOutOfRange:
		return target == ErrArbiterIndexOutOfRange
	case ArbiterCallFailed:
		return target == ErrArbiterCallFailed
	}
	return false
}

// NewArbiterError creates a new ArbiterError.
func NewArbiterError(kind ArbiterKind, batch, item int, message string, err error) *ArbiterError {
	return &ArbiterError{Kind: kind, Batch: batch, Item: item, Message: message, Err: err}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// AuthenticationError represents a missing or rejected credential.
type AuthenticationError struct {
	Provider string
	Method   string // "api_key", "adc", ...
	Message  string
	Err      error
}

// Error implements the error interface
func (e *AuthenticationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("authentication error for %s (%s): %s", e.Provider, e.Method, e.Message)
	}
	return fmt.Sprintf("authentication error (%s): %s", e.Method, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAPIKeyRequired
}

// APIError represents an error returned by an external API.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Provider, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "csv"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// ResourceError represents an error while constructing or using a run resource
// (normalizer, index, arbiter, output file).
type ResourceError struct {
	Operation string
	Resource  string
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsInputMissing checks if an error is a missing-input error
func IsInputMissing(err error) bool {
	return errors.Is(err, ErrInputMissing)
}

// IsInputMalformed checks if an error is a malformed-input error
func IsInputMalformed(err error) bool {
	return errors.Is(err, ErrInputMalformed)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsAPIKeyError checks if an error is caused by a missing API key
func IsAPIKeyError(err error) bool {
	return errors.Is(err, ErrAPIKeyRequired)
}

// IsArbiterError checks if an error belongs to the arbiter taxonomy
func IsArbiterError(err error) bool {
	var ae *ArbiterError
	return errors.As(err, &ae)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Message: err.Error(), Err: err}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Message: err.Error(), Err: err}
}

// WrapAPI wraps an error as an APIError
func WrapAPI(provider string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{Provider: provider, StatusCode: statusCode, Message: err.Error(), Err: err}
}
