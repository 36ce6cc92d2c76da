package model

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCorpus is returned when there are no documents, or every
	// document reduces to zero terms after tokenization.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrNotFitted is returned when a component is used before it was fitted.
	ErrNotFitted = errors.New("not fitted")
)

// InsufficientDataError indicates too few samples or classes to learn a
// decision boundary.
type InsufficientDataError struct {
	Samples int
	Classes int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d samples, %d distinct labels (need at least 2 of each)",
		e.Samples, e.Classes)
}

// DimensionMismatchError indicates a feature vector whose width differs from
// the width a model or vocabulary was fitted with.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// UnsupportedModelError indicates an operation that has no definition for
// the given model family.
type UnsupportedModelError struct {
	Family    string
	Operation string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("%s not supported for model family %q", e.Operation, e.Family)
}

// InvalidKError indicates a flat-cluster count outside [1, n].
type InvalidKError struct {
	K int
	N int
}

func (e *InvalidKError) Error() string {
	return fmt.Sprintf("invalid k: %d (must be between 1 and %d)", e.K, e.N)
}

// ConfigError indicates an invalid configuration value, reported before any
// computation starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}
