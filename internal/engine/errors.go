package engine

import (
	"errors"
	"fmt"
)

// ConfigError represents a configuration the engine refuses to run with.
//
// Configuration errors include:
//   - Too many cells: rows x Cols does not fit the sparse list index
//   - Invalid rows: Init called with zero or negative rows
//   - Unknown strategy: no strategy registered under the requested name
//
// Filter itself never fails; everything that can go wrong is rejected here,
// before the first scan cycle.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Message is a human-readable description.
	Message string

	// Strategy names the strategy that rejected the configuration, if any.
	Strategy string

	// Details contains additional context.
	Details map[string]string
}

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeTooManyCells indicates the matrix does not fit the index width.
	ErrCodeTooManyCells ConfigErrorCode = "TOO_MANY_CELLS"

	// ErrCodeInvalidRows indicates a non-positive row count.
	ErrCodeInvalidRows ConfigErrorCode = "INVALID_ROWS"

	// ErrCodeUnknownStrategy indicates an unregistered strategy name.
	ErrCodeUnknownStrategy ConfigErrorCode = "UNKNOWN_STRATEGY"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Strategy != "" {
		return fmt.Sprintf("%s: %s (strategy=%s)", e.Code, e.Message, e.Strategy)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigError reports whether err is a ConfigError with the given code.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error, code ConfigErrorCode) bool {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// NewTooManyCellsError creates a ConfigError for a matrix that does not fit.
func NewTooManyCellsError(strategy string, cells, maxCells int) *ConfigError {
	return &ConfigError{
		Code:     ErrCodeTooManyCells,
		Message:  fmt.Sprintf("matrix has too many cells (%d > %d)", cells, maxCells),
		Strategy: strategy,
		Details: map[string]string{
			"cells":     fmt.Sprintf("%d", cells),
			"max_cells": fmt.Sprintf("%d", maxCells),
		},
	}
}

// NewInvalidRowsError creates a ConfigError for a non-positive row count.
func NewInvalidRowsError(strategy string, rows int) *ConfigError {
	return &ConfigError{
		Code:     ErrCodeInvalidRows,
		Message:  fmt.Sprintf("row count must be positive, got %d", rows),
		Strategy: strategy,
		Details: map[string]string{
			"rows": fmt.Sprintf("%d", rows),
		},
	}
}

// NewUnknownStrategyError creates a ConfigError for an unregistered name.
func NewUnknownStrategyError(name string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeUnknownStrategy,
		Message: fmt.Sprintf("unknown strategy %q (known: %v)", name, Strategies()),
	}
}
