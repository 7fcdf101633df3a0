package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/keybounce/internal/matrix"
)

// Engine is the scan loop around one Debouncer.
//
// It owns the buffers a scanning driver would otherwise manage: the raw
// snapshot of the previous scan (to derive the change flag), the cooked
// matrix, and a copy of cooked from before the last cycle (to report
// transitions). All of them are allocated once in NewEngine, so Scan does
// not allocate.
//
// CRITICAL: Scan must be called from exactly one goroutine. The Debouncer
// underneath is not safe for concurrent use and the cooked matrix returned
// by Cooked is only stable between Scan calls.
type Engine struct {
	deb    Debouncer
	rows   int
	prev   matrix.Matrix
	cooked matrix.Matrix
	before matrix.Matrix
	scans  uint64
	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the logger for lifecycle events.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine initializes deb for rows rows and allocates the scan buffers.
//
// The Engine takes ownership of deb: Close tears it down.
func NewEngine(deb Debouncer, rows int, opts ...EngineOption) (*Engine, error) {
	if deb == nil {
		return nil, fmt.Errorf("engine: nil debouncer")
	}
	if err := deb.Init(rows); err != nil {
		return nil, fmt.Errorf("init debouncer: %w", err)
	}

	e := &Engine{
		deb:    deb,
		rows:   rows,
		prev:   matrix.New(rows),
		cooked: matrix.New(rows),
		before: matrix.New(rows),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.logger.Debug("engine initialized", "rows", rows, "strategy", strategyName(deb))
	return e, nil
}

// Scan runs one debounce cycle on raw and reports whether cooked changed.
//
// The change flag passed to the Debouncer is computed by comparing raw with
// the raw snapshot of the previous Scan. Rows of raw beyond the engine's
// row count are ignored; missing rows read as released.
func (e *Engine) Scan(raw matrix.Matrix) bool {
	changed := false
	for r := 0; r < e.rows; r++ {
		var row matrix.Row
		if r < len(raw) {
			row = raw[r]
		}
		if row != e.prev[r] {
			e.prev[r] = row
			changed = true
		}
	}

	e.before.CopyFrom(e.cooked)
	e.deb.Filter(e.prev, e.cooked, e.rows, changed)
	e.scans++

	return !e.before.Equal(e.cooked)
}

// Transitions appends the cooked transitions produced by the last Scan to
// dst in row-major order and returns the extended slice.
func (e *Engine) Transitions(dst []matrix.Transition) []matrix.Transition {
	return matrix.Diff(dst, e.before, e.cooked)
}

// Cooked returns the debounced matrix. Callers must treat it as read-only.
func (e *Engine) Cooked() matrix.Matrix {
	return e.cooked
}

// Raw returns the raw snapshot of the last Scan.
func (e *Engine) Raw() matrix.Matrix {
	return e.prev
}

// Rows returns the number of rows the engine was initialized with.
func (e *Engine) Rows() int {
	return e.rows
}

// Scans returns the number of Scan calls so far.
func (e *Engine) Scans() uint64 {
	return e.scans
}

// Debouncer returns the strategy the engine drives.
func (e *Engine) Debouncer() Debouncer {
	return e.deb
}

// Close tears down the Debouncer. The Engine must not be used afterwards.
func (e *Engine) Close() {
	e.deb.Teardown()
	e.logger.Debug("engine closed", "scans", e.scans)
}

// strategyName returns the strategy name for strategies built by New.
func strategyName(deb Debouncer) string {
	if n, ok := deb.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", deb)
}
