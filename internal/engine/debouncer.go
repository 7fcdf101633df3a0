package engine

import (
	"slices"

	"github.com/roach88/keybounce/internal/matrix"
)

// Debouncer is the contract every strategy implements.
//
// Lifecycle:
//   - Init(rows) allocates per-key and per-row state and resets the clock
//     baseline. Call it once before filtering, or again after Teardown.
//   - Filter(raw, cooked, rows, changed) runs one scan cycle and commits
//     settled keys into cooked in place. changed reports whether any raw
//     bit differs from the previous call; when false, strategies may skip
//     work for keys that are not mid-debounce.
//   - Teardown releases the state allocated by Init.
//
// Filter never fails. Row counts that do not match Init, or a call before
// Init, are clamped to the rows actually allocated.
//
// Thread-safety: none. A Debouncer must be driven from one goroutine.
type Debouncer interface {
	Init(rows int) error
	Filter(raw, cooked matrix.Matrix, rows int, changed bool)
	Teardown()
	Active() bool
}

// Strategy names accepted by New.
const (
	StrategySymmetric  = "symmetric"
	StrategyAsymmetric = "asymmetric"
	StrategySparse     = "sparse"
	StrategyQuiescing  = "quiescing"
)

// strategies lists the registered strategies in order of sophistication.
var strategies = []string{
	StrategySymmetric,
	StrategyAsymmetric,
	StrategySparse,
	StrategyQuiescing,
}

// Strategies returns the names accepted by New.
func Strategies() []string {
	return slices.Clone(strategies)
}

// New constructs the named strategy.
//
// A nil clock selects SystemClock unless WithFrameTiming is given.
// The returned Debouncer still needs Init before the first Filter.
func New(name string, clock Clock, opts ...Option) (Debouncer, error) {
	switch name {
	case StrategySymmetric:
		return NewSymmetric(clock, opts...), nil
	case StrategyAsymmetric:
		return NewAsymmetric(clock, opts...), nil
	case StrategySparse:
		return NewSparse(clock, opts...), nil
	case StrategyQuiescing:
		return NewQuiescing(clock, opts...), nil
	default:
		return nil, NewUnknownStrategyError(name)
	}
}

// Defaults reports the configuration the named strategy resolves to with
// the given options applied.
func Defaults(name string, opts ...Option) (Config, error) {
	if !slices.Contains(strategies, name) {
		return Config{}, NewUnknownStrategyError(name)
	}
	cfg := resolveConfig(name, opts)
	cfg.logger = nil
	return cfg, nil
}
