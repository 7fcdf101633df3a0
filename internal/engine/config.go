package engine

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/keybounce/internal/matrix"
)

const (
	// DefaultWindow is the press window, in ticks, when none is configured.
	DefaultWindow = 5

	// DefaultQuiesce is the post-commit settle period of the quiescing
	// strategy, in ticks.
	DefaultQuiesce = 30

	// MaxSparseCells is the largest matrix the sparse strategy accepts: its
	// list index is a uint16 and the cell count itself is the "not linked"
	// sentinel.
	MaxSparseCells = 1<<16 - 1
)

// Config holds the resolved timing parameters of a strategy.
// All windows are in clock ticks (milliseconds for SystemClock) or scan
// frames when Frames is set.
type Config struct {
	// Down is the window armed when a key goes down.
	Down uint8 `json:"down"`

	// Up is the window armed when a key goes up. The symmetric strategy
	// always uses Down.
	Up uint8 `json:"up"`

	// Quiesce is the settle period after a commit (quiescing strategy only).
	Quiesce uint8 `json:"quiesce,omitempty"`

	// Frames counts every Filter call as exactly one tick.
	Frames bool `json:"frames,omitempty"`

	logger *slog.Logger
}

// Option configures a strategy at construction.
type Option func(*Config)

// WithWindow sets both the press and release windows.
func WithWindow(ticks uint8) Option {
	return func(c *Config) {
		c.Down = ticks
		c.Up = ticks
	}
}

// WithDown sets the press window. Zero keeps the default.
func WithDown(ticks uint8) Option {
	return func(c *Config) {
		c.Down = ticks
	}
}

// WithUp sets the release window. Zero keeps the strategy default.
func WithUp(ticks uint8) Option {
	return func(c *Config) {
		c.Up = ticks
	}
}

// WithQuiesce sets the settle period of the quiescing strategy.
func WithQuiesce(ticks uint8) Option {
	return func(c *Config) {
		c.Quiesce = ticks
	}
}

// WithFrameTiming measures windows in scan frames instead of clock ticks.
func WithFrameTiming() Option {
	return func(c *Config) {
		c.Frames = true
	}
}

// WithLogger routes commit diagnostics to logger at Debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

// resolveConfig applies options and fills in the strategy defaults.
//
// Default release windows: the sparse strategy waits twice the press window
// (releases bounce longer on most switches), the others use the press window.
func resolveConfig(strategy string, opts []Option) Config {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Down == 0 {
		cfg.Down = DefaultWindow
	}
	if cfg.Up == 0 {
		cfg.Up = cfg.Down
		if strategy == StrategySparse {
			cfg.Up = saturatingAdd(cfg.Down, cfg.Down)
		}
	}
	if strategy == StrategySymmetric {
		cfg.Up = cfg.Down
	}
	if strategy == StrategyQuiescing {
		if cfg.Quiesce == 0 {
			cfg.Quiesce = DefaultQuiesce
		}
	} else {
		cfg.Quiesce = 0
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return cfg
}

// window returns the window armed for a key whose raw state is pressed.
func (c Config) window(pressed bool) uint8 {
	if pressed {
		return c.Down
	}
	return c.Up
}

// saturatingAdd adds two counters without wrapping past 255.
func saturatingAdd(a, b uint8) uint8 {
	if s := uint16(a) + uint16(b); s <= maxElapsed {
		return uint8(s)
	}
	return maxElapsed
}

// base carries the state every strategy shares: configuration, the elapsed
// timer, and the previous raw row of each row so a strategy can tell which
// keys flipped on this cycle.
type base struct {
	name  string
	cfg   Config
	timer elapsedTimer
	last  matrix.Matrix
	rows  int
	debug bool
}

func newBase(name string, clock Clock, opts []Option) base {
	cfg := resolveConfig(name, opts)
	if clock == nil && !cfg.Frames {
		clock = NewSystemClock()
	}
	return base{
		name:  name,
		cfg:   cfg,
		timer: elapsedTimer{clock: clock, frames: cfg.Frames},
		debug: cfg.logger.Enabled(context.Background(), slog.LevelDebug),
	}
}

// init validates the row count and allocates the previous-raw buffer.
func (b *base) init(rows int) error {
	if rows <= 0 {
		return NewInvalidRowsError(b.name, rows)
	}
	b.rows = rows
	b.last = matrix.New(rows)
	b.timer.reset()
	return nil
}

func (b *base) teardown() {
	b.rows = 0
	b.last = nil
	b.timer.reset()
}

// span clamps the caller's row count to what every buffer can serve, so a
// mismatched or uninitialized call degrades to a partial or empty cycle.
func (b *base) span(raw, cooked matrix.Matrix, rows int) int {
	return max(0, min(rows, b.rows, len(raw), len(cooked)))
}

// flips returns the columns of row r that changed since the previous
// changed cycle and remembers the new raw row.
func (b *base) flips(r int, raw matrix.Row) matrix.Row {
	f := raw ^ b.last[r]
	b.last[r] = raw
	return f
}

func (b *base) committed(r, c int, pressed bool) {
	if b.debug {
		b.cfg.logger.Debug("debounce commit",
			"strategy", b.name,
			"row", r,
			"col", c,
			"pressed", pressed,
		)
	}
}

// Config returns the resolved timing configuration.
func (b *base) Config() Config {
	cfg := b.cfg
	cfg.logger = nil
	return cfg
}

// Name returns the strategy name.
func (b *base) Name() string {
	return b.name
}

// Active always reports true: none of the strategies has a fully idle
// fast path at the top level.
func (b *base) Active() bool {
	return true
}
