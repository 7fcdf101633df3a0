package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/keybounce/internal/engine"
	"github.com/roach88/keybounce/internal/matrix"
	"github.com/roach88/keybounce/internal/testutil"
)

// Options adjusts how a scenario runs.
type Options struct {
	// Strategies replaces the scenario's strategy list when non-empty.
	Strategies []string

	// Engine options are applied before the scenario's own debounce
	// overrides, so a scenario that pins a window keeps it.
	Engine []engine.Option

	// Logger receives run and failure logs. Defaults to discarding.
	Logger *slog.Logger
}

// Harness drives one strategy through one scenario.
//
// It owns everything a real keyboard would split between the scanning
// driver and the key-event dispatcher: the switch states, the snapshot the
// driver hands the engine, the manual clock, and the last row state
// reported to the dispatcher.
type Harness struct {
	scenario *Scenario
	clock    *testutil.ManualClock
	engine   *engine.Engine
	keys     matrix.Matrix
	scanned  matrix.Matrix
	reported matrix.Matrix
	buf      []matrix.Transition
	result   *Result
	logger   *slog.Logger
}

// Run executes a scenario against each of its strategies.
func Run(scenario *Scenario) (*Report, error) {
	return RunWithOptions(scenario, Options{})
}

// RunWithOptions executes a scenario with overrides.
//
// Each strategy runs on a fresh engine and a fresh clock, so results are
// independent and reproducible.
func RunWithOptions(scenario *Scenario, opts Options) (*Report, error) {
	strategies := scenario.StrategyList()
	if len(opts.Strategies) > 0 {
		strategies = opts.Strategies
	}

	report := &Report{Scenario: scenario.Name, Pass: true}
	for _, name := range strategies {
		result, err := RunStrategy(scenario, name, opts)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", name, err)
		}
		report.Results = append(report.Results, result)
		if !result.Pass {
			report.Pass = false
		}
	}
	return report, nil
}

// RunStrategy executes a scenario against a single strategy.
//
// Execution flow:
// 1. Create the strategy with a manual clock at the first event's time
// 2. Between events, scan every tick (or jump with time_jumps)
// 3. At each event, apply inputs, scan once, compare outputs
// 4. Scan quiet_ticks more times and require silence
func RunStrategy(scenario *Scenario, name string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	}

	start := scenario.Events[0].Time
	clock := testutil.NewManualClock(scenario.TimeOffset + start)

	engineOpts := append([]engine.Option{engine.WithLogger(logger)}, opts.Engine...)
	engineOpts = append(engineOpts, scenario.Debounce.Options()...)

	deb, err := engine.New(name, clock, engineOpts...)
	if err != nil {
		return nil, err
	}
	eng, err := engine.NewEngine(deb, scenario.Rows, engine.WithEngineLogger(logger))
	if err != nil {
		return nil, err
	}
	defer eng.Close()

	h := &Harness{
		scenario: scenario,
		clock:    clock,
		engine:   eng,
		keys:     matrix.New(scenario.Rows),
		scanned:  matrix.New(scenario.Rows),
		reported: matrix.New(scenario.Rows),
		result:   NewResult(name),
		logger:   logger.With("scenario", scenario.Name, "strategy", name),
	}

	h.logger.Info("scenario started", "rows", scenario.Rows, "events", len(scenario.Events))
	h.run(start)
	h.result.Cycles = eng.Scans()
	h.logger.Info("scenario finished",
		"pass", h.result.Pass,
		"cycles", h.result.Cycles,
		"transitions", len(h.result.Trace),
	)

	return h.result, nil
}

// run plays the timeline starting at scenario time start.
func (h *Harness) run(start uint32) {
	now := start
	for _, ev := range h.scenario.Events {
		if !h.scenario.TimeJumps {
			for now+1 < ev.Time {
				now++
				h.check(assertNothing(AssertUnexpectedOutput, now, h.scan(now), h.result.Trace))
			}
		}
		now = ev.Time

		for _, in := range ev.Inputs {
			h.keys.Set(in.Cell(), in.Pressed())
		}
		h.check(assertOutputs(now, h.scan(now), ev.Outputs, h.result.Trace))
	}

	for i := 0; i < h.scenario.quietTicks(); i++ {
		now++
		h.check(assertNothing(AssertQuietPeriod, now, h.scan(now), h.result.Trace))
	}
}

// scan runs one cycle at scenario time now and returns what the dispatcher
// observed.
func (h *Harness) scan(now uint32) []Observation {
	h.clock.Set(h.scenario.TimeOffset + now)
	h.readMatrix()
	h.engine.Scan(h.scanned)

	cooked := h.engine.Cooked()
	h.buf = h.buf[:0]
	for r := range cooked {
		if cooked[r] == h.reported[r] {
			continue
		}
		h.buf = matrix.DiffRow(h.buf, r, h.reported[r], cooked[r])
		h.reported[r] = cooked[r]
	}

	if len(h.buf) == 0 {
		return nil
	}
	observed := make([]Observation, len(h.buf))
	for i, tr := range h.buf {
		observed[i] = observationOf(now, tr)
	}
	h.result.Trace = append(h.result.Trace, observed...)
	return observed
}

// readMatrix plays the scanning driver. With ghost_filter set, a row that
// is ambiguous in the switch states keeps the value it last had while
// unambiguous, so the engine never sees the ghost.
func (h *Harness) readMatrix() {
	for r := range h.keys {
		if h.scenario.GhostFilter && matrix.HasGhostInRow(h.keys, r) {
			continue
		}
		h.scanned[r] = h.keys[r]
	}
}

// check records a failed assertion.
func (h *Harness) check(err error) {
	if err == nil {
		return
	}
	ae, ok := err.(*AssertionError)
	if ok {
		h.logger.Warn("assertion failed",
			"type", ae.Type,
			"time", ae.Time,
			"expected", ae.Expected,
			"actual", ae.Actual,
		)
	}
	h.result.AddError(err.Error())
}
