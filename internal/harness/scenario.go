package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/keybounce/internal/engine"
	"github.com/roach88/keybounce/internal/matrix"
)

// DefaultQuietTicks is the number of trailing scans that must observe
// nothing when a scenario does not set quiet_ticks.
const DefaultQuietTicks = 1000

// Key states accepted in scenario edges.
const (
	StateDown = "down"
	StateUp   = "up"
)

// Scenario is a timed sequence of raw key edges and the cooked transitions
// expected at each point.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names golden files.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rows is the matrix height. Zero means one more than the highest row
	// any event references.
	Rows int `yaml:"rows,omitempty"`

	// Strategies lists the strategies to run. Empty means all of them.
	Strategies []string `yaml:"strategies,omitempty"`

	// Debounce overrides the strategy timing. Zero fields keep defaults.
	Debounce Debounce `yaml:"debounce,omitempty"`

	// TimeJumps moves the clock straight from one event to the next
	// instead of scanning every tick in between.
	TimeJumps bool `yaml:"time_jumps,omitempty"`

	// TimeOffset is the clock reading at scenario time 0. Values close to
	// 2^32 exercise timer wraparound.
	TimeOffset uint32 `yaml:"time_offset,omitempty"`

	// GhostFilter keeps ambiguous rows away from the engine the way a
	// scanning driver would.
	GhostFilter bool `yaml:"ghost_filter,omitempty"`

	// QuietTicks is the number of scans after the last event that must
	// observe nothing. Zero means DefaultQuietTicks.
	QuietTicks int `yaml:"quiet_ticks,omitempty"`

	// Events are processed in order; times must not decrease.
	Events []Event `yaml:"events"`
}

// Debounce holds per-scenario timing overrides in ticks.
type Debounce struct {
	Down    uint8 `yaml:"down,omitempty"`
	Up      uint8 `yaml:"up,omitempty"`
	Quiesce uint8 `yaml:"quiesce,omitempty"`
}

// Options converts the overrides into engine options. Only nonzero fields
// produce an option, so the result can be layered over other options.
func (d Debounce) Options() []engine.Option {
	var opts []engine.Option
	if d.Down != 0 {
		opts = append(opts, engine.WithDown(d.Down))
	}
	if d.Up != 0 {
		opts = append(opts, engine.WithUp(d.Up))
	}
	if d.Quiesce != 0 {
		opts = append(opts, engine.WithQuiesce(d.Quiesce))
	}
	return opts
}

// Event is one point on the scenario timeline.
type Event struct {
	// Time is the scenario time of the event.
	Time uint32 `yaml:"time"`

	// Inputs are raw edges applied before the event's scan.
	Inputs []Edge `yaml:"inputs,omitempty"`

	// Outputs are the transitions the event's scan must produce, exactly.
	Outputs []Edge `yaml:"outputs,omitempty"`
}

// Edge is a key changing to a state.
type Edge struct {
	Row   int    `yaml:"row"`
	Col   int    `yaml:"col"`
	State string `yaml:"state"`
}

// Cell returns the edge's cell.
func (e Edge) Cell() matrix.Cell {
	return matrix.Cell{Row: e.Row, Col: e.Col}
}

// Pressed reports whether the edge goes down.
func (e Edge) Pressed() bool {
	return e.State == StateDown
}

// String renders the edge as "r0c1 down".
func (e Edge) String() string {
	return matrix.Transition{Cell: e.Cell(), Pressed: e.Pressed()}.String()
}

// StrategyList returns the strategies the scenario runs against.
func (s *Scenario) StrategyList() []string {
	if len(s.Strategies) == 0 {
		return engine.Strategies()
	}
	return slices.Clone(s.Strategies)
}

// quietTicks returns the effective trailing quiet period.
func (s *Scenario) quietTicks() int {
	if s.QuietTicks == 0 {
		return DefaultQuietTicks
	}
	return s.QuietTicks
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "output:" vs "outputs:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scenario.applyDefaults()
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by file
// name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob scenarios: %w", err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%s: duplicate scenario name %q (also in %s)",
				filepath.Base(path), s.Name, filepath.Base(prev))
		}
		seen[s.Name] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// applyDefaults derives the row count from the events when unset.
func (s *Scenario) applyDefaults() {
	if s.Rows != 0 {
		return
	}
	rows := 1
	for _, ev := range s.Events {
		for _, e := range append(slices.Clone(ev.Inputs), ev.Outputs...) {
			rows = max(rows, e.Row+1)
		}
	}
	s.Rows = rows
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Rows < 0 {
		return fmt.Errorf("rows must be positive, got %d", s.Rows)
	}

	if s.QuietTicks < 0 {
		return fmt.Errorf("quiet_ticks must be non-negative, got %d", s.QuietTicks)
	}

	known := engine.Strategies()
	for i, name := range s.Strategies {
		if !slices.Contains(known, name) {
			return fmt.Errorf("strategies[%d]: unknown strategy %q", i, name)
		}
	}

	if len(s.Events) == 0 {
		return fmt.Errorf("events list is required and must be non-empty")
	}

	for i, ev := range s.Events {
		if i > 0 && ev.Time < s.Events[i-1].Time {
			return fmt.Errorf("events[%d]: time %d is before previous event time %d",
				i, ev.Time, s.Events[i-1].Time)
		}
		for j, e := range ev.Inputs {
			if err := validateEdge(s, e); err != nil {
				return fmt.Errorf("events[%d].inputs[%d]: %w", i, j, err)
			}
		}
		for j, e := range ev.Outputs {
			if err := validateEdge(s, e); err != nil {
				return fmt.Errorf("events[%d].outputs[%d]: %w", i, j, err)
			}
		}
	}

	return nil
}

// validateEdge checks a single edge against the matrix shape.
func validateEdge(s *Scenario, e Edge) error {
	if e.State != StateDown && e.State != StateUp {
		return fmt.Errorf("state must be %q or %q, got %q", StateDown, StateUp, e.State)
	}
	if e.Row < 0 || e.Row >= s.Rows {
		return fmt.Errorf("row %d out of range [0, %d)", e.Row, s.Rows)
	}
	if e.Col < 0 || e.Col >= matrix.Cols {
		return fmt.Errorf("col %d out of range [0, %d)", e.Col, matrix.Cols)
	}
	return nil
}
