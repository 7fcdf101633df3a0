package harness

import (
	"fmt"

	"github.com/roach88/keybounce/internal/matrix"
)

// Observation is one cooked transition seen by the dispatcher.
type Observation struct {
	// Time is the scenario time (ticks since time_offset).
	Time    uint32 `json:"time"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Pressed bool   `json:"pressed"`
}

func observationOf(now uint32, tr matrix.Transition) Observation {
	return Observation{Time: now, Row: tr.Cell.Row, Col: tr.Cell.Col, Pressed: tr.Pressed}
}

// Cell returns the observed cell.
func (o Observation) Cell() matrix.Cell {
	return matrix.Cell{Row: o.Row, Col: o.Col}
}

// String renders the observation as "t=7 r0c1 down".
func (o Observation) String() string {
	return fmt.Sprintf("t=%d %s", o.Time, matrix.Transition{Cell: o.Cell(), Pressed: o.Pressed})
}

// Result is the outcome of running a scenario against one strategy.
type Result struct {
	// Strategy is the name of the strategy that ran.
	Strategy string `json:"strategy"`

	// Pass is true if every event matched and the quiet period was quiet.
	Pass bool `json:"pass"`

	// Trace contains every observed transition in order, including the
	// unexpected ones.
	Trace []Observation `json:"trace"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Cycles is the number of scan cycles run.
	Cycles uint64 `json:"cycles"`
}

// NewResult creates a new passing result.
func NewResult(strategy string) *Result {
	return &Result{
		Strategy: strategy,
		Pass:     true,
		Trace:    []Observation{},
		Errors:   []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Report collects the results of one scenario across strategies.
type Report struct {
	Scenario string    `json:"scenario"`
	Pass     bool      `json:"pass"`
	Results  []*Result `json:"results"`
}

// Failed returns the results that did not pass.
func (r *Report) Failed() []*Result {
	var failed []*Result
	for _, res := range r.Results {
		if !res.Pass {
			failed = append(failed, res)
		}
	}
	return failed
}
