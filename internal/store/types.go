package store

import "errors"

// ErrRunNotFound is returned by ReadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one scenario executed against one strategy.
type Run struct {
	// ID identifies the run. Assigned by the store's RunIDGenerator when
	// empty at write time.
	ID string `json:"id"`

	// Seq is the logical write order, assigned by WriteRun.
	Seq int64 `json:"seq"`

	Scenario string   `json:"scenario"`
	Strategy string   `json:"strategy"`
	Pass     bool     `json:"pass"`
	Cycles   uint64   `json:"cycles"`
	Errors   []string `json:"errors"`

	// Transitions is populated by ReadRun, not by ListRuns.
	Transitions []Transition `json:"transitions,omitempty"`
}

// Transition is one recorded cooked transition.
type Transition struct {
	// Seq orders transitions within a run, starting at 1.
	Seq     int64  `json:"seq"`
	Time    uint32 `json:"time"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Pressed bool   `json:"pressed"`
}
