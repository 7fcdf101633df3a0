// Package harness runs timed key-event scenarios against the debounce
// strategies.
//
// The harness plays the role of the scanning driver and the key-event
// dispatcher around the engine: it feeds raw edges at chosen ticks, scans
// once per tick, and checks exactly which cooked transitions reach the
// dispatcher and when. A strategy is treated as a deterministic function
// from an event timeline to a commit timeline.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: fast_bounce_on_press
//	description: "A bounce during the press window restarts it"
//	rows: 1
//	strategies: [symmetric, asymmetric]   # default: all strategies
//	debounce: {down: 5, up: 5}            # default: strategy defaults
//	time_jumps: false
//	time_offset: 0
//	ghost_filter: false
//	quiet_ticks: 1000
//	events:
//	  - time: 0
//	    inputs: [{row: 0, col: 1, state: down}]
//	  - time: 1
//	    inputs: [{row: 0, col: 1, state: up}]
//	  - time: 2
//	    inputs: [{row: 0, col: 1, state: down}]
//	  - time: 7
//	    outputs: [{row: 0, col: 1, state: down}]
//
// # Run Semantics
//
// Each strategy runs on a fresh engine with a manual clock that starts at
// time_offset + events[0].time.
//
//   - Between events the clock advances one tick at a time with one scan
//     per tick; any transition reaching the dispatcher there is an error.
//     With time_jumps the clock jumps straight to the next event instead.
//   - At each event the inputs are applied to the raw matrix and one scan
//     runs. The transitions observed by that scan must equal the event's
//     outputs exactly (order does not matter).
//   - After the last event, quiet_ticks more scans must observe nothing.
//
// Several events may share a time; they are handled in file order without
// advancing the clock.
//
// # Driver and Dispatch Boundaries
//
// The engine is fed the snapshot a scanning driver would produce. With
// ghost_filter enabled, a row whose switch states are electrically
// ambiguous (matrix.HasGhostInRow) keeps the value it last had while
// unambiguous, so a ghost never reaches the engine. The debounce core
// itself never resolves ghosts.
//
// Transitions are observed the way a key-event dispatcher sees them: each
// cooked row is compared with the last row reported for it.
//
// # Golden Traces
//
// A run's observed transitions render as plain text (TraceSnapshot.Render)
// and are compared with testdata/golden/<scenario>.<strategy>.golden. To
// regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
