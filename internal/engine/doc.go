// Package engine implements the keybounce debounce core.
//
// The engine turns a raw, possibly noisy snapshot of the switch matrix into a
// cooked snapshot that the rest of the input stack treats as ground truth.
// It is a pure transform invoked synchronously once per scan cycle; it never
// scans, sleeps, or starts goroutines.
//
// ARCHITECTURE:
//
// Strategies:
// Four interchangeable strategies implement Debouncer:
//   - Symmetric: one counter per key, one window, eager rearm on every bounce
//   - Asymmetric: separate press/release windows plus per-row active counts
//     so idle rows are skipped
//   - Sparse: only keys mid-debounce are visited, through an intrusive list
//     threaded through one flat slice; flutter defers the deadline
//   - Quiescing: Idle/Counting/Settling machine with a blind settle period
//     after every commit
//
// Scan Cycle:
//  1. The scan loop reads the raw matrix
//  2. Filter(raw, cooked, rows, changed) runs one cycle
//  3. Cooked bits change only when a key's window elapses
//  4. Downstream reads cooked until the next cycle
//
// Engine wraps a Debouncer with the buffers a scan loop needs and derives
// the change flag itself.
//
// CRITICAL PATTERNS:
//
// Injected Time:
// Every strategy reads time through the Clock interface and converts it into
// a per-cycle tick delta (1..255). The first cycle after Init counts as one
// tick. Wraparound of the clock is handled with modular subtraction.
//
// Fixed Allocation:
// All per-key and per-row state is allocated in Init and released in
// Teardown. Filter does not allocate.
//
// Single Caller:
// Strategies hold no locks. Filter must be called from one goroutine at a
// time; the cooked matrix is read-only for everybody else between calls.
package engine
