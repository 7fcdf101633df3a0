// Package store provides SQLite-backed storage for harness run logs.
//
// Each scenario/strategy run is recorded as one row in runs, and every
// transition the dispatcher observed during that run as a row in
// transitions. Runs are append-only.
//
// # Critical Patterns
//
// Logical ordering:
//   - runs.seq is assigned inside the write transaction as MAX(seq)+1
//   - transitions are numbered 1..n within their run
//   - All ordering uses seq, NEVER timestamps
//
// Deterministic query results:
//   - Run listings are ORDER BY seq ASC, id COLLATE BINARY ASC
//   - Transitions are ORDER BY seq ASC
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Run IDs come from a RunIDGenerator: UUIDv7Generator by default, a fixed
// generator in tests.
package store
