package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// WriteRun records a run and its transitions in one transaction and
// returns the run's sequence number.
//
// An empty run.ID is filled from the store's RunIDGenerator. run.Seq is
// set to the assigned sequence number; the caller's value is ignored.
// Transition sequence numbers are renumbered 1..n in slice order.
func (s *Store) WriteRun(ctx context.Context, run *Run) (int64, error) {
	if run.ID == "" {
		run.ID = s.runID.Generate()
	}

	errs := run.Errors
	if errs == nil {
		errs = []string{}
	}
	errorsJSON, err := json.Marshal(errs)
	if err != nil {
		return 0, fmt.Errorf("write run: marshal errors: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	seq, err := nextRunSeq(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, scenario, strategy, pass, cycles, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		seq,
		run.Scenario,
		run.Strategy,
		boolToInt(run.Pass),
		int64(run.Cycles),
		string(errorsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("write run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transitions (run_id, seq, time, row, col, pressed)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("write run %s: prepare transitions: %w", run.ID, err)
	}
	defer stmt.Close()

	for i := range run.Transitions {
		tr := &run.Transitions[i]
		tr.Seq = int64(i + 1)
		if _, err := stmt.ExecContext(ctx, run.ID, tr.Seq, tr.Time, tr.Row, tr.Col, boolToInt(tr.Pressed)); err != nil {
			return 0, fmt.Errorf("write run %s: transition %d: %w", run.ID, tr.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write run %s: commit: %w", run.ID, err)
	}

	run.Seq = seq
	return seq, nil
}

// nextRunSeq returns the next logical run sequence number.
func nextRunSeq(ctx context.Context, tx *sql.Tx) (int64, error) {
	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
