package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ReadRun retrieves a run and its transitions by ID.
// Returns ErrRunNotFound if no run has that ID.
func (s *Store) ReadRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, scenario, strategy, pass, cycles, errors
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", id, err)
	}

	run.Transitions, err = s.readTransitions(ctx, id)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns every run of a scenario, or of all scenarios when
// scenario is empty, without their transitions.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListRuns(ctx context.Context, scenario string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, scenario, strategy, pass, cycles, errors
		FROM runs
		WHERE ? = '' OR scenario = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, scenario, scenario)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// readTransitions returns a run's transitions in recorded order.
func (s *Store) readTransitions(ctx context.Context, runID string) ([]Transition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, time, row, col, pressed
		FROM transitions
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	transitions := []Transition{}
	for rows.Next() {
		var (
			tr      Transition
			pressed int
		)
		if err := rows.Scan(&tr.Seq, &tr.Time, &tr.Row, &tr.Col, &pressed); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		tr.Pressed = pressed != 0
		transitions = append(transitions, tr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}

	return transitions, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run        Run
		pass       int
		cycles     int64
		errorsJSON string
	)
	if err := sc.Scan(&run.ID, &run.Seq, &run.Scenario, &run.Strategy, &pass, &cycles, &errorsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Pass = pass != 0
	run.Cycles = uint64(cycles)

	if err := json.Unmarshal([]byte(errorsJSON), &run.Errors); err != nil {
		return Run{}, fmt.Errorf("unmarshal errors of run %s: %w", run.ID, err)
	}
	return run, nil
}
