package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/keybounce/internal/harness"
	"github.com/roach88/keybounce/internal/store"
)

// openStore opens the run log database when path is set. A nil store
// means recording is off.
func openStore(path string, gen store.RunIDGenerator, logger *slog.Logger) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	var opts []store.Option
	if gen != nil {
		opts = append(opts, store.WithRunIDGenerator(gen))
	}
	logger.Debug("opening database", "path", path)
	st, err := store.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	logger.Debug("database ready", "path", path)
	return st, nil
}

// closeStore closes st if recording is on.
func closeStore(st *store.Store, logger *slog.Logger) {
	if st == nil {
		return
	}
	if err := st.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	}
}

// recordReport writes one run per strategy result. It returns the run IDs
// in result order.
func recordReport(ctx context.Context, st *store.Store, report *harness.Report, logger *slog.Logger) ([]string, error) {
	ids := make([]string, 0, len(report.Results))
	for _, res := range report.Results {
		run := runFromResult(report.Scenario, res)
		seq, err := st.WriteRun(ctx, run)
		if err != nil {
			return ids, fmt.Errorf("record %s/%s: %w", report.Scenario, res.Strategy, err)
		}
		logger.Debug("run recorded", "id", run.ID, "seq", seq, "scenario", report.Scenario, "strategy", res.Strategy)
		ids = append(ids, run.ID)
	}
	return ids, nil
}

func runFromResult(scenario string, res *harness.Result) *store.Run {
	run := &store.Run{
		Scenario:    scenario,
		Strategy:    res.Strategy,
		Pass:        res.Pass,
		Cycles:      res.Cycles,
		Errors:      res.Errors,
		Transitions: make([]store.Transition, len(res.Trace)),
	}
	for i, obs := range res.Trace {
		run.Transitions[i] = store.Transition{
			Time:    obs.Time,
			Row:     obs.Row,
			Col:     obs.Col,
			Pressed: obs.Pressed,
		}
	}
	return run
}
