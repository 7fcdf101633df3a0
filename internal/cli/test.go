package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/keybounce/internal/harness"
	"github.com/roach88/keybounce/internal/store"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update     bool     // regenerate golden files
	Filter     string   // scenario filter (glob pattern)
	Strategies []string // override every scenario's strategy list
	Profile    string
	Database   string

	// RunIDGenerator allows overriding the run ID generator (for testing).
	RunIDGenerator store.RunIDGenerator
}

// StrategyOutcome is the result of one scenario under one strategy.
type StrategyOutcome struct {
	Strategy string   `json:"strategy"`
	Pass     bool     `json:"pass"`
	Golden   string   `json:"golden,omitempty"`
	Cycles   uint64   `json:"cycles"`
	Errors   []string `json:"errors,omitempty"`
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name       string            `json:"name"`
	Pass       bool              `json:"pass"`
	Strategies []StrategyOutcome `json:"strategies,omitempty"`
	Errors     []string          `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
	Runs      int              `json:"runs"`
	Cycles    uint64           `json:"cycles"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	return newTestCommand(&TestOptions{RootOptions: rootOpts})
}

func newTestCommand(opts *TestOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run every scenario in a directory",
		Long: `Run all scenario files in a directory against their strategies.

A strategy run passes when every event produced exactly its expected
transitions, the quiet period stayed quiet, and, when
<scenarios-dir>/golden/<scenario>.<strategy>.golden exists, the observed
trace matches it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  keybounce test ./scenarios
  keybounce test ./scenarios --filter "one_key_*"
  keybounce test ./scenarios --update
  keybounce test ./scenarios --db ./runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringArrayVar(&opts.Strategies, "strategy", nil, "strategy to run (repeatable; default: scenario list)")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "keyboard profile (.cue or .toml)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs in this SQLite database")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, formatter.GetErrWriter())

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	if len(scenarioFiles) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(formatter, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	p, err := loadProfile(opts.Profile)
	if err != nil {
		return err
	}

	st, err := openStore(opts.Database, opts.RunIDGenerator, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeStore(st, logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	t := &tester{
		opts:      opts,
		formatter: formatter,
		goldenDir: filepath.Join(scenariosDir, "golden"),
		store:     st,
		logger:    logger,
		ctx:       ctx,
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}

	for _, scenarioFile := range scenarioFiles {
		scenario, err := harness.LoadScenario(scenarioFile)
		if err != nil {
			result.add(t.loadFailure(filepath.Base(scenarioFile), "failed to load scenario", err))
			continue
		}

		runOpts, err := harnessOptions(opts.Strategies, p, scenario)
		if err != nil {
			return err
		}
		runOpts.Logger = logger

		result.add(t.run(scenario, runOpts))
	}

	if opts.Format == "json" {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter, result)
}

func (r *TestResult) add(sr ScenarioResult) {
	r.Scenarios = append(r.Scenarios, sr)
	if sr.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
	r.Runs += len(sr.Strategies)
	for _, so := range sr.Strategies {
		r.Cycles += so.Cycles
	}
}

// tester runs scenarios for the test command.
type tester struct {
	opts      *TestOptions
	formatter *OutputFormatter
	goldenDir string
	store     *store.Store
	logger    *slog.Logger
	ctx       context.Context
}

// findScenarioFiles finds all YAML scenario files directly in dir, sorted.
// Subdirectories (golden/ among them) are not descended into.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		if filter != "" {
			name := strings.TrimSuffix(entry.Name(), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}

		files = append(files, filepath.Join(dir, entry.Name()))
	}

	return files, nil
}

// run executes one scenario, checks golden traces, and records the runs.
func (t *tester) run(scenario *harness.Scenario, runOpts harness.Options) ScenarioResult {
	report, err := harness.RunWithOptions(scenario, runOpts)
	if err != nil {
		return t.loadFailure(scenario.Name, "execution failed", err)
	}

	sr := ScenarioResult{Name: scenario.Name, Pass: true}
	for _, res := range report.Results {
		outcome := StrategyOutcome{
			Strategy: res.Strategy,
			Pass:     res.Pass,
			Cycles:   res.Cycles,
			Errors:   res.Errors,
		}

		status, err := harness.CompareGolden(t.goldenDir, scenario.Name, res, t.opts.Update)
		switch {
		case err != nil:
			outcome.Pass = false
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("golden: %v", err))
		case status == harness.GoldenMismatch:
			outcome.Pass = false
			outcome.Errors = append(outcome.Errors, "trace does not match golden file (run with --update to regenerate)")
		}
		if status != harness.GoldenMissing {
			outcome.Golden = string(status)
		}

		if !outcome.Pass {
			sr.Pass = false
		}
		sr.Strategies = append(sr.Strategies, outcome)
	}

	if t.store != nil {
		if _, err := recordReport(t.ctx, t.store, report, t.logger); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, err.Error())
		}
	}

	if t.opts.Format != "json" {
		t.print(sr)
	}
	return sr
}

// loadFailure reports a scenario that could not run at all.
func (t *tester) loadFailure(name, what string, err error) ScenarioResult {
	if t.opts.Format != "json" {
		fmt.Fprintf(t.formatter.Writer, "✗ %s\n", name)
		fmt.Fprintf(t.formatter.Writer, "  %s: %v\n", what, err)
	}
	return ScenarioResult{
		Name:   name,
		Pass:   false,
		Errors: []string{fmt.Sprintf("%s: %v", what, err)},
	}
}

func (t *tester) print(sr ScenarioResult) {
	w := t.formatter.Writer
	mark := "✓"
	if !sr.Pass {
		mark = "✗"
	}

	names := make([]string, len(sr.Strategies))
	for i, so := range sr.Strategies {
		names[i] = so.Strategy
		if !so.Pass {
			names[i] += " (failed)"
		} else if so.Golden == string(harness.GoldenUpdated) {
			names[i] += " (golden updated)"
		}
	}
	fmt.Fprintf(w, "%s %s [%s]\n", mark, sr.Name, strings.Join(names, ", "))

	for _, so := range sr.Strategies {
		for _, e := range so.Errors {
			fmt.Fprintf(w, "  %s: %s\n", so.Strategy, e)
		}
	}
	for _, e := range sr.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// outputTestText prints the summary line.
func outputTestText(formatter *OutputFormatter, result TestResult) error {
	p := newPrinter()
	fmt.Fprintln(formatter.Writer)
	p.Fprintf(formatter.Writer, "%d scenarios, %d passed, %d failed (%d strategy runs, %d scan cycles)\n",
		result.Total, result.Passed, result.Failed, result.Runs, result.Cycles)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := formatter.JSON(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}
