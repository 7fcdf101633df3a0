package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/keybounce/internal/engine"
	"github.com/roach88/keybounce/internal/harness"
	"github.com/roach88/keybounce/internal/profile"
	"github.com/roach88/keybounce/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Strategies []string
	Profile    string
	Database   string

	// RunIDGenerator allows overriding the run ID generator (for testing).
	// If nil, the store defaults to UUIDv7Generator.
	RunIDGenerator store.RunIDGenerator
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	*harness.Report
	RunIDs []string `json:"run_ids,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario against the debounce strategies",
		Long: `Run a scenario file against each of its strategies and print the
observed transitions.

A profile supplies the strategy and windows; the scenario's own debounce
block still takes precedence. --strategy overrides both the profile and the
scenario's strategy list. With --db every strategy run is recorded.

Examples:
  keybounce run ./scenarios/fast_bounce_on_press.yaml
  keybounce run ./scenarios/one_key_short.yaml --strategy sparse --strategy quiescing
  keybounce run ./scenarios/one_key_short.yaml --profile ./planck.cue --db ./runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Strategies, "strategy", nil, "strategy to run (repeatable; default: scenario list)")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "keyboard profile (.cue or .toml)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs in this SQLite database")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, formatter.GetErrWriter())

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	p, err := loadProfile(opts.Profile)
	if err != nil {
		return err
	}
	runOpts, err := harnessOptions(opts.Strategies, p, scenario)
	if err != nil {
		return err
	}
	runOpts.Logger = logger

	st, err := openStore(opts.Database, opts.RunIDGenerator, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeStore(st, logger)

	report, err := harness.RunWithOptions(scenario, runOpts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	result := RunResult{Report: report}
	if st != nil {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		result.RunIDs, err = recordReport(ctx, st, report, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record runs", err)
		}
	}

	var failure *ExitError
	if !report.Pass {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d strategy run(s) failed", len(report.Failed())))
	}

	if opts.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if failure != nil {
			response.Status = "error"
			response.Error = &CLIError{Code: ErrCodeTestFailed, Message: failure.Message}
		}
		if err := formatter.JSON(response); err != nil {
			return err
		}
	} else {
		printReport(formatter, report)
	}

	if failure != nil {
		return failure
	}
	return nil
}

// loadProfile loads --profile when set.
func loadProfile(path string) (*profile.Profile, error) {
	if path == "" {
		return nil, nil
	}
	p, err := profile.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load profile", err)
	}
	return p, nil
}

// harnessOptions resolves --strategy and the profile into harness options
// for one scenario.
func harnessOptions(strategies []string, p *profile.Profile, scenario *harness.Scenario) (harness.Options, error) {
	for _, name := range strategies {
		if _, err := engine.Defaults(name); err != nil {
			return harness.Options{}, WrapExitError(ExitCommandError, "invalid --strategy", err)
		}
	}

	runOpts := harness.Options{Strategies: strategies}
	if p == nil {
		return runOpts, nil
	}

	if scenario.Rows > p.Rows {
		return harness.Options{}, NewExitError(ExitCommandError,
			fmt.Sprintf("scenario %s needs %d rows, profile %s has %d", scenario.Name, scenario.Rows, p.Name, p.Rows))
	}
	runOpts.Engine = p.Options()
	if len(runOpts.Strategies) == 0 {
		runOpts.Strategies = []string{p.Strategy}
	}
	return runOpts, nil
}

// printReport writes the per-strategy outcome of one scenario. Traces are
// shown for failed runs, and for every run under --verbose.
func printReport(formatter *OutputFormatter, report *harness.Report) {
	w := formatter.Writer
	p := newPrinter()
	for _, res := range report.Results {
		mark := "✓"
		if !res.Pass {
			mark = "✗"
		}
		p.Fprintf(w, "%s %s/%s (%d cycles, %d transitions)\n",
			mark, report.Scenario, res.Strategy, res.Cycles, len(res.Trace))

		if formatter.Verbose || !res.Pass {
			for _, obs := range res.Trace {
				fmt.Fprintf(w, "    %s\n", obs)
			}
		}
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}
