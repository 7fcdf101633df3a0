package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/keybounce/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Scenario string // optional - filter listing to one scenario
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs",
		Long: `Inspect runs recorded with --db by the run and test commands.

Without --run, lists recorded runs in write order. With --run, shows one
run with every transition the dispatcher observed.

Examples:
  keybounce trace --db ./runs.db
  keybounce trace --db ./runs.db --scenario fast_bounce_on_press
  keybounce trace --db ./runs.db --run 0190b6b2-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "only list runs of this scenario")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, formatter.GetErrWriter())

	// store.Open would create an empty database.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := openStore(opts.Database, nil, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeStore(st, logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.RunID != "" {
		return showRun(ctx, formatter, st, opts.RunID)
	}
	return listRuns(ctx, formatter, st, opts.Scenario)
}

func showRun(ctx context.Context, formatter *OutputFormatter, st *store.Store, id string) error {
	run, err := st.ReadRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run not found: %s", id), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", id))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(run)
	}

	w := formatter.Writer
	p := newPrinter()
	fmt.Fprintf(w, "Run %s (#%d)\n", run.ID, run.Seq)
	fmt.Fprintf(w, "  scenario: %s\n", run.Scenario)
	fmt.Fprintf(w, "  strategy: %s\n", run.Strategy)
	fmt.Fprintf(w, "  result:   %s\n", passWord(run.Pass))
	p.Fprintf(w, "  cycles:   %d\n", run.Cycles)
	fmt.Fprintln(w)

	if len(run.Transitions) == 0 {
		fmt.Fprintln(w, "No transitions.")
	}
	for _, tr := range run.Transitions {
		state := "up"
		if tr.Pressed {
			state = "down"
		}
		fmt.Fprintf(w, "  [%d] t=%d r%dc%d %s\n", tr.Seq, tr.Time, tr.Row, tr.Col, state)
	}
	for _, e := range run.Errors {
		fmt.Fprintf(w, "\n%s", e)
	}
	return nil
}

func listRuns(ctx context.Context, formatter *OutputFormatter, st *store.Store, scenario string) error {
	runs, err := st.ListRuns(ctx, scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tSCENARIO\tSTRATEGY\tRESULT")
	for _, run := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", run.Seq, run.ID, run.Scenario, run.Strategy, passWord(run.Pass))
	}
	return tw.Flush()
}

func passWord(pass bool) string {
	if pass {
		return "pass"
	}
	return "FAIL"
}
