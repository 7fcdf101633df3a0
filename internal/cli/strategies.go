package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/keybounce/internal/engine"
)

// StrategyInfo describes one strategy and its default windows.
type StrategyInfo struct {
	Name    string `json:"name"`
	Down    uint8  `json:"down"`
	Up      uint8  `json:"up"`
	Quiesce uint8  `json:"quiesce,omitempty"`
}

// NewStrategiesCommand creates the strategies command.
func NewStrategiesCommand(rootOpts *RootOptions) *cobra.Command {
	var window uint8

	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "List debounce strategies and their default windows",
		Long: `List every debounce strategy with the windows it resolves to.

With --window the press window is overridden first, which shows how each
strategy derives its release window from it.

Examples:
  keybounce strategies
  keybounce strategies --window 8 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStrategies(rootOpts, window, cmd)
		},
	}

	cmd.Flags().Uint8Var(&window, "window", 0, "press window in ticks (0 = default)")

	return cmd
}

func runStrategies(opts *RootOptions, window uint8, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	infos := make([]StrategyInfo, 0, len(engine.Strategies()))
	for _, name := range engine.Strategies() {
		cfg, err := engine.Defaults(name, engine.WithDown(window))
		if err != nil {
			return WrapExitError(ExitCommandError, "resolve defaults", err)
		}
		infos = append(infos, StrategyInfo{
			Name:    name,
			Down:    cfg.Down,
			Up:      cfg.Up,
			Quiesce: cfg.Quiesce,
		})
	}

	if opts.Format == "json" {
		return formatter.Success(infos)
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tDOWN\tUP\tQUIESCE")
	for _, info := range infos {
		quiesce := "-"
		if info.Quiesce != 0 {
			quiesce = fmt.Sprint(info.Quiesce)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", info.Name, info.Down, info.Up, quiesce)
	}
	return tw.Flush()
}
