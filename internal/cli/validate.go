package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/keybounce/internal/profile"
)

// ValidationError is one problem found in a profile.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Profile *profile.Profile  `json:"profile,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <profile>",
		Short: "Validate a keyboard profile",
		Long: `Validate a CUE or TOML keyboard profile against the profile schema.

The profile is also instantiated: its strategy is built and initialized
for the profile's row count, so anything the engine would reject at
startup is reported here.

Examples:
  keybounce validate ./planck.cue
  keybounce validate ./split.toml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	formatter.VerboseLog("Loading profile %s", path)

	p, err := profile.Load(path)
	if err != nil {
		var le *profile.LoadError
		if !errors.As(err, &le) {
			return outputValidateError(formatter, ErrCodeGeneric, err.Error())
		}
		if le.Code == profile.ErrCodeNotFound {
			return outputValidateError(formatter, ErrCodeNotFound, le.Message)
		}
		return outputValidationErrors(formatter, []ValidationError{validationErrorOf(le)})
	}

	deb, err := p.NewDebouncer(nil)
	if err == nil {
		err = deb.Init(p.Rows)
		deb.Teardown()
	}
	if err != nil {
		return outputValidationErrors(formatter, []ValidationError{{
			Code:    ErrCodeProfile,
			Message: err.Error(),
		}})
	}

	formatter.VerboseLog("Strategy %s accepted %d rows", p.Strategy, p.Rows)
	return outputValidateSuccess(formatter, p)
}

func validationErrorOf(le *profile.LoadError) ValidationError {
	ve := ValidationError{Code: le.Code, Message: le.Message}
	if le.Pos.IsValid() {
		ve.Line = le.Pos.Line()
	}
	return ve
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, p *profile.Profile) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Profile: p})
	}

	fmt.Fprintf(formatter.Writer, "✓ Profile %s valid (%d rows, %s, down=%d",
		p.Name, p.Rows, p.Strategy, p.Debounce.Down)
	if p.Debounce.Up != 0 {
		fmt.Fprintf(formatter.Writer, " up=%d", p.Debounce.Up)
	}
	if p.Debounce.Quiesce != 0 {
		fmt.Fprintf(formatter.Writer, " quiesce=%d", p.Debounce.Quiesce)
	}
	if p.Frames {
		fmt.Fprint(formatter.Writer, " frames")
	}
	fmt.Fprintln(formatter.Writer, ")")
	return nil
}

// outputValidateError outputs a command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs profile validation failures.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := formatter.JSON(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
