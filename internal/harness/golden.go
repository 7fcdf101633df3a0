package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot captures the observed transitions of one strategy run.
type TraceSnapshot struct {
	Scenario string        `json:"scenario"`
	Strategy string        `json:"strategy"`
	Trace    []Observation `json:"trace"`
}

// Render produces the golden text form:
//
//	# fast_bounce_on_press (symmetric)
//	t=7 r0c1 down
//
// The format is line-oriented so golden files can be written and reviewed
// by hand.
func (s *TraceSnapshot) Render() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s (%s)\n", s.Scenario, s.Strategy)
	for _, obs := range s.Trace {
		fmt.Fprintf(&buf, "%s\n", obs)
	}
	return buf.Bytes()
}

// GoldenName returns the golden file name (without extension) for a
// scenario run under a strategy.
func GoldenName(scenario, strategy string) string {
	return scenario + "." + strategy
}

// RunWithGolden executes a scenario and compares each strategy's trace
// against testdata/golden/<scenario>.<strategy>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if a trace doesn't match its golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Report, error) {
	t.Helper()

	report, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	for _, result := range report.Results {
		AssertGolden(t, scenario.Name, result)
	}
	return report, nil
}

// AssertGolden compares an existing result's trace against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	snapshot := TraceSnapshot{
		Scenario: scenarioName,
		Strategy: result.Strategy,
		Trace:    result.Trace,
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, GoldenName(scenarioName, result.Strategy), snapshot.Render())
}

// GoldenStatus is the outcome of comparing a trace with a golden file
// outside of tests.
type GoldenStatus string

const (
	GoldenMatch    GoldenStatus = "match"
	GoldenMismatch GoldenStatus = "mismatch"
	GoldenMissing  GoldenStatus = "missing"
	GoldenUpdated  GoldenStatus = "updated"
)

// CompareGolden checks a result against <dir>/<scenario>.<strategy>.golden.
// With update set, the file of a passing result is (re)written and
// GoldenUpdated returned. A failing result is only compared, so a broken
// trace never becomes the reference.
//
// goldie is bound to *testing.T, so the CLI goes through this instead; the
// file name and content are the same.
func CompareGolden(dir, scenarioName string, result *Result, update bool) (GoldenStatus, error) {
	snapshot := TraceSnapshot{
		Scenario: scenarioName,
		Strategy: result.Strategy,
		Trace:    result.Trace,
	}
	actual := snapshot.Render()
	path := filepath.Join(dir, GoldenName(scenarioName, result.Strategy)+".golden")

	if update && result.Pass {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create golden dir: %w", err)
		}
		if err := os.WriteFile(path, actual, 0o644); err != nil {
			return "", fmt.Errorf("write golden file: %w", err)
		}
		return GoldenUpdated, nil
	}

	expected, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return GoldenMissing, nil
	}
	if err != nil {
		return "", fmt.Errorf("read golden file: %w", err)
	}
	if !bytes.Equal(expected, actual) {
		return GoldenMismatch, nil
	}
	return GoldenMatch, nil
}
