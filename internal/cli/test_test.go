package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keybounce/internal/testutil"
)

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := execute(NewTestCommand(&RootOptions{Format: "json"}), t.TempDir())
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommandPassingScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "press.yaml", passingScenario)

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ press [symmetric]")
	assert.Contains(t, out, "1 scenarios, 1 passed, 0 failed (1 strategy runs, 1,006 scan cycles)")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "early.yaml", failingScenario)
	writeFile(t, dir, "press.yaml", passingScenario)

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ early [symmetric (failed)]")
	assert.Contains(t, out, "✓ press [symmetric]")
	assert.Contains(t, out, "2 scenarios, 1 passed, 1 failed")
}

func TestTestCommandInvalidScenarioFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "name: broken\n")

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "early.yaml", failingScenario)
	writeFile(t, dir, "press.yaml", passingScenario)

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--filter", "pr*")
	require.NoError(t, err)
	assert.Contains(t, out, "press")
	assert.NotContains(t, out, "early")
}

func TestTestCommandInvalidFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "press.yaml", passingScenario)

	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandGoldenLifecycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "press.yaml", passingScenario)
	goldenPath := filepath.Join(dir, "golden", "press.symmetric.golden")

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "symmetric (golden updated)")

	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Equal(t, "# press (symmetric)\nt=5 r0c0 down\n", string(data))

	_, err = execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte("# press (symmetric)\nt=6 r0c0 down\n"), 0644))
	out, err = execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandUpdateKeepsFailedTraceOut(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "early.yaml", failingScenario)

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.NotContains(t, out, "golden updated")
	assert.NoFileExists(t, filepath.Join(dir, "golden", "early.symmetric.golden"))
}

func TestTestCommandJSONOutput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "press.yaml", passingScenario)

	out, err := execute(NewTestCommand(&RootOptions{Format: "json"}), dir, "--strategy", "sparse", "--strategy", "asymmetric")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 2, resp.Data.Runs)
	require.Len(t, resp.Data.Scenarios, 1)

	var names []string
	for _, so := range resp.Data.Scenarios[0].Strategies {
		names = append(names, so.Strategy)
	}
	assert.Equal(t, []string{"sparse", "asymmetric"}, names)
}

func TestTestCommandRecordsRuns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "early.yaml", failingScenario)
	writeFile(t, dir, "press.yaml", passingScenario)
	db := filepath.Join(t.TempDir(), "runs.db")

	cmd := newTestCommand(&TestOptions{
		RootOptions:    &RootOptions{Format: "text"},
		RunIDGenerator: testutil.NewFixedRunIDGenerator(""),
	})
	_, err := execute(cmd, dir, "--db", db)
	require.Error(t, err, "early fails")

	out, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "test-run-1")
	assert.Contains(t, out, "early")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "test-run-2")
	assert.Contains(t, out, "pass")
}

func TestTestCommandRepositoryScenarios(t *testing.T) {
	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), "../harness/testdata/scenarios")
	require.NoError(t, err, out)
	assert.Contains(t, out, " 0 failed")
}
