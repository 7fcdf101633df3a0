package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: press
description: "single press commits after the window"
rows: 1
strategies: [symmetric]
events:
  - time: 0
    inputs: [{row: 0, col: 0, state: down}]
  - time: 5
    outputs: [{row: 0, col: 0, state: down}]
`

const failingScenario = `name: early
description: "expects the commit one tick early"
rows: 1
strategies: [symmetric]
quiet_ticks: 10
events:
  - time: 0
    inputs: [{row: 0, col: 3, state: down}]
  - time: 4
    outputs: [{row: 0, col: 3, state: down}]
`

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns stdout and the command error.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
