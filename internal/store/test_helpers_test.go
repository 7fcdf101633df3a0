package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/roach88/keybounce/internal/testutil"
)

// createTestStore creates a new store with predictable run IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithRunIDGenerator(testutil.NewFixedRunIDGenerator("")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a passing run with the given transitions.
func createTestRun(scenario, strategy string, transitions ...Transition) *Run {
	return &Run{
		Scenario:    scenario,
		Strategy:    strategy,
		Pass:        true,
		Cycles:      1000,
		Transitions: transitions,
	}
}

// getTableIndexes returns the index names of a table.
func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan index: %v", err)
		}
		names = append(names, name)
	}
	return names
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
