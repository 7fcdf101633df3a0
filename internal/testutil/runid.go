package testutil

import (
	"fmt"
	"sync"
)

// FixedRunIDGenerator hands out predictable run IDs for tests.
//
// IDs have the form "<prefix>-<n>" with n starting at 1, so a test that
// records the same runs in the same order always gets the same IDs and
// golden output stays byte-identical.
//
// Implements store.RunIDGenerator.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedRunIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewFixedRunIDGenerator creates a generator. If prefix is empty,
// "test-run" is used.
func NewFixedRunIDGenerator(prefix string) *FixedRunIDGenerator {
	if prefix == "" {
		prefix = "test-run"
	}
	return &FixedRunIDGenerator{prefix: prefix}
}

// Generate returns the next run ID.
func (g *FixedRunIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
