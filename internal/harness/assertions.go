package harness

import (
	"fmt"
	"slices"
	"strings"
)

// Assertion failure types.
const (
	// AssertUnexpectedOutput is a transition between two events.
	AssertUnexpectedOutput = "unexpected_output"

	// AssertOutputMismatch is an event whose scan did not produce exactly
	// the expected transitions.
	AssertOutputMismatch = "output_mismatch"

	// AssertQuietPeriod is a transition after the last event.
	AssertQuietPeriod = "quiet_period"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Time     uint32        // Scenario time of the failing scan
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Trace    []Observation // Full trace up to the failure
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s at t=%d\n", e.Type, e.Time)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, obs := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, obs)
		}
	}

	return buf.String()
}

// assertOutputs checks that an event's scan observed exactly the expected
// transitions, in any order.
func assertOutputs(now uint32, observed []Observation, expected []Edge, trace []Observation) error {
	want := make([]string, len(expected))
	for i, e := range expected {
		want[i] = e.String()
	}
	got := make([]string, len(observed))
	for i, o := range observed {
		got[i] = o.Cell().String() + " " + stateName(o.Pressed)
	}
	slices.Sort(want)
	slices.Sort(got)

	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutputMismatch,
		Time:     now,
		Expected: describe(want),
		Actual:   describe(got),
		Trace:    slices.Clone(trace),
	}
}

// assertNothing checks that a scan outside an event observed nothing.
func assertNothing(kind string, now uint32, observed []Observation, trace []Observation) error {
	if len(observed) == 0 {
		return nil
	}
	got := make([]string, len(observed))
	for i, o := range observed {
		got[i] = o.Cell().String() + " " + stateName(o.Pressed)
	}
	return &AssertionError{
		Type:     kind,
		Time:     now,
		Expected: "no transitions",
		Actual:   describe(got),
		Trace:    slices.Clone(trace),
	}
}

func stateName(pressed bool) string {
	if pressed {
		return StateDown
	}
	return StateUp
}

func describe(transitions []string) string {
	if len(transitions) == 0 {
		return "no transitions"
	}
	return "[" + strings.Join(transitions, ", ") + "]"
}
