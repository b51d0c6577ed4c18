package harness

import (
	"fmt"
	"reflect"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] step %d %s\n", i+1, ev.Step, ev.Origin)
		}
	}
	return buf.String()
}

// assertTraceContains checks that some event has the origin.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Origin == a.Origin {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("event %s", a.Origin),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first occurrences of the origins come
// in the given order. Other events may come in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		for _, origin := range a.Origins {
			if ev.Origin == origin && positions[origin] == 0 {
				positions[origin] = i + 1
			}
		}
	}

	for _, origin := range a.Origins {
		if positions[origin] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all events present: %v", a.Origins),
				Actual:   fmt.Sprintf("missing event: %s", origin),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Origins); i++ {
		prev, curr := a.Origins[i-1], a.Origins[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("events in order: %v", a.Origins),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that the origin occurs exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Origin == a.Origin {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Origin),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks the fields the assertion sets.
func assertFinalState(state State, a Assertion) error {
	var mismatches []string
	check := func(name string, want, got any) {
		if !reflect.DeepEqual(want, got) {
			mismatches = append(mismatches, fmt.Sprintf("%s: want %v, got %v", name, want, got))
		}
	}

	if a.Loaded != nil {
		check("loaded", *a.Loaded, state.Loaded)
	}
	if a.Entities != nil {
		check("entities", a.Entities, state.Entities)
	}
	if a.Features != nil {
		check("features", a.Features, state.Features)
	}
	if a.Files != nil {
		check("files", *a.Files, state.Files)
	}
	if a.Generated != nil {
		check("generated", *a.Generated, state.Generated)
	}
	if a.Undo != nil {
		check("undo", *a.Undo, state.Undo)
	}
	if a.Redo != nil {
		check("redo", *a.Redo, state.Redo)
	}

	if len(mismatches) > 0 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: "final state to match",
			Actual:   strings.Join(mismatches, "; "),
		}
	}
	return nil
}

// EvaluateAssertions runs every assertion against result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalState:
			err = assertFinalState(result.State, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}
