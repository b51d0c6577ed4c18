package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Step: 0, Origin: "undo_redo/cleared"},
		{Step: 0, Origin: "direct_access/entity/created"},
		{Step: 0, Origin: "handling_manifest/loaded"},
		{Step: 1, Origin: "direct_access/entity/updated"},
		{Step: 2, Origin: "undo_redo/undone"},
		{Step: 3, Origin: "undo_redo/undone"},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()
	assert.NoError(t, assertTraceContains(trace, Assertion{Origin: "handling_manifest/loaded"}))

	err := assertTraceContains(trace, Assertion{Origin: "handling_manifest/saved"})
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AssertTraceContains, aerr.Type)
	assert.Contains(t, err.Error(), "step 2 undo_redo/undone")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()
	assert.NoError(t, assertTraceOrder(trace, Assertion{Origins: []string{
		"handling_manifest/loaded", "direct_access/entity/updated", "undo_redo/undone",
	}}))

	err := assertTraceOrder(trace, Assertion{Origins: []string{"undo_redo/undone", "handling_manifest/loaded"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should be before")

	err = assertTraceOrder(trace, Assertion{Origins: []string{"handling_manifest/closed"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing event: handling_manifest/closed")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()
	assert.NoError(t, assertTraceCount(trace, Assertion{Origin: "undo_redo/undone", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Origin: "handling_manifest/closed", Count: 0}))

	err := assertTraceCount(trace, Assertion{Origin: "undo_redo/undone", Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 occurrences")
}

func TestAssertFinalState(t *testing.T) {
	state := State{Loaded: true, Entities: []string{"Root", "Book"}, Files: 4, Undo: 1}
	files, undoDepth := 4, 1
	loaded := true

	assert.NoError(t, assertFinalState(state, Assertion{}))
	assert.NoError(t, assertFinalState(state, Assertion{
		Loaded:   &loaded,
		Entities: []string{"Root", "Book"},
		Files:    &files,
		Undo:     &undoDepth,
	}))

	wrong := 0
	err := assertFinalState(state, Assertion{Entities: []string{"Book", "Root"}, Undo: &wrong})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entities: want [Book Root], got [Root Book]")
	assert.Contains(t, err.Error(), "undo: want 0, got 1")
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()
	result.State = State{Loaded: true}

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceContains, Origin: "handling_manifest/loaded"},
		{Type: AssertTraceCount, Origin: "undo_redo/undone", Count: 5},
		{Type: "bogus"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "assertions[1]")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)
}
