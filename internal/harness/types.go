package harness

import (
	"github.com/jacquetc/qleany-sub001/internal/event"
	"github.com/jacquetc/qleany-sub001/internal/model"
)

// TraceEvent is one event published while a step ran.
type TraceEvent struct {
	Step   int              `json:"step"`
	Origin string           `json:"origin"`
	IDs    []model.EntityID `json:"ids,omitempty"`
	Data   string           `json:"data,omitempty"`
}

func newTraceEvent(step int, e event.Event) TraceEvent {
	return TraceEvent{Step: step, Origin: e.Origin.String(), IDs: e.IDs, Data: e.Data}
}

// State is the workspace after the flow.
type State struct {
	Loaded   bool     `json:"loaded"`
	Entities []string `json:"entities"`
	Features []string `json:"features"`
	Files    int      `json:"files"`
	// Generated counts the outputs of the last successful generate step.
	Generated int `json:"generated"`
	Undo      int `json:"undo"`
	Redo      int `json:"redo"`
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every step behaved as expected and every assertion
	// held.
	Pass   bool         `json:"pass"`
	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`
	State  State        `json:"state"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
