package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// StateSnapshot is what RunWithGolden compares.
type StateSnapshot struct {
	Scenario string   `json:"scenario"`
	Pass     bool     `json:"pass"`
	Errors   []string `json:"errors"`
	State    State    `json:"state"`
}

// RunWithGolden runs scenario and compares its final state with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
//
// The trace is left out: it carries store paths that change per run.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(StateSnapshot{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Errors:   result.Errors,
		State:    result.State,
	}, "", "  ")
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, append(data, '\n'))
	return result, nil
}
