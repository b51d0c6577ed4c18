package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a flow of steps run against one manifest.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Manifest is the manifest file, relative to the scenario file. It is
	// copied before the flow so save steps never touch the original.
	Manifest string `yaml:"manifest"`

	Flow       []Step      `yaml:"flow"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step operations.
const (
	OpLoad         = "load"
	OpSave         = "save"
	OpClose        = "close"
	OpCreateEntity = "create_entity"
	OpRenameEntity = "rename_entity"
	OpRemoveEntity = "remove_entity"
	OpUndo         = "undo"
	OpRedo         = "redo"
	OpFill         = "fill"
	OpGenerate     = "generate"
)

// Step is one operation of the flow.
type Step struct {
	Do string `yaml:"do"`

	// Name is the entity of create_entity, rename_entity and remove_entity.
	Name string `yaml:"name,omitempty"`
	// To is the new name of rename_entity.
	To string `yaml:"to,omitempty"`

	// Select is the selection of generate, e.g. [entity, Book]. Empty
	// selects every file.
	Select []string `yaml:"select,omitempty"`
	DryRun bool     `yaml:"dry_run,omitempty"`

	// Expect, when set, requires the step to fail with the named error.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause names the error a step must fail with.
type ExpectClause struct {
	Error string `yaml:"error"`
}

// Assertion checks the trace or the final state.
type Assertion struct {
	Type string `yaml:"type"`

	// Origin is used by trace_contains and trace_count.
	Origin string `yaml:"origin,omitempty"`
	// Origins is used by trace_order.
	Origins []string `yaml:"origins,omitempty"`
	// Count is used by trace_count.
	Count int `yaml:"count,omitempty"`

	// The final_state fields; unset fields are not checked.
	Entities  []string `yaml:"entities,omitempty"`
	Features  []string `yaml:"features,omitempty"`
	Files     *int     `yaml:"files,omitempty"`
	Generated *int     `yaml:"generated,omitempty"`
	Undo      *int     `yaml:"undo,omitempty"`
	Redo      *int     `yaml:"redo,omitempty"`
	Loaded    *bool    `yaml:"loaded,omitempty"`
}

// Assertion types.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads a scenario file and resolves its manifest path.
// Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Manifest != "" && !filepath.IsAbs(scenario.Manifest) {
		scenario.Manifest = filepath.Join(filepath.Dir(path), scenario.Manifest)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Manifest == "" {
		return fmt.Errorf("manifest is required")
	}
	if _, err := os.Stat(s.Manifest); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step Step) error {
	switch step.Do {
	case OpLoad, OpSave, OpClose, OpUndo, OpRedo, OpFill, OpGenerate:
	case OpCreateEntity, OpRemoveEntity:
		if step.Name == "" {
			return fmt.Errorf("flow[%d]: name is required for %s", index, step.Do)
		}
	case OpRenameEntity:
		if step.Name == "" || step.To == "" {
			return fmt.Errorf("flow[%d]: name and to are required for %s", index, step.Do)
		}
	case "":
		return fmt.Errorf("flow[%d]: do is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown operation %q", index, step.Do)
	}
	if step.Expect != nil {
		if _, ok := expectedErrors[step.Expect.Error]; !ok {
			return fmt.Errorf("flow[%d].expect: unknown error %q", index, step.Expect.Error)
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Origin == "" {
			return fmt.Errorf("assertions[%d]: origin is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Origins) == 0 {
			return fmt.Errorf("assertions[%d]: origins list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Origin == "" {
			return fmt.Errorf("assertions[%d]: origin is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
