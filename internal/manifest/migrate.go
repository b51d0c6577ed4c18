package manifest

import (
	"fmt"
)

// CurrentVersion is the schema version Parse migrates to.
const CurrentVersion = 3

// MinVersion is the oldest schema version a migrator chain starts from.
const MinVersion = 2

// Migrator upgrades a generic manifest tree from one version to the next.
type Migrator struct {
	From  int
	Apply func(tree map[string]any) error
}

// migrators is ordered by From; each step bumps the version by one.
var migrators = []Migrator{
	{From: 2, Apply: stripAllowDirectAccess},
}

// Version reads schema.version from a generic tree.
func Version(tree map[string]any) (int, error) {
	schema, ok := tree["schema"].(map[string]any)
	if !ok {
		return 0, &SchemaError{Message: "missing schema section"}
	}
	raw, ok := schema["version"]
	if !ok {
		return 0, &SchemaError{Message: "missing schema.version"}
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
	}
	return 0, &SchemaError{Message: fmt.Sprintf("schema.version must be an integer, got %v", raw)}
}

// Migrate upgrades tree in place to CurrentVersion.
func Migrate(tree map[string]any) error {
	version, err := Version(tree)
	if err != nil {
		return err
	}
	if version > CurrentVersion {
		return &SchemaError{Version: version, Message: fmt.Sprintf("newer than supported version %d", CurrentVersion)}
	}
	if version < MinVersion {
		return &SchemaError{Version: version, Message: fmt.Sprintf("older than the oldest supported version %d", MinVersion)}
	}

	for _, m := range migrators {
		if m.From != version {
			continue
		}
		if err := m.Apply(tree); err != nil {
			return fmt.Errorf("migrate from v%d: %w", m.From, err)
		}
		version = m.From + 1
		tree["schema"].(map[string]any)["version"] = version
	}

	if version != CurrentVersion {
		return &SchemaError{Version: version, Message: "no migration path to the current version"}
	}
	return nil
}

// stripAllowDirectAccess drops the per-entity allow_direct_access flag
// removed in v3.
func stripAllowDirectAccess(tree map[string]any) error {
	entities, ok := tree["entities"].([]any)
	if !ok {
		return nil
	}
	for _, e := range entities {
		if entity, ok := e.(map[string]any); ok {
			delete(entity, "allow_direct_access")
		}
	}
	return nil
}
