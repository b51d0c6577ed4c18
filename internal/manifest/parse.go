package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Parse decodes, migrates and checks a manifest document.
func Parse(data []byte) (*Manifest, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ShapeError{Violations: []string{fmt.Sprintf("invalid YAML: %v", err)}}
	}
	tree, ok := raw.(map[string]any)
	if !ok {
		return nil, &ShapeError{Violations: []string{"document root must be a mapping"}}
	}

	if err := Migrate(tree); err != nil {
		return nil, err
	}
	if err := CheckShape(tree); err != nil {
		return nil, err
	}

	migrated, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("re-encode manifest: %w", err)
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(migrated, m); err != nil {
		return nil, &ShapeError{Violations: []string{err.Error()}}
	}

	if errs := Validate(m); len(errs) > 0 {
		return nil, errs
	}
	return m, nil
}

// ReadFile parses the manifest at path.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Marshal renders m as YAML with two-space indentation.
func Marshal(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes m to path. An existing file is first copied to
// path + ".bak".
func WriteFile(path string, m *Manifest) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	if old, err := os.ReadFile(path); err == nil {
		if err := os.WriteFile(path+".bak", old, 0o644); err != nil {
			return fmt.Errorf("write manifest backup: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read existing manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
