package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jacquetc/qleany-sub001/internal/event"
	"github.com/jacquetc/qleany-sub001/internal/manifest"
	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/uow"
)

// LoadManifest parses the manifest at path and replaces the loaded
// workspace with it. The undo history is cleared first: its savepoints
// would rewind past the load.
func (s *Service) LoadManifest(ctx context.Context, path string) (*manifest.Loaded, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	m, err := manifest.ReadFile(abs)
	if err != nil {
		return nil, err
	}

	s.undo.ClearAll(ctx)
	loaded, err := manifest.Load(ctx, s.factory, m, abs)
	if err != nil {
		return nil, invariant(err)
	}
	s.logger.Info("manifest loaded",
		zap.String("path", abs),
		zap.Int("entities", len(m.Entities)),
		zap.Int("features", len(m.Features)))
	return loaded, nil
}

// SaveManifest writes the loaded workspace to path, or back to the file it
// was loaded from when path is empty. It returns the path written.
func (s *Service) SaveManifest(ctx context.Context, path string) (string, error) {
	q, err := s.factory.Query(ctx, manifest.ReadCapabilities())
	if err != nil {
		return "", err
	}
	ws, err := manifest.CurrentWorkspace(ctx, q)
	if err != nil {
		q.End()
		return "", err
	}
	m, err := manifest.ExportFrom(ctx, q)
	q.End()
	if err != nil {
		return "", err
	}

	if path == "" {
		path = ws.ManifestAbsolutePath
	}
	if err := manifest.WriteFile(path, m); err != nil {
		return "", err
	}
	s.publish(event.Event{
		Origin: event.HandlingManifest(event.Saved),
		IDs:    []model.EntityID{ws.ID},
		Data:   path,
	})
	s.logger.Info("manifest saved", zap.String("path", path))
	return path, nil
}

// CloseManifest drops the loaded workspace and its file rows. Root and
// System stay.
func (s *Service) CloseManifest(ctx context.Context) error {
	s.undo.ClearAll(ctx)

	cmd, err := s.factory.Command(ctx, manifest.LoadCapabilities())
	if err != nil {
		return err
	}
	defer cmd.Rollback()

	roots, err := uow.Repo[*model.Root](cmd).GetMulti(ctx, nil)
	if err != nil {
		return fmt.Errorf("read roots: %w", err)
	}
	switch {
	case len(roots) > 1:
		return fmt.Errorf("%w: %d roots: %w", ErrInvariantViolated, len(roots), manifest.ErrRootNotUnique)
	case len(roots) == 0 || roots[0].Workspace == 0:
		return manifest.ErrNoWorkspace
	}

	root := roots[0]
	wsID := root.Workspace
	if err := manifest.DropWorkspace(ctx, cmd, root); err != nil {
		return err
	}
	if err := cmd.Commit(); err != nil {
		return fmt.Errorf("commit close: %w", err)
	}
	s.publish(event.Event{Origin: event.HandlingManifest(event.Closed), IDs: []model.EntityID{wsID}})
	return nil
}

// NewManifest writes a starter manifest to path. An existing file is only
// replaced when force is set; its previous content goes to path + ".bak".
func NewManifest(path string, opts manifest.StarterOptions, force bool) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	if _, err := os.Stat(abs); err == nil && !force {
		return "", fmt.Errorf("%s: %w", abs, ErrManifestExists)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(abs), err)
	}
	if err := manifest.WriteFile(abs, manifest.New(opts)); err != nil {
		return "", err
	}
	return abs, nil
}

// CheckManifest parses and validates the manifest at path without loading
// it. Validation problems come back as manifest.SchemaError,
// manifest.ShapeError or manifest.ValidationErrors.
func CheckManifest(path string) (*manifest.Manifest, error) {
	return manifest.ReadFile(path)
}
