package usecase

import (
	"context"

	"github.com/jacquetc/qleany-sub001/internal/generator"
	"github.com/jacquetc/qleany-sub001/internal/manifest"
)

// Workspace reads the loaded workspace and its file rows.
func (s *Service) Workspace(ctx context.Context) (*generator.Workspace, error) {
	q, err := s.factory.Query(ctx, generator.ReadCapabilities())
	if err != nil {
		return nil, err
	}
	defer q.End()
	return generator.LoadWorkspace(ctx, q)
}

// ExportManifest returns the loaded workspace as a manifest document.
func (s *Service) ExportManifest(ctx context.Context) (*manifest.Manifest, error) {
	return manifest.Export(ctx, s.factory)
}
