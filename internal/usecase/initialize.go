package usecase

import (
	"context"
	"fmt"

	"github.com/jacquetc/qleany-sub001/internal/manifest"
	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/uow"
)

// InitializeApp creates the Root and its System on an empty store and
// returns the existing Root otherwise. A store holding several roots fails
// with ErrInvariantViolated.
func (s *Service) InitializeApp(ctx context.Context) (*model.Root, error) {
	cmd, err := s.factory.Command(ctx, uow.ReadWrite(model.KindRoot, model.KindSystem))
	if err != nil {
		return nil, err
	}
	defer cmd.Rollback()

	root, err := manifest.EnsureRoot(ctx, cmd)
	if err != nil {
		return nil, invariant(err)
	}
	if err := cmd.Commit(); err != nil {
		return nil, fmt.Errorf("commit initialize: %w", err)
	}
	return root, nil
}
