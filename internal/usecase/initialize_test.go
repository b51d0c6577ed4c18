package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/repository"
	"github.com/jacquetc/qleany-sub001/internal/uow"
)

func TestInitializeApp_CreatesRootOnce(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	first, err := s.InitializeApp(ctx)
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.NotZero(t, first.System)

	second, err := s.InitializeApp(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestInitializeApp_SecondRootIsRejected(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	_, err := s.InitializeApp(ctx)
	require.NoError(t, err)

	cmd, err := s.Factory().Command(ctx, uow.ReadWrite(model.KindRoot))
	require.NoError(t, err)
	_, err = uow.Repo[*model.Root](cmd).Create(ctx, &model.Root{})
	require.ErrorIs(t, err, repository.ErrRootExists)
	cmd.Rollback()

	_, err = Access[*model.Root](s).Create(ctx, &model.Root{})
	require.ErrorIs(t, err, repository.ErrRootExists)

	roots, err := Access[*model.Root](s).GetMulti(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, roots, 1)

	_, err = s.InitializeApp(ctx)
	require.NoError(t, err)
}
