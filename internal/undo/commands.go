package undo

import (
	"context"
	"fmt"

	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/repository"
	"github.com/jacquetc/qleany-sub001/internal/store"
	"github.com/jacquetc/qleany-sub001/internal/uow"
)

// UpdateCommand restores a pre-image on undo and the post-image on redo.
type UpdateCommand[R model.Record] struct {
	factory *uow.Factory
	before  []R
	after   []R
}

// NewUpdateCommand records the images around an update of records.
func NewUpdateCommand[R model.Record](factory *uow.Factory, before, after []R) *UpdateCommand[R] {
	return &UpdateCommand[R]{factory: factory, before: before, after: after}
}

func (c *UpdateCommand[R]) Undo(ctx context.Context) error {
	return c.apply(ctx, c.before)
}

func (c *UpdateCommand[R]) Redo(ctx context.Context) error {
	return c.apply(ctx, c.after)
}

func (c *UpdateCommand[R]) apply(ctx context.Context, images []R) error {
	kind := repository.KindOf[R]()
	cmd, err := c.factory.Command(ctx, uow.Allow([]model.Kind{kind}, uow.ActionUpdate))
	if err != nil {
		return err
	}
	defer cmd.Rollback()

	if _, err := uow.Repo[R](cmd).UpdateMulti(ctx, images); err != nil {
		return fmt.Errorf("apply %s image: %w", kind, err)
	}
	return cmd.Commit()
}

// RedoFunc replays a destructive or creating operation inside cmd.
type RedoFunc func(ctx context.Context, cmd *uow.Command) error

// SavepointCommand undoes by restoring a savepoint taken before the
// operation and redoes by replaying the operation.
type SavepointCommand struct {
	factory   *uow.Factory
	savepoint store.Savepoint
	caps      uow.Capabilities
	redo      RedoFunc
}

// NewSavepointCommand pairs sp with the redo descriptor of the operation.
func NewSavepointCommand(factory *uow.Factory, sp store.Savepoint, caps uow.Capabilities, redo RedoFunc) *SavepointCommand {
	return &SavepointCommand{factory: factory, savepoint: sp, caps: caps, redo: redo}
}

// Savepoint returns the token restored by Undo.
func (c *SavepointCommand) Savepoint() store.Savepoint {
	return c.savepoint
}

func (c *SavepointCommand) Undo(ctx context.Context) error {
	cmd, err := c.factory.Command(ctx, c.caps)
	if err != nil {
		return err
	}
	defer cmd.Rollback()

	if err := cmd.RestoreSavepoint(ctx, c.savepoint); err != nil {
		return err
	}
	return cmd.Commit()
}

// RewindsStore is true: the restore also reverts writes made after the
// savepoint by other commands.
func (c *SavepointCommand) RewindsStore() bool {
	return true
}

// Redo replays the operation behind a fresh savepoint, so the command
// stays undoable after an older restore dropped its previous one.
func (c *SavepointCommand) Redo(ctx context.Context) error {
	cmd, err := c.factory.Command(ctx, c.caps)
	if err != nil {
		return err
	}
	defer cmd.Rollback()

	sp, err := cmd.CreateSavepoint(ctx)
	if err != nil {
		return err
	}
	if err := c.redo(ctx, cmd); err != nil {
		return err
	}
	if err := cmd.DeleteSavepoint(ctx, c.savepoint); err != nil {
		return err
	}
	if err := cmd.Commit(); err != nil {
		return err
	}
	c.savepoint = sp
	return nil
}

// Release drops the savepoint.
func (c *SavepointCommand) Release(ctx context.Context) error {
	cmd, err := c.factory.Command(ctx, c.caps)
	if err != nil {
		return err
	}
	defer cmd.Rollback()

	if err := cmd.DeleteSavepoint(ctx, c.savepoint); err != nil {
		return err
	}
	return cmd.Commit()
}
