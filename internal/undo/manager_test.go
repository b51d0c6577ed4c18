package undo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacquetc/qleany-sub001/internal/event"
)

type fakeCommand struct {
	name     string
	log      *[]string
	released bool
	failUndo bool
}

func (f *fakeCommand) Undo(context.Context) error {
	if f.failUndo {
		return errors.New("boom")
	}
	*f.log = append(*f.log, "undo "+f.name)
	return nil
}

func (f *fakeCommand) Redo(context.Context) error {
	*f.log = append(*f.log, "redo "+f.name)
	return nil
}

func (f *fakeCommand) Release(context.Context) error {
	f.released = true
	return nil
}

// rewindingCommand stands for a command restoring a store savepoint.
type rewindingCommand struct {
	fakeCommand
}

func (r *rewindingCommand) RewindsStore() bool { return true }

type recorder struct {
	events []event.Event
}

func (r *recorder) Publish(e event.Event) {
	r.events = append(r.events, e)
}

func TestManager_UndoRedo(t *testing.T) {
	ctx := context.Background()
	var log []string
	rec := &recorder{}
	m := NewManager(WithPublisher(rec))

	m.Push(ctx, &fakeCommand{name: "a", log: &log})
	m.Push(ctx, &fakeCommand{name: "b", log: &log})

	require.NoError(t, m.Undo(ctx))
	require.NoError(t, m.Undo(ctx))
	assert.ErrorIs(t, m.Undo(ctx), ErrNothingToUndo)
	require.NoError(t, m.Redo(ctx))

	assert.Equal(t, []string{"undo b", "undo a", "redo a"}, log)
	assert.True(t, m.CanUndo())
	assert.True(t, m.CanRedo())

	require.Len(t, rec.events, 3)
	assert.Equal(t, event.UndoRedo(event.Undone), rec.events[0].Origin)
	assert.Equal(t, event.UndoRedo(event.Redone), rec.events[2].Origin)
}

func TestManager_PushDropsRedoHistory(t *testing.T) {
	ctx := context.Background()
	var log []string
	m := NewManager()

	a := &fakeCommand{name: "a", log: &log}
	m.Push(ctx, a)
	require.NoError(t, m.Undo(ctx))
	m.Push(ctx, &fakeCommand{name: "b", log: &log})

	assert.False(t, m.CanRedo())
	assert.True(t, a.released)
	assert.ErrorIs(t, m.Redo(ctx), ErrNothingToRedo)
}

func TestManager_EvictsOldestBeyondLimit(t *testing.T) {
	ctx := context.Background()
	var log []string
	m := NewManager(WithLimit(2))

	first := &fakeCommand{name: "1", log: &log}
	m.Push(ctx, first)
	m.Push(ctx, &fakeCommand{name: "2", log: &log})
	m.Push(ctx, &fakeCommand{name: "3", log: &log})

	undo, redo := m.Len(DefaultStack)
	assert.Equal(t, 2, undo)
	assert.Zero(t, redo)
	assert.True(t, first.released)

	require.NoError(t, m.Undo(ctx))
	require.NoError(t, m.Undo(ctx))
	assert.Equal(t, []string{"undo 3", "undo 2"}, log)
}

func TestManager_CompositeUndoesAsOneUnit(t *testing.T) {
	ctx := context.Background()
	var log []string
	m := NewManager()

	m.BeginComposite()
	m.Push(ctx, &fakeCommand{name: "a", log: &log})
	m.BeginComposite()
	m.Push(ctx, &fakeCommand{name: "b", log: &log})
	require.NoError(t, m.EndComposite(ctx))
	m.Push(ctx, &fakeCommand{name: "c", log: &log})
	require.NoError(t, m.EndComposite(ctx))
	assert.ErrorIs(t, m.EndComposite(ctx), ErrCompositeNotOpen)

	undo, _ := m.Len(DefaultStack)
	assert.Equal(t, 1, undo)

	require.NoError(t, m.Undo(ctx))
	require.NoError(t, m.Redo(ctx))
	assert.Equal(t, []string{"undo c", "undo b", "undo a", "redo a", "redo b", "redo c"}, log)
}

func TestManager_NamedStacksAreIndependent(t *testing.T) {
	ctx := context.Background()
	var log []string
	m := NewManager()

	m.Push(ctx, &fakeCommand{name: "default", log: &log})
	m.SetActiveStack("editor")
	assert.Equal(t, "editor", m.ActiveStack())
	m.Push(ctx, &fakeCommand{name: "editor", log: &log})

	require.NoError(t, m.Undo(ctx))
	require.NoError(t, m.UndoStack(ctx, DefaultStack))
	assert.Equal(t, []string{"undo editor", "undo default"}, log)

	require.NoError(t, m.RedoStack(ctx, DefaultStack))
	assert.Equal(t, "redo default", log[len(log)-1])
}

func TestManager_ClearAllReleases(t *testing.T) {
	ctx := context.Background()
	var log []string
	rec := &recorder{}
	m := NewManager(WithPublisher(rec))

	a := &fakeCommand{name: "a", log: &log}
	b := &fakeCommand{name: "b", log: &log}
	m.Push(ctx, a)
	m.PushTo(ctx, "other", b)

	m.ClearAll(ctx)
	assert.True(t, a.released)
	assert.True(t, b.released)
	assert.False(t, m.CanUndo())
	assert.Equal(t, event.UndoRedo(event.Cleared), rec.events[len(rec.events)-1].Origin)
}

func TestManager_FailedUndoKeepsCommand(t *testing.T) {
	ctx := context.Background()
	var log []string
	m := NewManager()

	m.Push(ctx, &fakeCommand{name: "a", log: &log, failUndo: true})
	assert.Error(t, m.Undo(ctx))
	assert.True(t, m.CanUndo())
	assert.False(t, m.CanRedo())
}

func TestManager_RewindingUndoClearsOtherStacks(t *testing.T) {
	ctx := context.Background()
	var log []string
	rec := &recorder{}
	m := NewManager(WithPublisher(rec))

	create := &rewindingCommand{fakeCommand{name: "create", log: &log}}
	update := &fakeCommand{name: "update", log: &log}
	kept := &fakeCommand{name: "kept", log: &log}
	m.PushTo(ctx, "a", kept)
	m.PushTo(ctx, "a", create)
	m.PushTo(ctx, "b", update)

	require.NoError(t, m.UndoStack(ctx, "a"))
	assert.True(t, update.released)
	assert.ErrorIs(t, m.UndoStack(ctx, "b"), ErrNothingToUndo)
	assert.Equal(t, event.Event{Origin: event.UndoRedo(event.Cleared), Data: "b"}, rec.events[len(rec.events)-1])

	undos, redos := m.Len("a")
	assert.Equal(t, 1, undos)
	assert.Equal(t, 1, redos)
	assert.False(t, kept.released)
}

func TestManager_PlainUndoKeepsOtherStacks(t *testing.T) {
	ctx := context.Background()
	var log []string
	m := NewManager()

	m.PushTo(ctx, "a", &fakeCommand{name: "a", log: &log})
	m.PushTo(ctx, "b", &fakeCommand{name: "b", log: &log})

	require.NoError(t, m.UndoStack(ctx, "a"))
	require.NoError(t, m.UndoStack(ctx, "b"))
	assert.Equal(t, []string{"undo a", "undo b"}, log)
}

func TestComposite_RewindsWhenAnyMemberDoes(t *testing.T) {
	var log []string
	plain := &Composite{Commands: []Command{&fakeCommand{log: &log}}}
	assert.False(t, plain.RewindsStore())

	mixed := &Composite{Commands: []Command{&fakeCommand{log: &log}, &rewindingCommand{fakeCommand{log: &log}}}}
	assert.True(t, mixed.RewindsStore())
}

func TestManager_ClearOthers(t *testing.T) {
	ctx := context.Background()
	var log []string
	rec := &recorder{}
	m := NewManager(WithPublisher(rec))

	a := &fakeCommand{name: "a", log: &log}
	b := &fakeCommand{name: "b", log: &log}
	m.Push(ctx, a)
	m.PushTo(ctx, "other", b)
	m.SetActiveStack("empty")

	m.ClearOthers(ctx, DefaultStack)
	assert.False(t, a.released)
	assert.True(t, b.released)
	require.Len(t, rec.events, 1, "stacks without commands are not announced")
	assert.Equal(t, "other", rec.events[0].Data)
}
