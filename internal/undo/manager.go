// Package undo keeps the undo and redo history of write use cases.
//
// The Manager holds a default stack and any number of named stacks. Each
// stack keeps at most Limit commands; the oldest is evicted first.
// Commands pushed between BeginComposite and EndComposite undo and redo as
// one unit.
package undo

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/jacquetc/qleany-sub001/internal/event"
)

// DefaultLimit is the default number of commands kept per stack.
const DefaultLimit = 100

// DefaultStack is the name of the default stack.
const DefaultStack = ""

var (
	// ErrNothingToUndo is returned when the stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo is returned when the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
	// ErrCompositeNotOpen is returned by EndComposite without a BeginComposite.
	ErrCompositeNotOpen = errors.New("no composite open")
)

// Command is one undoable step. Undo and Redo open their own unit of work.
type Command interface {
	Undo(ctx context.Context) error
	Redo(ctx context.Context) error
}

// Releaser is implemented by commands holding resources (savepoints) that
// must be freed when the command leaves the history for good.
type Releaser interface {
	Release(ctx context.Context) error
}

// Rewinder is implemented by commands whose undo rewinds the whole store
// rather than their own records. Undoing one invalidates every other stack.
type Rewinder interface {
	RewindsStore() bool
}

type stack struct {
	undo []Command
	redo []Command
}

// Manager is safe for concurrent use.
type Manager struct {
	mu sync.Mutex

	limit  int
	active string
	stacks map[string]*stack

	compositeDepth int
	composite      []Command

	publisher event.Publisher
	logger    *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLimit sets the per-stack bound. Values below 1 are ignored.
func WithLimit(limit int) Option {
	return func(m *Manager) {
		if limit > 0 {
			m.limit = limit
		}
	}
}

// WithPublisher publishes UndoRedo events to pub.
func WithPublisher(pub event.Publisher) Option {
	return func(m *Manager) {
		m.publisher = pub
	}
}

// WithLogger sets the manager logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a manager with an empty default stack.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		limit:  DefaultLimit,
		stacks: map[string]*stack{DefaultStack: {}},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("undo")
	return m
}

func (m *Manager) stack(name string) *stack {
	s, ok := m.stacks[name]
	if !ok {
		s = &stack{}
		m.stacks[name] = s
	}
	return s
}

// SetActiveStack selects the stack used by Push, Undo and Redo.
func (m *Manager) SetActiveStack(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stack(name)
	m.active = name
}

// ActiveStack returns the selected stack name.
func (m *Manager) ActiveStack() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Push records cmd on the active stack, or in the open composite.
func (m *Manager) Push(ctx context.Context, cmd Command) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.push(ctx, m.active, cmd)
}

// PushTo records cmd on the named stack, or in the open composite.
func (m *Manager) PushTo(ctx context.Context, name string, cmd Command) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.push(ctx, name, cmd)
}

func (m *Manager) push(ctx context.Context, name string, cmd Command) {
	if m.compositeDepth > 0 {
		m.composite = append(m.composite, cmd)
		return
	}

	s := m.stack(name)
	m.release(ctx, s.redo...)
	s.redo = nil

	s.undo = append(s.undo, cmd)
	if over := len(s.undo) - m.limit; over > 0 {
		m.release(ctx, s.undo[:over]...)
		s.undo = append([]Command(nil), s.undo[over:]...)
	}
}

// BeginComposite starts grouping pushed commands. Calls nest.
func (m *Manager) BeginComposite() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compositeDepth++
}

// EndComposite closes the outermost group and pushes it as one command.
// An empty group pushes nothing.
func (m *Manager) EndComposite(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.compositeDepth == 0 {
		return ErrCompositeNotOpen
	}
	m.compositeDepth--
	if m.compositeDepth > 0 {
		return nil
	}

	cmds := m.composite
	m.composite = nil
	if len(cmds) == 0 {
		return nil
	}
	m.push(ctx, m.active, &Composite{Commands: cmds})
	return nil
}

// CanUndo reports whether the active stack has a command to undo.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stack(m.active).undo) > 0
}

// CanRedo reports whether the active stack has a command to redo.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stack(m.active).redo) > 0
}

// Undo undoes the top command of the active stack.
func (m *Manager) Undo(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.undo(ctx, m.active)
}

// UndoStack undoes the top command of the named stack.
func (m *Manager) UndoStack(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.undo(ctx, name)
}

func (m *Manager) undo(ctx context.Context, name string) error {
	s := m.stack(name)
	if len(s.undo) == 0 {
		return ErrNothingToUndo
	}
	cmd := s.undo[len(s.undo)-1]
	if err := cmd.Undo(ctx); err != nil {
		return err
	}
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, cmd)
	m.publish(event.Undone, name)
	if r, ok := cmd.(Rewinder); ok && r.RewindsStore() {
		m.clearOthers(ctx, name)
	}
	return nil
}

// Redo redoes the last undone command of the active stack.
func (m *Manager) Redo(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.redo(ctx, m.active)
}

// RedoStack redoes the last undone command of the named stack.
func (m *Manager) RedoStack(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.redo(ctx, name)
}

func (m *Manager) redo(ctx context.Context, name string) error {
	s := m.stack(name)
	if len(s.redo) == 0 {
		return ErrNothingToRedo
	}
	cmd := s.redo[len(s.redo)-1]
	if err := cmd.Redo(ctx); err != nil {
		return err
	}
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, cmd)
	m.publish(event.Redone, name)
	return nil
}

// Clear empties the named stack.
func (m *Manager) Clear(ctx context.Context, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clear(ctx, name)
	m.publish(event.Cleared, name)
}

// ClearAll empties every stack and drops any open composite content.
func (m *Manager) ClearAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name := range m.stacks {
		m.clear(ctx, name)
	}
	m.release(ctx, m.composite...)
	m.composite = nil
	m.publish(event.Cleared, "")
}

// ClearOthers empties every stack except name. Use cases call it after an
// operation whose effects the commands of other stacks cannot survive.
func (m *Manager) ClearOthers(ctx context.Context, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearOthers(ctx, name)
}

// clearOthers publishes one Cleared event per stack that held commands.
func (m *Manager) clearOthers(ctx context.Context, keep string) {
	for name, s := range m.stacks {
		if name == keep || len(s.undo)+len(s.redo) == 0 {
			continue
		}
		m.clear(ctx, name)
		m.publish(event.Cleared, name)
	}
}

func (m *Manager) clear(ctx context.Context, name string) {
	s := m.stack(name)
	m.release(ctx, s.undo...)
	m.release(ctx, s.redo...)
	s.undo = nil
	s.redo = nil
}

// Len returns the undo and redo depths of the named stack.
func (m *Manager) Len(name string) (undo, redo int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stack(name)
	return len(s.undo), len(s.redo)
}

func (m *Manager) release(ctx context.Context, cmds ...Command) {
	for _, cmd := range cmds {
		r, ok := cmd.(Releaser)
		if !ok {
			continue
		}
		if err := r.Release(ctx); err != nil {
			m.logger.Warn("release undo command", zap.Error(err))
		}
	}
}

func (m *Manager) publish(action event.Action, stackName string) {
	if m.publisher == nil {
		return
	}
	m.publisher.Publish(event.Event{Origin: event.UndoRedo(action), Data: stackName})
}

// Composite undoes its commands in reverse order and redoes them in order.
type Composite struct {
	Commands []Command
}

func (c *Composite) Undo(ctx context.Context) error {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		if err := c.Commands[i].Undo(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Composite) Redo(ctx context.Context) error {
	for _, cmd := range c.Commands {
		if err := cmd.Redo(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RewindsStore reports whether any member rewinds the store.
func (c *Composite) RewindsStore() bool {
	for _, cmd := range c.Commands {
		if r, ok := cmd.(Rewinder); ok && r.RewindsStore() {
			return true
		}
	}
	return false
}

// Release releases every member that holds resources.
func (c *Composite) Release(ctx context.Context) error {
	var errs []error
	for _, cmd := range c.Commands {
		if r, ok := cmd.(Releaser); ok {
			errs = append(errs, r.Release(ctx))
		}
	}
	return errors.Join(errs...)
}
