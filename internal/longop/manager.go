package longop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jacquetc/qleany-sub001/internal/event"
)

// ErrUnknownOperation is returned for an id the manager never issued or
// already forgot.
var ErrUnknownOperation = errors.New("unknown operation")

// ErrNotFinished is returned by Result while the operation is running.
var ErrNotFinished = errors.New("operation still running")

// Manager starts and tracks long operations.
type Manager struct {
	mu  sync.Mutex
	ops map[string]*operation
	wg  sync.WaitGroup

	newID     func() string
	now       func() time.Time
	publisher event.Publisher
	logger    *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithIDGenerator replaces uuid.NewString.
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) {
		if gen != nil {
			m.newID = gen
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithPublisher publishes LongOperation/Progress and LongOperation/Finished
// events with the operation id in Data.
func WithPublisher(pub event.Publisher) Option {
	return func(m *Manager) {
		m.publisher = pub
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager returns an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		ops:    make(map[string]*operation),
		newID:  uuid.NewString,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("longop")
	return m
}

// Start runs fn on a new goroutine and returns its id. ctx bounds the
// operation; Cancel cancels it early.
func (m *Manager) Start(ctx context.Context, name string, fn Func) string {
	opCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	op := &operation{
		id:        m.newID(),
		name:      name,
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    StatusRunning,
		startedAt: m.now(),
	}
	op.onProgress = func(p Progress) {
		m.publish(event.Progress, op.id)
	}

	m.mu.Lock()
	m.ops[op.id] = op
	m.mu.Unlock()

	// The caller's cancellation cancels the operation too.
	stop := context.AfterFunc(ctx, op.requestCancel)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer stop()
		defer cancel()

		result, err := m.run(opCtx, op, fn)
		status := op.finish(result, err, m.now())

		fields := []zap.Field{zap.String("id", op.id), zap.String("name", name), zap.String("status", string(status))}
		if status == StatusFailed {
			m.logger.Warn("operation failed", append(fields, zap.Error(err))...)
		} else {
			m.logger.Debug("operation finished", fields...)
		}
		m.publish(event.Finished, op.id)
		close(op.done)
	}()

	m.logger.Debug("operation started", zap.String("id", op.id), zap.String("name", name))
	return op.id
}

func (m *Manager) run(ctx context.Context, op *operation, fn Func) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("operation %s panicked: %v", op.name, r)
		}
	}()
	return fn(ctx, op)
}

func (m *Manager) get(id string) (*operation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.ops[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownOperation)
	}
	return op, nil
}

// Status returns the status of id.
func (m *Manager) Status(id string) (Status, error) {
	op, err := m.get(id)
	if err != nil {
		return "", err
	}
	return op.snapshot().Status, nil
}

// Progress returns the last progress reported by id.
func (m *Manager) Progress(id string) (Progress, error) {
	op, err := m.get(id)
	if err != nil {
		return Progress{}, err
	}
	return op.snapshot().Progress, nil
}

// Snapshot returns a view of id.
func (m *Manager) Snapshot(id string) (Snapshot, error) {
	op, err := m.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return op.snapshot(), nil
}

// Cancel asks id to stop. Cancelling a finished operation is a no-op.
func (m *Manager) Cancel(id string) error {
	op, err := m.get(id)
	if err != nil {
		return err
	}
	if !op.snapshot().Status.Terminal() {
		op.requestCancel()
	}
	return nil
}

// Result returns the value produced by a completed operation. A failed
// operation returns its error; a cancelled one returns its partial value
// with ErrCancelled.
func (m *Manager) Result(id string) (any, error) {
	op, err := m.get(id)
	if err != nil {
		return nil, err
	}
	op.mu.RLock()
	defer op.mu.RUnlock()
	switch op.status {
	case StatusRunning:
		return nil, ErrNotFinished
	case StatusCancelled:
		return op.result, ErrCancelled
	case StatusFailed:
		return nil, op.err
	}
	return op.result, nil
}

// Wait blocks until id stops or ctx is done and returns its final status.
func (m *Manager) Wait(ctx context.Context, id string) (Status, error) {
	op, err := m.get(id)
	if err != nil {
		return "", err
	}
	select {
	case <-op.done:
		return op.snapshot().Status, nil
	case <-ctx.Done():
		return StatusRunning, ctx.Err()
	}
}

// Forget drops a finished operation from the registry.
func (m *Manager) Forget(id string) error {
	op, err := m.get(id)
	if err != nil {
		return err
	}
	if !op.snapshot().Status.Terminal() {
		return fmt.Errorf("forget %s: %w", id, ErrNotFinished)
	}
	m.mu.Lock()
	delete(m.ops, id)
	m.mu.Unlock()
	return nil
}

// List returns a snapshot of every tracked operation.
func (m *Manager) List() []Snapshot {
	m.mu.Lock()
	ops := make([]*operation, 0, len(m.ops))
	for _, op := range m.ops {
		ops = append(ops, op)
	}
	m.mu.Unlock()

	out := make([]Snapshot, len(ops))
	for i, op := range ops {
		out[i] = op.snapshot()
	}
	return out
}

// Shutdown cancels every running operation and waits for all of them.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	for _, op := range m.ops {
		if !op.snapshot().Status.Terminal() {
			op.requestCancel()
		}
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) publish(action event.Action, id string) {
	if m.publisher == nil {
		return
	}
	m.publisher.Publish(event.Event{Origin: event.LongOperation(action), Data: id})
}
