package uow

import (
	"context"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"github.com/jacquetc/qleany-sub001/internal/event"
	"github.com/jacquetc/qleany-sub001/internal/store"
	"github.com/jacquetc/qleany-sub001/internal/txn"
)

// UnitOfWork is implemented by *Query and *Command.
type UnitOfWork interface {
	Capabilities() Capabilities
	transaction() *txn.Transaction
}

// Factory opens units of work on one store.
type Factory struct {
	store     *store.Store
	publisher event.Publisher
	logger    *zap.Logger
}

// NewFactory returns a factory publishing committed events to pub.
func NewFactory(st *store.Store, pub event.Publisher, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{store: st, publisher: pub, logger: logger.Named("uow")}
}

// Store returns the underlying store.
func (f *Factory) Store() *store.Store {
	return f.store
}

// Publisher returns the event publisher.
func (f *Factory) Publisher() event.Publisher {
	return f.publisher
}

// Query opens a read-only unit of work. caps may only hold read capabilities.
func (f *Factory) Query(ctx context.Context, caps Capabilities) (*Query, error) {
	for c := range caps.Iter() {
		if c.writes() {
			return nil, fmt.Errorf("query unit of work declares %s: %w", c, ErrCapabilityDenied)
		}
	}
	tx, err := txn.BeginRead(ctx, f.store, txn.WithLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("begin query: %w", err)
	}
	return &Query{tx: tx, caps: frozen(caps)}, nil
}

// Command opens a read-write unit of work.
func (f *Factory) Command(ctx context.Context, caps Capabilities) (*Command, error) {
	tx, err := txn.BeginWrite(ctx, f.store, f.publisher, txn.WithLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("begin command: %w", err)
	}
	f.logger.Debug("command opened", zap.String("capabilities", Describe(caps)))
	return &Command{tx: tx, caps: frozen(caps)}, nil
}

func frozen(caps Capabilities) Capabilities {
	if caps == nil {
		return mapset.NewThreadUnsafeSet[Capability]()
	}
	return caps.Clone()
}

// Query is a read-only unit of work. End must be called.
type Query struct {
	tx   *txn.Transaction
	caps Capabilities
}

// Capabilities returns the declared capability set.
func (q *Query) Capabilities() Capabilities {
	return q.caps
}

func (q *Query) transaction() *txn.Transaction {
	return q.tx
}

// End releases the snapshot.
func (q *Query) End() error {
	return q.tx.End()
}

// Command is a read-write unit of work. It must be committed or rolled back.
type Command struct {
	tx   *txn.Transaction
	caps Capabilities
	done bool
}

// Capabilities returns the declared capability set.
func (c *Command) Capabilities() Capabilities {
	return c.caps
}

func (c *Command) transaction() *txn.Transaction {
	return c.tx
}

// Commit commits and publishes the buffered events.
func (c *Command) Commit() error {
	c.done = true
	return c.tx.Commit()
}

// Rollback aborts the unit of work. Safe after Commit.
func (c *Command) Rollback() error {
	if c.done {
		return nil
	}
	c.done = true
	return c.tx.Rollback()
}

// CreateSavepoint returns a token usable by this or a later command.
func (c *Command) CreateSavepoint(ctx context.Context) (store.Savepoint, error) {
	return c.tx.CreateSavepoint(ctx)
}

// RestoreSavepoint rewinds to sp, drops buffered events and publishes one
// All/Reset event. The unit of work stays usable.
func (c *Command) RestoreSavepoint(ctx context.Context, sp store.Savepoint) error {
	return c.tx.RestoreSavepoint(ctx, sp)
}

// DeleteSavepoint releases sp.
func (c *Command) DeleteSavepoint(ctx context.Context, sp store.Savepoint) error {
	return c.tx.DeleteSavepoint(ctx, sp)
}
