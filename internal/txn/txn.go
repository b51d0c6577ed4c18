// Package txn pairs a storage transaction with the events it produces.
//
// Events emitted during a write transaction are buffered and published to
// the hub in FIFO order only when the transaction commits. Rollback discards
// them. Restoring a savepoint discards them too and publishes a single
// DirectAccess/All/Reset event at once.
package txn

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jacquetc/qleany-sub001/internal/event"
	"github.com/jacquetc/qleany-sub001/internal/store"
)

// ErrNotWritable is returned by write-only operations on a read transaction.
var ErrNotWritable = errors.New("transaction is read-only")

// Transaction wraps one read or write storage transaction.
type Transaction struct {
	read  *store.ReadTxn
	write *store.WriteTxn

	publisher event.Publisher
	buffer    []event.Event
	logger    *zap.Logger
}

// Option configures a Transaction.
type Option func(*Transaction)

// WithLogger sets the transaction logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Transaction) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// BeginWrite opens a write transaction publishing to pub on commit.
// pub may be nil, in which case events are dropped.
func BeginWrite(ctx context.Context, st *store.Store, pub event.Publisher, opts ...Option) (*Transaction, error) {
	w, err := st.BeginWrite(ctx)
	if err != nil {
		return nil, err
	}
	t := &Transaction{write: w, publisher: pub, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// BeginRead opens a snapshot read transaction.
func BeginRead(ctx context.Context, st *store.Store, opts ...Option) (*Transaction, error) {
	r, err := st.BeginRead(ctx)
	if err != nil {
		return nil, err
	}
	t := &Transaction{read: r, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Txn returns the underlying storage transaction.
func (t *Transaction) Txn() store.Txn {
	if t.write != nil {
		return t.write
	}
	return t.read
}

// Writable reports whether this is a write transaction.
func (t *Transaction) Writable() bool {
	return t.write != nil
}

// Emit buffers e until commit. Read transactions ignore events.
func (t *Transaction) Emit(e event.Event) {
	if t.write == nil {
		return
	}
	t.buffer = append(t.buffer, e)
}

// Buffered returns a copy of the events waiting for commit.
func (t *Transaction) Buffered() []event.Event {
	out := make([]event.Event, len(t.buffer))
	copy(out, t.buffer)
	return out
}

// Commit commits the storage transaction, then publishes the buffered events.
func (t *Transaction) Commit() error {
	if t.write == nil {
		return ErrNotWritable
	}
	if err := t.write.Commit(); err != nil {
		t.buffer = nil
		return err
	}

	events := t.buffer
	t.buffer = nil
	t.publish(events...)
	t.logger.Debug("transaction committed", zap.Int("events", len(events)))
	return nil
}

// Rollback aborts the storage transaction and drops the buffered events.
func (t *Transaction) Rollback() error {
	t.buffer = nil
	if t.write == nil {
		return t.read.End()
	}
	return t.write.Rollback()
}

// End releases a read transaction. On a write transaction it rolls back.
func (t *Transaction) End() error {
	if t.read != nil {
		return t.read.End()
	}
	return t.Rollback()
}

// CreateSavepoint returns a token usable in this or any later write
// transaction.
func (t *Transaction) CreateSavepoint(ctx context.Context) (store.Savepoint, error) {
	if t.write == nil {
		return store.Savepoint{}, ErrNotWritable
	}
	return t.write.CreateSavepoint(ctx)
}

// RestoreSavepoint rewinds the store to sp. Buffered events are discarded
// and a single All/Reset event is published immediately. The transaction
// stays open.
func (t *Transaction) RestoreSavepoint(ctx context.Context, sp store.Savepoint) error {
	if t.write == nil {
		return ErrNotWritable
	}
	if err := t.write.RestoreSavepoint(ctx, sp); err != nil {
		return fmt.Errorf("restore savepoint: %w", err)
	}

	dropped := len(t.buffer)
	t.buffer = nil
	t.publish(event.Event{Origin: event.AllReset()})
	t.logger.Debug("savepoint restored", zap.Int64("savepoint", sp.ID), zap.Int("dropped_events", dropped))
	return nil
}

// DeleteSavepoint releases sp.
func (t *Transaction) DeleteSavepoint(ctx context.Context, sp store.Savepoint) error {
	if t.write == nil {
		return ErrNotWritable
	}
	return t.write.DeleteSavepoint(ctx, sp)
}

func (t *Transaction) publish(events ...event.Event) {
	if t.publisher == nil {
		return
	}
	for _, e := range events {
		t.publisher.Publish(e)
	}
}
