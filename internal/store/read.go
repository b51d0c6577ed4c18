package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReadTxn is a snapshot read transaction.
type ReadTxn struct {
	store  *Store
	tx     *sql.Tx
	tables map[string]bool
	done   bool
}

// Writable reports false.
func (r *ReadTxn) Writable() bool {
	return false
}

// End releases the snapshot. Ending twice is a no-op.
func (r *ReadTxn) End() error {
	if r.done {
		return nil
	}
	r.done = true
	if err := r.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("end read: %w", err)
	}
	return nil
}

func (r *ReadTxn) sqlTx() (*sql.Tx, error) {
	if r.done {
		return nil, ErrTxnDone
	}
	return r.tx, nil
}

// tableExists checks the snapshot's own catalogue: a table created after the
// snapshot was taken is not visible to it.
func (r *ReadTxn) tableExists(ctx context.Context, name string) (bool, error) {
	if ok, cached := r.tables[name]; cached {
		return ok, nil
	}
	tx, err := r.sqlTx()
	if err != nil {
		return false, err
	}
	var n int
	err = tx.QueryRowContext(context.WithoutCancel(ctx),
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup table %s: %w", name, err)
	}
	r.tables[name] = n > 0
	return n > 0, nil
}

func (r *ReadTxn) ensureTable(context.Context, string) error {
	return ErrReadOnly
}

func (r *ReadTxn) recordPreImage(context.Context, string, []byte) error {
	return ErrReadOnly
}
