package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WriteTxn is the single write transaction of the process.
type WriteTxn struct {
	store *Store
	tx    *sql.Tx

	// journaling is true while at least one savepoint is live.
	journaling bool

	// created holds tables created inside this transaction; they become
	// known to the store only on commit.
	created map[string]struct{}
	done    bool
}

// Writable reports true.
func (w *WriteTxn) Writable() bool {
	return true
}

// Commit makes every change visible atomically and releases the write lock.
func (w *WriteTxn) Commit() error {
	if w.done {
		return ErrTxnDone
	}
	err := w.tx.Commit()
	if err == nil {
		for name := range w.created {
			w.store.tables.Store(name, struct{}{})
		}
	}
	w.finish()
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback discards every change and releases the write lock.
// Rolling back a finished transaction is a no-op.
func (w *WriteTxn) Rollback() error {
	if w.done {
		return nil
	}
	err := w.tx.Rollback()
	w.finish()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func (w *WriteTxn) finish() {
	w.done = true
	w.store.writeMu.Unlock()
}

func (w *WriteTxn) sqlTx() (*sql.Tx, error) {
	if w.done {
		return nil, ErrTxnDone
	}
	return w.tx, nil
}

func (w *WriteTxn) tableExists(ctx context.Context, name string) (bool, error) {
	if _, ok := w.created[name]; ok {
		return true, nil
	}
	return w.store.knownTable(name), nil
}

func (w *WriteTxn) ensureTable(ctx context.Context, name string) error {
	if ok, _ := w.tableExists(ctx, name); ok {
		return nil
	}
	tx, err := w.sqlTx()
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (k BLOB PRIMARY KEY, v BLOB NOT NULL) WITHOUT ROWID`, quoteIdent(name))
	if _, err := tx.ExecContext(context.WithoutCancel(ctx), stmt); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	w.created[name] = struct{}{}
	return nil
}

// recordPreImage journals the current value of key before it is overwritten
// or removed. A nil old value means the key did not exist.
func (w *WriteTxn) recordPreImage(ctx context.Context, table string, key []byte) error {
	if !w.journaling {
		return nil
	}
	tx, err := w.sqlTx()
	if err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)

	var old []byte
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT v FROM %s WHERE k = ?`, quoteIdent(table)), key).Scan(&old)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("journal %s: %w", table, err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO __journal (tbl, k, old) VALUES (?, ?, ?)`, table, key, old); err != nil {
		return fmt.Errorf("journal %s: %w", table, err)
	}
	return nil
}
