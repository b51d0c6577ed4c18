package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Savepoint identifies a persisted database state that a later write
// transaction can return to.
type Savepoint struct {
	ID  int64
	Seq int64
}

// CreateSavepoint records the current state and starts journaling.
func (w *WriteTxn) CreateSavepoint(ctx context.Context) (Savepoint, error) {
	tx, err := w.sqlTx()
	if err != nil {
		return Savepoint{}, err
	}
	ctx = context.WithoutCancel(ctx)

	seq, err := journalHead(ctx, tx)
	if err != nil {
		return Savepoint{}, fmt.Errorf("create savepoint: %w", err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO __savepoints (seq) VALUES (?)`, seq)
	if err != nil {
		return Savepoint{}, fmt.Errorf("create savepoint: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Savepoint{}, fmt.Errorf("create savepoint: %w", err)
	}

	w.journaling = true
	return Savepoint{ID: id, Seq: seq}, nil
}

// RestoreSavepoint rewinds every table to the state recorded by sp.
//
// The journal is replayed newest-first down to the savepoint. Savepoints
// created after sp are dropped; sp itself stays live.
func (w *WriteTxn) RestoreSavepoint(ctx context.Context, sp Savepoint) error {
	tx, err := w.sqlTx()
	if err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)

	if err := requireSavepoint(ctx, tx, sp); err != nil {
		return err
	}

	rows, err := tx.QueryContext(ctx, `SELECT tbl, k, old FROM __journal WHERE seq > ? ORDER BY seq DESC`, sp.Seq)
	if err != nil {
		return fmt.Errorf("restore savepoint: %w", err)
	}
	type preImage struct {
		table string
		key   []byte
		old   []byte
	}
	var images []preImage
	for rows.Next() {
		var p preImage
		if err := rows.Scan(&p.table, &p.key, &p.old); err != nil {
			rows.Close()
			return fmt.Errorf("restore savepoint: %w", err)
		}
		images = append(images, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("restore savepoint: %w", err)
	}
	rows.Close()

	for _, p := range images {
		if p.old == nil {
			_, err = tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE k = ?`, quoteIdent(p.table)), p.key)
		} else {
			_, err = tx.ExecContext(ctx, fmt.Sprintf(`INSERT OR REPLACE INTO %s (k, v) VALUES (?, ?)`, quoteIdent(p.table)), p.key, p.old)
		}
		if err != nil {
			return fmt.Errorf("restore savepoint: replay %s: %w", p.table, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM __journal WHERE seq > ?`, sp.Seq); err != nil {
		return fmt.Errorf("restore savepoint: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM __savepoints WHERE seq > ?`, sp.Seq); err != nil {
		return fmt.Errorf("restore savepoint: %w", err)
	}
	return nil
}

// DeleteSavepoint releases sp. Journal entries no longer needed by any live
// savepoint are discarded. Deleting an unknown savepoint is a no-op.
func (w *WriteTxn) DeleteSavepoint(ctx context.Context, sp Savepoint) error {
	tx, err := w.sqlTx()
	if err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)

	if _, err := tx.ExecContext(ctx, `DELETE FROM __savepoints WHERE id = ?`, sp.ID); err != nil {
		return fmt.Errorf("delete savepoint: %w", err)
	}

	var oldest sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MIN(seq) FROM __savepoints`).Scan(&oldest); err != nil {
		return fmt.Errorf("delete savepoint: %w", err)
	}
	if !oldest.Valid {
		if _, err := tx.ExecContext(ctx, `DELETE FROM __journal`); err != nil {
			return fmt.Errorf("delete savepoint: %w", err)
		}
		w.journaling = false
		return nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM __journal WHERE seq <= ?`, oldest.Int64); err != nil {
		return fmt.Errorf("delete savepoint: %w", err)
	}
	return nil
}

// Savepoints returns the live savepoints, oldest first.
func (w *WriteTxn) Savepoints(ctx context.Context) ([]Savepoint, error) {
	tx, err := w.sqlTx()
	if err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(context.WithoutCancel(ctx), `SELECT id, seq FROM __savepoints ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list savepoints: %w", err)
	}
	defer rows.Close()

	var out []Savepoint
	for rows.Next() {
		var sp Savepoint
		if err := rows.Scan(&sp.ID, &sp.Seq); err != nil {
			return nil, fmt.Errorf("list savepoints: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (w *WriteTxn) liveSavepoints(ctx context.Context) (int, error) {
	var n int
	if err := w.tx.QueryRowContext(context.WithoutCancel(ctx), `SELECT COUNT(*) FROM __savepoints`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count savepoints: %w", err)
	}
	return n, nil
}

// journalHead returns the sequence number of the newest journal entry ever
// written, or 0.
func journalHead(ctx context.Context, tx *sql.Tx) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx, `SELECT seq FROM sqlite_sequence WHERE name = '__journal'`).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return seq, nil
}

func requireSavepoint(ctx context.Context, tx *sql.Tx, sp Savepoint) error {
	var seq int64
	err := tx.QueryRowContext(ctx, `SELECT seq FROM __savepoints WHERE id = ?`, sp.ID).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("restore savepoint %d: %w", sp.ID, ErrSavepointNotFound)
	}
	if err != nil {
		return fmt.Errorf("restore savepoint %d: %w", sp.ID, err)
	}
	if seq != sp.Seq {
		return fmt.Errorf("restore savepoint %d: %w", sp.ID, ErrSavepointNotFound)
	}
	return nil
}
