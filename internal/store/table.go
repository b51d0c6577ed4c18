package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// TableDefinition names a table and the codecs of its keys and values.
type TableDefinition[K, V any] struct {
	name  string
	key   KeyCodec[K]
	value ValueCodec[V]
}

// NewTableDefinition binds a table name to its codecs.
func NewTableDefinition[K, V any](name string, key KeyCodec[K], value ValueCodec[V]) TableDefinition[K, V] {
	return TableDefinition[K, V]{name: name, key: key, value: value}
}

// Name returns the table name.
func (d TableDefinition[K, V]) Name() string {
	return d.name
}

// Table is a typed handle on one table inside one transaction.
type Table[K, V any] struct {
	def TableDefinition[K, V]
	tx  Txn

	// missing is set when a read transaction opened a table that does not
	// exist in its snapshot; every read then behaves as on an empty table.
	missing bool
}

// OpenTable returns a handle on def within tx. Write transactions create the
// table when needed.
func OpenTable[K, V any](ctx context.Context, tx Txn, def TableDefinition[K, V]) (*Table[K, V], error) {
	t := &Table[K, V]{def: def, tx: tx}
	if tx.Writable() {
		if err := tx.ensureTable(ctx, def.name); err != nil {
			return nil, err
		}
		return t, nil
	}
	ok, err := tx.tableExists(ctx, def.name)
	if err != nil {
		return nil, err
	}
	t.missing = !ok
	return t, nil
}

// Name returns the table name.
func (t *Table[K, V]) Name() string {
	return t.def.name
}

// Get returns the value stored under key and whether it exists.
func (t *Table[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V
	if t.missing {
		return zero, false, nil
	}
	tx, err := t.tx.sqlTx()
	if err != nil {
		return zero, false, err
	}

	var raw []byte
	err = tx.QueryRowContext(context.WithoutCancel(ctx),
		fmt.Sprintf(`SELECT v FROM %s WHERE k = ?`, quoteIdent(t.def.name)),
		t.def.key.EncodeKey(key)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("get %s: %w", t.def.name, err)
	}

	v, err := t.def.value.DecodeValue(raw)
	if err != nil {
		return zero, false, fmt.Errorf("get %s: %w", t.def.name, err)
	}
	return v, true, nil
}

// Insert stores value under key, replacing any previous value.
func (t *Table[K, V]) Insert(ctx context.Context, key K, value V) error {
	if !t.tx.Writable() {
		return ErrReadOnly
	}
	tx, err := t.tx.sqlTx()
	if err != nil {
		return err
	}

	raw, err := t.def.value.EncodeValue(value)
	if err != nil {
		return fmt.Errorf("insert %s: %w", t.def.name, err)
	}
	k := t.def.key.EncodeKey(key)
	if err := t.tx.recordPreImage(ctx, t.def.name, k); err != nil {
		return err
	}

	_, err = tx.ExecContext(context.WithoutCancel(ctx),
		fmt.Sprintf(`INSERT OR REPLACE INTO %s (k, v) VALUES (?, ?)`, quoteIdent(t.def.name)), k, raw)
	if err != nil {
		return fmt.Errorf("insert %s: %w", t.def.name, err)
	}
	return nil
}

// Remove deletes key and reports whether it existed.
func (t *Table[K, V]) Remove(ctx context.Context, key K) (bool, error) {
	if !t.tx.Writable() {
		return false, ErrReadOnly
	}
	tx, err := t.tx.sqlTx()
	if err != nil {
		return false, err
	}

	k := t.def.key.EncodeKey(key)
	if err := t.tx.recordPreImage(ctx, t.def.name, k); err != nil {
		return false, err
	}

	res, err := tx.ExecContext(context.WithoutCancel(ctx),
		fmt.Sprintf(`DELETE FROM %s WHERE k = ?`, quoteIdent(t.def.name)), k)
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", t.def.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", t.def.name, err)
	}
	return n > 0, nil
}

// Range calls fn for each entry in ascending key order, starting at from
// (inclusive, nil for the first key) and visiting at most limit entries
// (limit <= 0 means no limit). Iteration stops when fn returns false.
//
// Rows are read fully before fn is invoked, so fn may use the same
// transaction.
func (t *Table[K, V]) Range(ctx context.Context, from *K, limit int, fn func(key K, value V) bool) error {
	if t.missing {
		return nil
	}
	tx, err := t.tx.sqlTx()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`SELECT k, v FROM %s`, quoteIdent(t.def.name))
	var args []any
	if from != nil {
		query += ` WHERE k >= ?`
		args = append(args, t.def.key.EncodeKey(*from))
	}
	query += ` ORDER BY k`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := tx.QueryContext(context.WithoutCancel(ctx), query, args...)
	if err != nil {
		return fmt.Errorf("range %s: %w", t.def.name, err)
	}

	type entry struct {
		k, v []byte
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.k, &e.v); err != nil {
			rows.Close()
			return fmt.Errorf("range %s: %w", t.def.name, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("range %s: %w", t.def.name, err)
	}
	rows.Close()

	for _, e := range entries {
		k, err := t.def.key.DecodeKey(e.k)
		if err != nil {
			return fmt.Errorf("range %s: %w", t.def.name, err)
		}
		v, err := t.def.value.DecodeValue(e.v)
		if err != nil {
			return fmt.Errorf("range %s: %w", t.def.name, err)
		}
		if !fn(k, v) {
			return nil
		}
	}
	return nil
}

// Len returns the number of entries.
func (t *Table[K, V]) Len(ctx context.Context) (int, error) {
	if t.missing {
		return 0, nil
	}
	tx, err := t.tx.sqlTx()
	if err != nil {
		return 0, err
	}
	var n int
	err = tx.QueryRowContext(context.WithoutCancel(ctx),
		fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteIdent(t.def.name))).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("len %s: %w", t.def.name, err)
	}
	return n, nil
}
