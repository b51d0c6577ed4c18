package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Schema version tracking:
// 0 - Initial (empty file)
// 1 - __journal and __savepoints bookkeeping tables
const currentSchemaVersion = 1

var (
	// ErrClosed is returned when a transaction is requested on a closed store.
	ErrClosed = errors.New("store closed")
	// ErrReadOnly is returned when a read transaction is asked to write.
	ErrReadOnly = errors.New("read-only transaction")
	// ErrTxnDone is returned when a finished transaction is used again.
	ErrTxnDone = errors.New("transaction already finished")
	// ErrSavepointNotFound is returned when restoring an unknown savepoint.
	ErrSavepointNotFound = errors.New("savepoint not found")
)

// Store is one database file.
type Store struct {
	path   string
	writer *sql.DB
	reader *sql.DB

	// writeMu serialises write transactions process-wide.
	writeMu sync.Mutex
	closed  atomic.Bool

	// tables caches the names of tables known to exist on disk.
	tables sync.Map

	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open creates or opens the database at path.
// Applies required pragmas and bookkeeping tables automatically.
//
// This function is idempotent - safe to call multiple times on the same path
// as long as only one Store is open at a time.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("store")

	writer, err := sql.Open("sqlite3", dsn(path, true))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := writer.Ping(); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	writer.SetMaxOpenConns(1)
	writer.SetMaxIdleConns(1)

	if err := applyPragmas(writer); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(writer); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	reader, err := sql.Open("sqlite3", dsn(path, false))
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to open reader: %w", err)
	}
	reader.SetMaxOpenConns(8)

	s.writer = writer
	s.reader = reader

	if err := s.loadTableNames(); err != nil {
		s.Close()
		return nil, err
	}

	s.logger.Debug("store opened", zap.String("path", path))
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes both connection pools. Open transactions must be ended first.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error
	if s.reader != nil {
		errs = append(errs, s.reader.Close())
	}
	if s.writer != nil {
		errs = append(errs, s.writer.Close())
	}
	return errors.Join(errs...)
}

func dsn(path string, write bool) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_synchronous", "NORMAL")
	if write {
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates the bookkeeping tables and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 adds the savepoint journal.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS __journal (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			tbl TEXT NOT NULL,
			k   BLOB NOT NULL,
			old BLOB
		);
		CREATE TABLE IF NOT EXISTS __savepoints (
			id  INTEGER PRIMARY KEY AUTOINCREMENT,
			seq INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

func (s *Store) loadTableNames() error {
	rows, err := s.writer.Query(`SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan table name: %w", err)
		}
		s.tables.Store(name, struct{}{})
	}
	return rows.Err()
}

func (s *Store) knownTable(name string) bool {
	_, ok := s.tables.Load(name)
	return ok
}

// BeginWrite opens the single write transaction, blocking while another one
// is in progress.
func (s *Store) BeginWrite(ctx context.Context) (*WriteTxn, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	s.writeMu.Lock()

	tx, err := s.writer.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		s.writeMu.Unlock()
		return nil, fmt.Errorf("begin write: %w", err)
	}

	w := &WriteTxn{store: s, tx: tx, created: make(map[string]struct{})}
	live, err := w.liveSavepoints(ctx)
	if err != nil {
		_ = tx.Rollback()
		s.writeMu.Unlock()
		return nil, err
	}
	w.journaling = live > 0
	return w, nil
}

// BeginRead opens a snapshot read transaction.
func (s *Store) BeginRead(ctx context.Context) (*ReadTxn, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	tx, err := s.reader.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return nil, fmt.Errorf("begin read: %w", err)
	}

	// A deferred transaction takes its snapshot at the first read; pin it now.
	var n int
	if err := tx.QueryRowContext(context.WithoutCancel(ctx), `SELECT COUNT(*) FROM sqlite_master`).Scan(&n); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("begin read: pin snapshot: %w", err)
	}
	return &ReadTxn{store: s, tx: tx, tables: make(map[string]bool)}, nil
}

// Txn is either a *ReadTxn or a *WriteTxn.
type Txn interface {
	// Writable reports whether the transaction accepts writes.
	Writable() bool

	sqlTx() (*sql.Tx, error)
	tableExists(ctx context.Context, name string) (bool, error)
	ensureTable(ctx context.Context, name string) error
	recordPreImage(ctx context.Context, table string, key []byte) error
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}
