// Package store provides the embedded single-file key-value engine behind qleany.
//
// SQLite is used as an ordered map engine: every table is a two-column
// WITHOUT ROWID table (k BLOB PRIMARY KEY, v BLOB). Keys are encoded so that
// SQLite's memcmp ordering of BLOBs equals the natural key order, which gives
// ordered range scans for free.
//
// # Transactions
//
//   - Write transaction: at most one at a time per process (a mutex is taken
//     by BeginWrite and released by Commit or Rollback). Tables are created on
//     demand. All changes become visible atomically at commit.
//   - Read transaction: an MVCC snapshot (WAL mode) pinned when the
//     transaction begins. Many may run concurrently with each other and with
//     the writer. Must be ended explicitly.
//
// Neither kind of transaction observes context cancellation once started:
// an in-flight transaction runs to completion or rollback.
//
// # Persistent savepoints
//
// A savepoint is a row in __savepoints. While at least one savepoint is live
// every Insert and Remove records the pre-image of the key in __journal.
// Restoring a savepoint replays the journal backwards down to the savepoint,
// which works both inside the transaction that created it and in any later
// write transaction. Deleting the last savepoint truncates the journal.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
