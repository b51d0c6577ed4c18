// Package tables maps the entity model onto storage tables.
//
// Each kind K is stored in a table named after the kind, keyed by id and
// holding the scalar attributes only. Every relation field F of K lives in a
// forward junction table (owner id -> target ids) and a backward junction
// table (target id -> owner ids) kept symmetric on every write. The
// __counter table holds the next free id of every kind.
package tables
