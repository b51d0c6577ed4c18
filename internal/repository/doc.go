// Package repository is the only write path to entity records.
//
// A repository performs the table operation, buffers one DirectAccess event
// per mutating call on the transaction and returns the stored record.
// Deleting a record cascades along strong relations; deleting a missing id
// is a silent no-op.
package repository
