// Package model defines the normalised object graph persisted by the store.
//
// Every domain object is a record identified by an EntityID and tagged with
// a Kind. Scalar attributes are serialised with the record itself; relation
// attributes (lists of ids, or single ids) are never serialised with the
// record and live in junction tables instead, so that both directions of a
// relationship can be scanned without decoding records.
//
// The relation schema is static and described by Relations. Strong relations
// imply ownership and cascade delete; weak relations are plain references.
package model
