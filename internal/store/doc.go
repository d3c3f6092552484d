// Package store provides the in-memory record sets and the transaction
// controller.
//
// A Store keeps one RecordSet per entity set of its schema. Writes apply to
// the live state directly. Begin takes a deep snapshot (see Snapshot),
// Commit discards it, and Rollback swaps it back in wholesale.
//
// Only one transaction can be active at a time; a second Begin fails with
// TRANSACTION_CONFLICT rather than queueing. There is no locking: a Store is
// owned by a single writer.
package store
