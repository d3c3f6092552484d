// Package batch coordinates changesets (operations applied atomically under
// one store transaction) and mixed batches of standalone operations and
// changesets.
package batch
