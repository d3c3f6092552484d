package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/txstore/internal/ir"
)

// IDGenerator produces opaque identifiers for entity sets with the
// generated key policy.
// Implemented by UUIDv7Generator (production) and FixedIDGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers.
//
// UUIDv7 embeds a timestamp in the most significant bits, so generated keys
// sort by creation time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedIDGenerator returns predetermined identifiers for testing.
//
// Thread-safety: FixedIDGenerator is safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator that returns ids in order.
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed, to catch a test that creates more
// records than it declared.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedIDGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// nextSequentialKey returns the smallest positive integer not used as the
// value of prop in set.
func nextSequentialKey(set *RecordSet, prop string) int64 {
	used := make(map[int64]bool, set.Len())
	for _, rec := range set.records {
		if v, ok := rec.Value(prop); ok {
			if n, ok := v.(ir.IRInt); ok {
				used[int64(n)] = true
			}
		}
	}
	next := int64(1)
	for used[next] {
		next++
	}
	return next
}
