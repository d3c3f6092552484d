package store

import (
	"slices"
	"strings"

	"github.com/roach88/txstore/internal/ir"
)

// Key identifies a record within its set by key property values.
type Key map[string]ir.IRValue

// IntKey builds the key of a record with a single integer key property.
func IntKey(prop string, v int64) Key {
	return Key{prop: ir.IRInt(v)}
}

// StringKey builds the key of a record with a single string key property.
func StringKey(prop, v string) Key {
	return Key{prop: ir.IRString(v)}
}

// String renders the key in predicate form: a single value as its literal
// ("1", "'abc'"), composite keys as "A=1,B='x'" in property-name order.
func (k Key) String() string {
	if len(k) == 1 {
		for _, v := range k {
			return ir.Literal(v)
		}
	}
	names := make([]string, 0, len(k))
	for name := range k {
		names = append(names, name)
	}
	slices.Sort(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + ir.Literal(k[name])
	}
	return strings.Join(parts, ",")
}

// RecordSet is an ordered collection of records of one entity type.
// Records are kept in insertion order.
type RecordSet struct {
	name    string
	records []*ir.Record
}

// NewRecordSet creates an empty set.
func NewRecordSet(name string) *RecordSet {
	return &RecordSet{name: name}
}

// Name returns the entity set name.
func (s *RecordSet) Name() string {
	return s.name
}

// Get finds the record whose key fields all equal key. Linear scan.
func (s *RecordSet) Get(key Key) (*ir.Record, bool) {
	for _, rec := range s.records {
		if matchesKey(rec, key) {
			return rec, true
		}
	}
	return nil, false
}

// Insert appends rec. Key uniqueness is the caller's concern.
func (s *RecordSet) Insert(rec *ir.Record) {
	s.records = append(s.records, rec)
}

// Delete removes rec by identity. Returns false if rec is not in the set.
func (s *RecordSet) Delete(rec *ir.Record) bool {
	for i, r := range s.records {
		if r == rec {
			s.records = slices.Delete(s.records, i, i+1)
			return true
		}
	}
	return false
}

// All returns the records in insertion order. The returned slice is a copy;
// the records are not.
func (s *RecordSet) All() []*ir.Record {
	return slices.Clone(s.records)
}

// Len returns the number of records.
func (s *RecordSet) Len() int {
	return len(s.records)
}

func matchesKey(rec *ir.Record, key Key) bool {
	if len(key) == 0 {
		return false
	}
	for name, want := range key {
		got, ok := rec.Value(name)
		if !ok || !ir.Equal(got, want) {
			return false
		}
	}
	return true
}
