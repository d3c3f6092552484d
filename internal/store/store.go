package store

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/txstore/internal/ir"
	"github.com/roach88/txstore/internal/schema"
)

// UpdateMode selects how absent fields are treated by Update.
type UpdateMode int

const (
	// Replace sets every non-key property absent from the update to null.
	Replace UpdateMode = iota

	// Merge leaves properties absent from the update untouched.
	Merge
)

func (m UpdateMode) String() string {
	if m == Merge {
		return "merge"
	}
	return "replace"
}

// Store holds one record set per entity set of a schema, plus the
// transaction controller state.
//
// Store is single-writer: it has no locks, and callers serialise access.
// Records returned by reads are the live records; treat them as read-only.
type Store struct {
	schema *schema.Schema
	sets   map[string]*RecordSet
	state  TxState
	backup map[string]*RecordSet
	ids    IDGenerator
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the structured logger. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithIDGenerator sets the identifier source for generated keys.
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) {
		s.ids = g
	}
}

// New creates an empty store with one record set per entity set in sch.
func New(sch *schema.Schema, opts ...Option) *Store {
	s := &Store{
		schema: sch,
		ids:    UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sets = emptySets(sch)
	return s
}

func emptySets(sch *schema.Schema) map[string]*RecordSet {
	sets := make(map[string]*RecordSet, len(sch.Sets))
	for _, es := range sch.Sets {
		sets[es.Name] = NewRecordSet(es.Name)
	}
	return sets
}

// Schema returns the schema the store was created with.
func (s *Store) Schema() *schema.Schema {
	return s.schema
}

// Set returns the live record set with the given name.
func (s *Store) Set(name string) (*RecordSet, error) {
	set, ok := s.sets[name]
	if !ok {
		return nil, NewNotFoundError(name, "")
	}
	return set, nil
}

// All returns the records of a set in insertion order.
func (s *Store) All(set string) ([]*ir.Record, error) {
	rs, err := s.Set(set)
	if err != nil {
		return nil, err
	}
	return rs.All(), nil
}

// ReadOne returns the record of set with the given key.
func (s *Store) ReadOne(set string, key Key) (*ir.Record, error) {
	rs, err := s.Set(set)
	if err != nil {
		return nil, err
	}
	rec, ok := rs.Get(key)
	if !ok {
		return nil, NewNotFoundError(set, key.String())
	}
	return rec, nil
}

// Create inserts a new record built from rec into set and returns it.
//
// The stored record carries every declared property in declaration order;
// properties rec does not supply are null. Keys follow the set's key policy:
// sequential sets assign the smallest free integer when the key is absent,
// generated sets always assign a fresh identifier. A supplied key that is
// already in use fails with DUPLICATE_KEY.
func (s *Store) Create(set string, rec *ir.Record) (*ir.Record, error) {
	rs, es, et, err := s.resolve(set)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &ir.Record{}
	}

	for _, f := range rec.Fields {
		if _, ok := et.Property(f.Name); !ok {
			return nil, invalidRecord(set, "type %s has no property %q", et.Name, f.Name)
		}
	}

	created := &ir.Record{
		Type:             et.Name,
		Links:            append([]*ir.Link(nil), rec.Links...),
		MediaContentType: rec.MediaContentType,
	}
	if rec.Media != nil {
		created.Media = bytes.Clone(rec.Media)
	}
	if et.Media {
		refreshMediaETag(created)
	}
	for _, p := range et.Properties {
		v, ok := rec.Value(p.Name)
		if !ok {
			v = ir.IRNull{}
		}
		created.Fields = append(created.Fields, ir.Field{
			Name:  p.Name,
			Type:  p.Type,
			Kind:  fieldKind(p.Type),
			Value: ir.CloneValue(v),
		})
	}

	key, err := s.assignKey(rs, es, et, created)
	if err != nil {
		return nil, err
	}
	if _, exists := rs.Get(key); exists {
		return nil, &StoreError{
			Code:    ErrCodeDuplicateKey,
			Message: "a record with this key already exists",
			Set:     set,
			Key:     key.String(),
		}
	}

	created.ID = fmt.Sprintf("%s(%s)", set, key)
	if err := refreshETag(created); err != nil {
		return nil, err
	}

	rs.Insert(created)
	s.logger.Debug("record created", "set", set, "id", created.ID, "tx", s.state.String())
	return created, nil
}

func (s *Store) assignKey(rs *RecordSet, es *schema.EntitySet, et *schema.EntityType, rec *ir.Record) (Key, error) {
	key := make(Key, len(et.Key))

	if es.KeyPolicy == schema.KeyGenerated {
		if len(et.Key) != 1 {
			return nil, invalidRecord(rs.name, "generated keys need a single key property, %s has %d", et.Name, len(et.Key))
		}
		v := ir.IRString(s.ids.Generate())
		rec.SetValue(et.Key[0], v)
		key[et.Key[0]] = v
		return key, nil
	}

	for _, prop := range et.Key {
		v, _ := rec.Value(prop)
		if ir.IsNull(v) {
			if len(et.Key) != 1 {
				return nil, invalidRecord(rs.name, "composite key property %q must be supplied", prop)
			}
			v = ir.IRInt(nextSequentialKey(rs, prop))
			rec.SetValue(prop, v)
		}
		key[prop] = v
	}
	return key, nil
}

// Update modifies the record of set with the given key in place.
//
// Key properties are never changed. With Replace, non-key properties the
// update does not carry become null; with Merge they are left as they are.
func (s *Store) Update(set string, key Key, update *ir.Record, mode UpdateMode) error {
	rs, _, et, err := s.resolve(set)
	if err != nil {
		return err
	}
	rec, ok := rs.Get(key)
	if !ok {
		return NewNotFoundError(set, key.String())
	}
	if update == nil {
		update = &ir.Record{}
	}

	for _, f := range update.Fields {
		if _, ok := et.Property(f.Name); !ok {
			return invalidRecord(set, "type %s has no property %q", et.Name, f.Name)
		}
	}

	for _, p := range et.Properties {
		if et.IsKey(p.Name) {
			continue
		}
		v, present := update.Value(p.Name)
		switch {
		case present:
			rec.SetValue(p.Name, ir.CloneValue(v))
		case mode == Replace:
			rec.SetValue(p.Name, ir.IRNull{})
		}
	}

	if err := refreshETag(rec); err != nil {
		return err
	}
	s.logger.Debug("record updated", "set", set, "id", rec.ID, "mode", mode.String(), "tx", s.state.String())
	return nil
}

// Delete removes the record of set with the given key.
func (s *Store) Delete(set string, key Key) error {
	rs, err := s.Set(set)
	if err != nil {
		return err
	}
	rec, ok := rs.Get(key)
	if !ok {
		return NewNotFoundError(set, key.String())
	}
	rs.Delete(rec)
	s.logger.Debug("record deleted", "set", set, "id", rec.ID, "tx", s.state.String())
	return nil
}

// UpdateMedia replaces the media payload of a media record.
func (s *Store) UpdateMedia(set string, key Key, contentType string, data []byte) error {
	rs, _, et, err := s.resolve(set)
	if err != nil {
		return err
	}
	if !et.Media {
		return invalidRecord(set, "type %s is not a media type", et.Name)
	}
	rec, ok := rs.Get(key)
	if !ok {
		return NewNotFoundError(set, key.String())
	}
	rec.MediaContentType = contentType
	rec.Media = bytes.Clone(data)
	refreshMediaETag(rec)
	s.logger.Debug("media updated", "set", set, "id", rec.ID, "bytes", len(data))
	return nil
}

// Load inserts fully formed records as-is, keeping their key values. Used to
// seed sample data; records must already carry their key properties.
func (s *Store) Load(set string, recs ...*ir.Record) error {
	rs, _, et, err := s.resolve(set)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		key := make(Key, len(et.Key))
		for _, prop := range et.Key {
			v, ok := rec.Value(prop)
			if !ok || ir.IsNull(v) {
				return invalidRecord(set, "record is missing key property %q", prop)
			}
			key[prop] = v
		}
		if _, exists := rs.Get(key); exists {
			return &StoreError{Code: ErrCodeDuplicateKey, Message: "a record with this key already exists", Set: set, Key: key.String()}
		}
		if rec.Type == "" {
			rec.Type = et.Name
		}
		if rec.ID == "" {
			rec.ID = fmt.Sprintf("%s(%s)", set, key)
		}
		if err := refreshETag(rec); err != nil {
			return err
		}
		if et.Media {
			refreshMediaETag(rec)
		}
		rs.Insert(rec)
	}
	return nil
}

// Reset empties every set. It does not touch the transaction state, so a
// reset inside a transaction is undone by Rollback.
func (s *Store) Reset() {
	s.sets = emptySets(s.schema)
	s.logger.Debug("store reset")
}

// Truncate empties a single set. Like Reset it is undone by Rollback.
func (s *Store) Truncate(set string) error {
	if _, err := s.Set(set); err != nil {
		return err
	}
	s.sets[set] = NewRecordSet(set)
	s.logger.Debug("set truncated", "set", set)
	return nil
}

// Dump renders the live state as {set: [fields...]} for comparisons and
// golden files. Links and media are omitted.
func (s *Store) Dump() ir.IRObject {
	out := make(ir.IRObject, len(s.sets))
	for name, rs := range s.sets {
		arr := make(ir.IRArray, 0, rs.Len())
		for _, rec := range rs.records {
			arr = append(arr, rec.FieldObject())
		}
		out[name] = arr
	}
	return out
}

// KeyOf extracts the key of rec according to its entity type.
func (s *Store) KeyOf(rec *ir.Record) (Key, error) {
	et, ok := s.schema.EntityType(rec.Type)
	if !ok {
		return nil, invalidRecord("", "unknown entity type %q", rec.Type)
	}
	key := make(Key, len(et.Key))
	for _, prop := range et.Key {
		v, ok := rec.Value(prop)
		if !ok {
			return nil, invalidRecord("", "record is missing key property %q", prop)
		}
		key[prop] = v
	}
	return key, nil
}

func (s *Store) resolve(set string) (*RecordSet, *schema.EntitySet, *schema.EntityType, error) {
	rs, ok := s.sets[set]
	if !ok {
		return nil, nil, nil, NewNotFoundError(set, "")
	}
	es, ok := s.schema.EntitySet(set)
	if !ok {
		return nil, nil, nil, NewNotFoundError(set, "")
	}
	et, ok := s.schema.EntityType(es.Type)
	if !ok {
		return nil, nil, nil, invalidRecord(set, "unknown entity type %q", es.Type)
	}
	return rs, es, et, nil
}

func refreshETag(rec *ir.Record) error {
	tag, err := ir.RecordETag(rec)
	if err != nil {
		return fmt.Errorf("compute etag for %s: %w", rec.ID, err)
	}
	rec.ETag = tag
	return nil
}

func fieldKind(propType string) ir.FieldKind {
	switch propType {
	case schema.TypeCollection:
		return ir.FieldCollection
	case schema.TypeComplex:
		return ir.FieldComplex
	default:
		return ir.FieldPrimitive
	}
}

func refreshMediaETag(rec *ir.Record) {
	rec.MediaETag = ir.MediaETag(rec.MediaContentType, rec.Media)
}
