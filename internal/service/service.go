package service

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/txstore/internal/batch"
	"github.com/roach88/txstore/internal/catalog"
	"github.com/roach88/txstore/internal/ir"
	"github.com/roach88/txstore/internal/query"
	"github.com/roach88/txstore/internal/schema"
	"github.com/roach88/txstore/internal/store"
)

// Service is the host-facing API over one store: record CRUD, collection
// reads through the query pipeline, explicit transactions, changesets and
// batches, media payloads and the catalog actions.
type Service struct {
	schema   *schema.Schema
	store    *store.Store
	pipeline *query.Pipeline
	batch    *batch.Coordinator
	resolver query.NavigationResolver
	logger   *slog.Logger
}

type options struct {
	logger   *slog.Logger
	ids      store.IDGenerator
	resolver func(*store.Store) query.NavigationResolver
}

// Option configures a Service.
type Option func(*options)

// WithLogger sets the structured logger shared by the service and the
// components it creates. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithIDGenerator sets the identifier source for generated keys.
func WithIDGenerator(g store.IDGenerator) Option {
	return func(o *options) {
		o.ids = g
	}
}

// WithResolver sets the navigation resolver, built over the service's store.
func WithResolver(fn func(*store.Store) query.NavigationResolver) Option {
	return func(o *options) {
		o.resolver = fn
	}
}

// New creates a service with an empty store over sch.
func New(sch *schema.Schema, opts ...Option) *Service {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	storeOpts := []store.Option{store.WithLogger(o.logger)}
	if o.ids != nil {
		storeOpts = append(storeOpts, store.WithIDGenerator(o.ids))
	}
	st := store.New(sch, storeOpts...)

	var resolver query.NavigationResolver
	if o.resolver != nil {
		resolver = o.resolver(st)
	}

	return &Service{
		schema:   sch,
		store:    st,
		pipeline: query.New(sch, resolver, query.WithLogger(o.logger)),
		batch:    batch.New(st, batch.WithLogger(o.logger)),
		resolver: resolver,
		logger:   o.logger,
	}
}

// NewCatalog creates a service over the demo catalog, seeded with its
// sample data and wired to the catalog resolver.
func NewCatalog(opts ...Option) (*Service, error) {
	opts = append([]Option{WithResolver(func(s *store.Store) query.NavigationResolver {
		return catalog.NewResolver(s)
	})}, opts...)
	svc := New(catalog.Schema(), opts...)
	if err := catalog.Seed(svc.store); err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	return svc, nil
}

// Schema returns the service schema.
func (s *Service) Schema() *schema.Schema {
	return s.schema
}

// Store returns the underlying store.
func (s *Service) Store() *store.Store {
	return s.store
}

// ReadSet reads a whole entity set with opts applied.
func (s *Service) ReadSet(set string, opts query.Options) (*query.Result, error) {
	recs, err := s.store.All(set)
	if err != nil {
		return nil, err
	}
	res, err := s.pipeline.Apply(set, recs, opts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", set, err)
	}
	return res, nil
}

// ReadRelated follows navigation from the record of set with key. A
// collection navigation yields the related records with opts applied; a
// single-valued one yields its target, or NOT_FOUND when there is none.
func (s *Service) ReadRelated(set string, key store.Key, navigation string, opts query.Options) (*query.Result, error) {
	src, err := s.store.ReadOne(set, key)
	if err != nil {
		return nil, err
	}
	nav, ok := s.schema.Navigation(set, navigation)
	if !ok {
		return nil, &store.StoreError{Code: store.ErrCodeNotFound, Message: fmt.Sprintf("no navigation %q", navigation), Set: set}
	}
	if s.resolver == nil {
		return nil, &query.OptionError{Option: "navigation", Message: "no navigation resolver configured"}
	}

	related, err := s.resolver.Related(src, nav.Target)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", src.ID, navigation, err)
	}

	target, ok := s.schema.RelatedSet(set, navigation)
	if !ok {
		target, _ = s.schema.SetForType(nav.Target)
	}

	if !nav.Collection {
		if len(related) == 0 {
			return nil, store.NewNotFoundError(target, src.ID+"/"+navigation)
		}
		return &query.Result{Records: related[:1]}, nil
	}

	res, err := s.pipeline.Apply(target, related, opts)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", src.ID, navigation, err)
	}
	return res, nil
}

// ReadOne reads a single record.
func (s *Service) ReadOne(set string, key store.Key) (*ir.Record, error) {
	return s.store.ReadOne(set, key)
}

// Create inserts rec into set.
func (s *Service) Create(set string, rec *ir.Record) (*ir.Record, error) {
	return s.store.Create(set, rec)
}

// Update modifies a record in Replace or Merge mode.
func (s *Service) Update(set string, key store.Key, rec *ir.Record, mode store.UpdateMode) error {
	return s.store.Update(set, key, rec, mode)
}

// Delete removes a record.
func (s *Service) Delete(set string, key store.Key) error {
	return s.store.Delete(set, key)
}

// BeginTransaction snapshots the store.
func (s *Service) BeginTransaction() error {
	return s.store.Begin()
}

// CommitTransaction keeps every change since BeginTransaction.
func (s *Service) CommitTransaction() error {
	return s.store.Commit()
}

// RollbackTransaction restores the store to its state at BeginTransaction.
func (s *Service) RollbackTransaction() error {
	return s.store.Rollback()
}

// RunChangeSet runs ops atomically.
func (s *Service) RunChangeSet(ops []batch.Operation) (*batch.ChangeSetResult, error) {
	return s.batch.RunChangeSet(ops)
}

// RunBatch runs a mixed batch of standalone operations and changesets.
func (s *Service) RunBatch(parts []batch.Part) []batch.PartResult {
	return s.batch.RunBatch(parts)
}

// CreateMedia inserts a media record carrying data. Declared properties
// other than the key start out null.
func (s *Service) CreateMedia(set, contentType string, data []byte) (*ir.Record, error) {
	if err := s.requireMedia(set); err != nil {
		return nil, err
	}
	return s.store.Create(set, &ir.Record{MediaContentType: contentType, Media: data})
}

// ReadMedia returns the content type and a copy of the payload of a media
// record.
func (s *Service) ReadMedia(set string, key store.Key) (string, []byte, error) {
	if err := s.requireMedia(set); err != nil {
		return "", nil, err
	}
	rec, err := s.store.ReadOne(set, key)
	if err != nil {
		return "", nil, err
	}
	return rec.MediaContentType, bytes.Clone(rec.Media), nil
}

// UpdateMedia replaces the payload of a media record.
func (s *Service) UpdateMedia(set string, key store.Key, contentType string, data []byte) error {
	return s.store.UpdateMedia(set, key, contentType, data)
}

func (s *Service) requireMedia(set string) error {
	et, ok := s.schema.TypeOfSet(set)
	if !ok {
		return store.NewNotFoundError(set, "")
	}
	if !et.Media {
		return &store.StoreError{Code: store.ErrCodeInvalidRecord, Message: fmt.Sprintf("type %s is not a media type", et.Name), Set: set}
	}
	return nil
}

// ResetDataSet rebuilds the catalog sample data, keeping amount products.
func (s *Service) ResetDataSet(amount int) error {
	if err := catalog.ResetDataSet(s.store, amount); err != nil {
		return fmt.Errorf("reset data set: %w", err)
	}
	s.logger.Info("data set reset", "amount", amount)
	return nil
}

// CountCategories returns the categories with exactly amount products.
func (s *Service) CountCategories(amount int) ([]*ir.Record, error) {
	cats, err := catalog.CountCategories(s.store, amount)
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	return cats, nil
}
