package catalog

import (
	"fmt"

	"github.com/roach88/txstore/internal/ir"
	"github.com/roach88/txstore/internal/store"
)

// Resolver relates products and categories of the live store. Products
// 2n-1 and 2n belong to category n.
type Resolver struct {
	store *store.Store
}

// NewResolver creates a resolver reading from s.
func NewResolver(s *store.Store) *Resolver {
	return &Resolver{store: s}
}

// Related implements query.NavigationResolver. Records whose key is not an
// integer, and pairs of types the catalog does not relate, have no related
// records.
func (r *Resolver) Related(source *ir.Record, targetType string) ([]*ir.Record, error) {
	v, _ := source.Value("ID")
	id, ok := v.(ir.IRInt)
	if !ok {
		return nil, nil
	}

	switch {
	case source.Type == TypeProduct && targetType == TypeCategory:
		return r.lookup(SetCategories, (int64(id)+1)/2)
	case source.Type == TypeCategory && targetType == TypeProduct:
		return r.lookup(SetProducts, 2*int64(id)-1, 2*int64(id))
	}
	return nil, nil
}

func (r *Resolver) lookup(set string, ids ...int64) ([]*ir.Record, error) {
	var out []*ir.Record
	for _, id := range ids {
		rec, err := r.store.ReadOne(set, store.IntKey("ID", id))
		if store.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve %s(%d): %w", set, id, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// CountCategories returns the categories that have exactly amount related
// products.
func CountCategories(s *store.Store, amount int) ([]*ir.Record, error) {
	if amount < 0 {
		return nil, ErrInvalidAmount
	}
	cats, err := s.All(SetCategories)
	if err != nil {
		return nil, err
	}

	r := NewResolver(s)
	var out []*ir.Record
	for _, c := range cats {
		related, err := r.Related(c, TypeProduct)
		if err != nil {
			return nil, err
		}
		if len(related) == amount {
			out = append(out, c)
		}
	}
	return out, nil
}
