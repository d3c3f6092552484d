package query

import (
	"github.com/roach88/txstore/internal/expr"
)

// Options are the query options applied to a collection read.
// Zero value applies nothing.
type Options struct {
	// Count requests the number of records before paging.
	Count bool

	// Skip drops the first n records. Nil means absent.
	Skip *int

	// Top keeps at most n records. Nil means absent.
	Top *int

	// OrderBy sorts the records. Only the first item is honoured.
	OrderBy []OrderItem

	// Filter keeps the records for which the expression is true.
	Filter expr.Node

	// Expand attaches related records. Only the first item is honoured.
	Expand []ExpandItem
}

// OrderItem sorts by a single direct property.
type OrderItem struct {
	Property   string
	Descending bool
}

// ExpandItem names a navigation to expand. Star selects the entity set's
// first navigation binding.
type ExpandItem struct {
	Navigation string
	Star       bool
}

// Int returns a pointer to n, for Skip and Top.
func Int(n int) *int {
	return &n
}
