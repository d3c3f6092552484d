// Package query applies collection query options (count, skip, top,
// orderby, filter, expand) to records read from the store.
package query
