// Package catalog is the demo domain: a CUE schema with products,
// categories and media advertisements, its sample data, and the navigation
// resolver between products and categories.
package catalog
