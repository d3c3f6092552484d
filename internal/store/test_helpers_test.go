package store

import (
	"testing"

	"github.com/roach88/txstore/internal/ir"
	"github.com/roach88/txstore/internal/schema"
)

const testSchema = `
entityType: Product: {
	key: ["ID"]
	properties: {ID: int, Name: string, Description: string}
	navigation: Category: {type: "Category"}
}
entityType: Category: {
	key: ["ID"]
	properties: {ID: int, Name: string}
	navigation: Products: {type: "Product", collection: true}
}
entityType: Note: {
	key: ["ID"]
	properties: {ID: string, Text: string, Tags: [...string]}
}
entityType: Advertisement: {
	key: ["ID"]
	properties: {ID: int, Name: string}
	media: true
}
entitySet: Products: {type: "Product", bindings: Category: "Categories"}
entitySet: Categories: {type: "Category", bindings: Products: "Products"}
entitySet: Notes: {type: "Note", keyPolicy: "generated"}
entitySet: Advertisements: type: "Advertisement"
`

// createTestStore creates an empty store over the test schema.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	sch, err := schema.CompileString(testSchema)
	if err != nil {
		t.Fatalf("CompileString() failed: %v", err)
	}
	if errs := schema.Validate(sch); len(errs) > 0 {
		t.Fatalf("Validate() failed: %v", errs)
	}
	return New(sch, opts...)
}

// fields builds a record carrying only primitive field values.
func fields(kv ...any) *ir.Record {
	rec := &ir.Record{}
	for i := 0; i+1 < len(kv); i += 2 {
		v, err := ir.FromAny(kv[i+1])
		if err != nil {
			panic(err)
		}
		rec.SetValue(kv[i].(string), v)
	}
	return rec
}

// seedLinked creates two categories and three products linked both ways:
// products 1-2 belong to category 1, product 3 to category 2.
func seedLinked(t *testing.T, s *Store) {
	t.Helper()

	var cats []*ir.Record
	for _, name := range []string{"Notebooks", "Organizers"} {
		c, err := s.Create("Categories", fields("Name", name))
		if err != nil {
			t.Fatalf("Create(Categories) failed: %v", err)
		}
		cats = append(cats, c)
	}

	for i, name := range []string{"Notebook Basic 15", "Notebook Professional 17", "1UMTS PDA"} {
		p, err := s.Create("Products", fields("Name", name))
		if err != nil {
			t.Fatalf("Create(Products) failed: %v", err)
		}
		cat := cats[0]
		if i == 2 {
			cat = cats[1]
		}
		p.Links = append(p.Links, &ir.Link{Title: "Category", Inline: cat})

		products := cat.Link("Products")
		if products == nil {
			products = &ir.Link{Title: "Products", InlineSet: &ir.InlineSet{}}
			cat.Links = append(cat.Links, products)
		}
		products.InlineSet.Records = append(products.InlineSet.Records, p)
	}
}

func mustCreate(t *testing.T, s *Store, set string, rec *ir.Record) *ir.Record {
	t.Helper()
	created, err := s.Create(set, rec)
	if err != nil {
		t.Fatalf("Create(%s) failed: %v", set, err)
	}
	return created
}
