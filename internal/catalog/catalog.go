package catalog

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/roach88/txstore/internal/ir"
	"github.com/roach88/txstore/internal/schema"
	"github.com/roach88/txstore/internal/store"
)

//go:embed catalog.cue
var schemaSource string

// Entity set and navigation names of the demo catalog.
const (
	SetProducts       = "Products"
	SetCategories     = "Categories"
	SetAdvertisements = "Advertisements"

	NavCategory = "Category"
	NavProducts = "Products"

	TypeProduct       = "Product"
	TypeCategory      = "Category"
	TypeAdvertisement = "Advertisement"
)

// ErrInvalidAmount is returned for a negative reset or count amount.
var ErrInvalidAmount = errors.New("amount must not be negative")

// Schema compiles the embedded catalog schema.
func Schema() *schema.Schema {
	return schema.MustCompileString(schemaSource)
}

// SchemaSource returns the embedded CUE text.
func SchemaSource() string {
	return schemaSource
}

var products = []struct {
	name, description string
}{
	{"Notebook Basic 15", "Notebook Basic, 1.7GHz - 15 XGA - 1024MB DDR2 SDRAM - 40GB"},
	{"Notebook Professional 17", "Notebook Professional, 2.8GHz - 15 XGA - 8GB DDR3 RAM - 500GB"},
	{"1UMTS PDA", "Ultrafast 3G UMTS/HSDPA Pocket PC, supports GSM network"},
	{"Comfort Easy", "32 GB Digital Assitant with high-resolution color screen"},
	{"Ergo Screen", "19 Optimum Resolution 1024 x 768 @ 85Hz, resolution 1280 x 960"},
	{"Flat Basic", "Optimum Hi-Resolution max. 1600 x 1200 @ 85Hz, Dot Pitch: 0.24mm"},
}

var categories = []string{"Notebooks", "Organizers", "Monitors"}

var advertisements = []struct {
	id, name, airDate, content string
}{
	{"f89dee73-af9f-4cd4-b330-db93c25ff3c7", "Old School Lemonade Store, Retro Style", "2012-11-07T00:00:00Z", "Super content"},
	{"db2d2186-1c29-4d1e-88ef-a127f521b9c67", "Early morning start, need coffee", "2000-02-29T00:00:00Z", "Super content2"},
}

// Products returns fresh copies of the sample products.
func Products() []*ir.Record {
	out := make([]*ir.Record, len(products))
	for i, p := range products {
		rec := &ir.Record{Type: TypeProduct}
		rec.SetValue("ID", ir.IRInt(i+1))
		rec.SetValue("Name", ir.IRString(p.name))
		rec.SetValue("Description", ir.IRString(p.description))
		out[i] = rec
	}
	return out
}

// Categories returns fresh copies of the sample categories.
func Categories() []*ir.Record {
	out := make([]*ir.Record, len(categories))
	for i, name := range categories {
		rec := &ir.Record{Type: TypeCategory}
		rec.SetValue("ID", ir.IRInt(i+1))
		rec.SetValue("Name", ir.IRString(name))
		out[i] = rec
	}
	return out
}

// Advertisements returns fresh copies of the sample media records.
func Advertisements() []*ir.Record {
	out := make([]*ir.Record, len(advertisements))
	for i, a := range advertisements {
		rec := &ir.Record{
			Type:             TypeAdvertisement,
			MediaContentType: "text/plain",
			Media:            []byte(a.content),
		}
		rec.SetValue("ID", ir.IRString(a.id))
		rec.SetValue("Name", ir.IRString(a.name))
		rec.SetValue("AirDate", ir.IRString(a.airDate))
		out[i] = rec
	}
	return out
}

// Seed replaces the whole store content with the sample data.
func Seed(s *store.Store) error {
	s.Reset()
	if err := s.Load(SetAdvertisements, Advertisements()...); err != nil {
		return fmt.Errorf("seed %s: %w", SetAdvertisements, err)
	}
	return ResetDataSet(s, len(products))
}

// ResetDataSet rebuilds products and categories from the sample data and
// keeps the first amount products together with the categories they belong
// to. Advertisements are left alone.
func ResetDataSet(s *store.Store, amount int) error {
	if amount < 0 {
		return ErrInvalidAmount
	}

	prods, cats := Products(), Categories()
	if amount < len(prods) {
		prods = prods[:amount]
		cats = cats[:(amount+1)/2]
	}

	for set, recs := range map[string][]*ir.Record{SetProducts: prods, SetCategories: cats} {
		if err := s.Truncate(set); err != nil {
			return fmt.Errorf("reset %s: %w", set, err)
		}
		if err := s.Load(set, recs...); err != nil {
			return fmt.Errorf("reset %s: %w", set, err)
		}
	}
	return nil
}
