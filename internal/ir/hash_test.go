package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id int64, name string) *Record {
	return &Record{
		Type: "Product",
		Fields: []Field{
			{Name: "ID", Type: "Edm.Int32", Kind: FieldPrimitive, Value: IRInt(id)},
			{Name: "Name", Type: "Edm.String", Kind: FieldPrimitive, Value: IRString(name)},
		},
	}
}

func TestRecordETagStable(t *testing.T) {
	a, err := RecordETag(product(1, "Notebook Basic 15"))
	require.NoError(t, err)
	b, err := RecordETag(product(1, "Notebook Basic 15"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Regexp(t, `^W/"[0-9a-f]{16}"$`, a)
}

func TestRecordETagChangesWithFields(t *testing.T) {
	a := MustRecordETag(product(1, "Notebook Basic 15"))
	b := MustRecordETag(product(1, "Notebook Basic 17"))
	assert.NotEqual(t, a, b)
}

func TestRecordETagIgnoresLinksAndID(t *testing.T) {
	r := product(1, "x")
	before := MustRecordETag(r)

	r.ID = "Products(1)"
	r.Links = []*Link{{Title: "Category", Inline: product(9, "y")}}

	assert.Equal(t, before, MustRecordETag(r))
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte("payload")
	assert.NotEqual(t, hashWithDomain(DomainRecord, data), hashWithDomain(DomainMedia, data))
	assert.Len(t, hashWithDomain(DomainRecord, data), 64)
}

func TestMediaETag(t *testing.T) {
	a := MediaETag("text/plain", []byte("Super content"))
	b := MediaETag("text/plain", []byte("Super content2"))
	c := MediaETag("image/png", []byte("Super content"))

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, MediaETag("text/plain", []byte("Super content")))
}
