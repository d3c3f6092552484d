package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFieldAccess(t *testing.T) {
	r := product(3, "Ergo Screen")

	v, ok := r.Value("Name")
	require.True(t, ok)
	assert.Equal(t, IRString("Ergo Screen"), v)

	_, ok = r.Value("Missing")
	assert.False(t, ok)

	r.SetValue("Name", IRString("renamed"))
	r.SetValue("Description", IRNull{})

	assert.Equal(t, IRString("renamed"), r.Field("Name").Value)
	require.Len(t, r.Fields, 3)
	assert.Equal(t, "Description", r.Fields[2].Name)
}

func TestRecordValueNilIsNull(t *testing.T) {
	r := &Record{Fields: []Field{{Name: "X"}}}
	v, ok := r.Value("X")
	require.True(t, ok)
	assert.Equal(t, IRNull{}, v)
}

func TestRecordFieldObject(t *testing.T) {
	r := product(1, "a")
	r.Fields = append(r.Fields, Field{Name: "Description"})

	assert.Equal(t, IRObject{
		"ID":          IRInt(1),
		"Name":        IRString("a"),
		"Description": IRNull{},
	}, r.FieldObject())
}

func TestShallowCopyOwnsSlices(t *testing.T) {
	cat := &Record{Type: "Category"}
	r := product(1, "a")
	r.Links = []*Link{{Title: "Category", Inline: cat}}

	cp := r.ShallowCopy()
	cp.Links = append(cp.Links, &Link{Title: "Extra"})
	cp.Fields[0].Value = IRInt(99)

	assert.Len(t, r.Links, 1)
	assert.Equal(t, IRInt(1), r.Fields[0].Value)
	assert.Same(t, cat, cp.Link("Category").Inline)
	assert.Nil(t, r.Link("Extra"))
}
