package ir

// FieldKind distinguishes how a field's value is shaped.
type FieldKind string

const (
	FieldPrimitive  FieldKind = "primitive"
	FieldCollection FieldKind = "collection"
	FieldComplex    FieldKind = "complex"
)

// Field is a named, typed value on a record.
//
// Type is the declared schema type name (for example "Edm.Int32" or
// "Edm.String"); it is informational and carried through copies untouched.
type Field struct {
	Name  string    `json:"name"`
	Type  string    `json:"type,omitempty"`
	Kind  FieldKind `json:"kind"`
	Value IRValue   `json:"value"`
}

// Record is a typed entity: an ordered list of fields, outgoing navigation
// links, and an optional media payload.
//
// Records are owned by exactly one RecordSet. Navigation links point at other
// records by reference, so the record graph may contain cycles.
type Record struct {
	// Type is the entity type name from the schema.
	Type string `json:"type"`

	// ID is the canonical identifier, e.g. "Products(1)".
	ID string `json:"id,omitempty"`

	// ETag is a content hash of the field values, refreshed on write.
	ETag string `json:"etag,omitempty"`

	Fields []Field  `json:"fields"`
	Links  []*Link  `json:"links,omitempty"`

	// Media payload for media entities. Nil for regular records.
	MediaContentType string `json:"media_content_type,omitempty"`
	Media            []byte `json:"media,omitempty"`

	// MediaETag is a content hash of the media payload, refreshed whenever
	// the payload changes. Empty for regular records.
	MediaETag string `json:"media_etag,omitempty"`
}

// Link is an outgoing navigation from a record. At most one of Inline or
// InlineSet is populated; BindingLink/BindingLinks carry reference-only
// navigation by ID.
type Link struct {
	Title        string     `json:"title"`
	Rel          string     `json:"rel,omitempty"`
	Href         string     `json:"href,omitempty"`
	Type         string     `json:"type,omitempty"`
	BindingLink  string     `json:"binding_link,omitempty"`
	BindingLinks []string   `json:"binding_links,omitempty"`
	MediaETag    string     `json:"media_etag,omitempty"`
	Inline       *Record    `json:"-"`
	InlineSet    *InlineSet `json:"-"`
}

// InlineSet is an embedded collection of records plus its collection metadata.
type InlineSet struct {
	ID        string    `json:"id,omitempty"`
	BaseURI   string    `json:"base_uri,omitempty"`
	Count     *int      `json:"count,omitempty"`
	Next      string    `json:"next,omitempty"`
	DeltaLink string    `json:"delta_link,omitempty"`
	Records   []*Record `json:"-"`
}

// Field returns a pointer to the named field, or nil.
func (r *Record) Field(name string) *Field {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			return &r.Fields[i]
		}
	}
	return nil
}

// Value returns the named field's value and whether the field exists.
func (r *Record) Value(name string) (IRValue, bool) {
	f := r.Field(name)
	if f == nil {
		return nil, false
	}
	if f.Value == nil {
		return IRNull{}, true
	}
	return f.Value, true
}

// SetValue replaces the named field's value, appending a primitive field
// when the name is not present yet.
func (r *Record) SetValue(name string, v IRValue) {
	if f := r.Field(name); f != nil {
		f.Value = v
		return
	}
	r.Fields = append(r.Fields, Field{Name: name, Kind: FieldPrimitive, Value: v})
}

// Link returns the link with the given title, or nil.
func (r *Record) Link(title string) *Link {
	for _, l := range r.Links {
		if l.Title == title {
			return l
		}
	}
	return nil
}

// FieldObject returns the fields as an IRObject keyed by name.
func (r *Record) FieldObject() IRObject {
	obj := make(IRObject, len(r.Fields))
	for _, f := range r.Fields {
		if f.Value == nil {
			obj[f.Name] = IRNull{}
			continue
		}
		obj[f.Name] = f.Value
	}
	return obj
}

// ShallowCopy returns a new record sharing field values and link targets
// with r but owning its own Fields and Links slices, so links can be added
// without touching r.
func (r *Record) ShallowCopy() *Record {
	cp := *r
	cp.Fields = append([]Field(nil), r.Fields...)
	cp.Links = append([]*Link(nil), r.Links...)
	return &cp
}
