package schema

// Declared property types. Integers are always 64-bit on the value side;
// the declared name is kept for display.
const (
	TypeInt32      = "Edm.Int32"
	TypeString     = "Edm.String"
	TypeBoolean    = "Edm.Boolean"
	TypeBinary     = "Edm.Binary"
	TypeCollection = "Collection"
	TypeComplex    = "Complex"
)

// KeyPolicy controls how an entity set assigns keys on insert.
type KeyPolicy string

const (
	// KeySequential assigns the smallest positive integer not in use, and
	// only when the caller did not supply a key.
	KeySequential KeyPolicy = "sequential"

	// KeyGenerated always assigns a fresh opaque identifier.
	KeyGenerated KeyPolicy = "generated"
)

// Property is a declared structural property of an entity type.
type Property struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Navigation is a declared navigation property of an entity type.
type Navigation struct {
	Name       string `json:"name"`
	Target     string `json:"target"`
	Collection bool   `json:"collection,omitempty"`
}

// EntityType describes the shape of a record.
type EntityType struct {
	Name       string       `json:"name"`
	Key        []string     `json:"key"`
	Properties []Property   `json:"properties"`
	Navigation []Navigation `json:"navigation,omitempty"`
	Media      bool         `json:"media,omitempty"`
}

// Property returns the named property declaration.
func (t *EntityType) Property(name string) (Property, bool) {
	for _, p := range t.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Nav returns the named navigation declaration.
func (t *EntityType) Nav(name string) (Navigation, bool) {
	for _, n := range t.Navigation {
		if n.Name == name {
			return n, true
		}
	}
	return Navigation{}, false
}

// IsKey reports whether name is one of the key properties.
func (t *EntityType) IsKey(name string) bool {
	for _, k := range t.Key {
		if k == name {
			return true
		}
	}
	return false
}

// Binding maps a navigation property of the set's type to the entity set
// holding its targets.
type Binding struct {
	Path   string `json:"path"`
	Target string `json:"target"`
}

// EntitySet is a named collection of records of a single entity type.
type EntitySet struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	KeyPolicy KeyPolicy `json:"key_policy"`
	Bindings  []Binding `json:"bindings,omitempty"`
}

// Schema is the compiled set of entity types and entity sets.
// Declaration order is preserved for both.
type Schema struct {
	Namespace string
	Types     []EntityType
	Sets      []EntitySet
}

// EntityType looks up an entity type by name.
func (s *Schema) EntityType(name string) (*EntityType, bool) {
	for i := range s.Types {
		if s.Types[i].Name == name {
			return &s.Types[i], true
		}
	}
	return nil, false
}

// EntitySet looks up an entity set by name.
func (s *Schema) EntitySet(name string) (*EntitySet, bool) {
	for i := range s.Sets {
		if s.Sets[i].Name == name {
			return &s.Sets[i], true
		}
	}
	return nil, false
}

// TypeOfSet returns the entity type of the named set.
func (s *Schema) TypeOfSet(set string) (*EntityType, bool) {
	es, ok := s.EntitySet(set)
	if !ok {
		return nil, false
	}
	return s.EntityType(es.Type)
}

// SetForType returns the first entity set declared for typeName.
func (s *Schema) SetForType(typeName string) (string, bool) {
	for _, es := range s.Sets {
		if es.Type == typeName {
			return es.Name, true
		}
	}
	return "", false
}

// RelatedSet resolves the entity set a navigation from set leads to.
func (s *Schema) RelatedSet(set, navigation string) (string, bool) {
	es, ok := s.EntitySet(set)
	if !ok {
		return "", false
	}
	for _, b := range es.Bindings {
		if b.Path == navigation {
			return b.Target, true
		}
	}
	return "", false
}

// FirstBinding returns the first navigation binding of set, used for
// wildcard expansion.
func (s *Schema) FirstBinding(set string) (Binding, bool) {
	es, ok := s.EntitySet(set)
	if !ok || len(es.Bindings) == 0 {
		return Binding{}, false
	}
	return es.Bindings[0], true
}

// Navigation looks up a navigation property on the type of set.
func (s *Schema) Navigation(set, name string) (Navigation, bool) {
	et, ok := s.TypeOfSet(set)
	if !ok {
		return Navigation{}, false
	}
	return et.Nav(name)
}

// IsKey reports whether prop is a key property of typeName.
func (s *Schema) IsKey(typeName, prop string) bool {
	et, ok := s.EntityType(typeName)
	if !ok {
		return false
	}
	return et.IsKey(prop)
}

// SetNames returns the entity set names in declaration order.
func (s *Schema) SetNames() []string {
	names := make([]string, len(s.Sets))
	for i, es := range s.Sets {
		names[i] = es.Name
	}
	return names
}
