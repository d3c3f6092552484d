package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Compile parses a CUE value into a Schema.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value is the schema root:
//
//	namespace: "Demo"
//	entityType: Product: {
//		key: ["ID"]
//		properties: {ID: int, Name: string}
//		navigation: Category: {type: "Category"}
//	}
//	entitySet: Products: {
//		type: "Product"
//		bindings: Category: "Categories"
//	}
//
// Compile checks structure only. Run Validate on the result for
// cross-reference checks.
func Compile(v cue.Value) (*Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	s := &Schema{}

	if ns := v.LookupPath(cue.ParsePath("namespace")); ns.Exists() {
		name, err := ns.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		s.Namespace = name
	}

	types, err := parseEntityTypes(v)
	if err != nil {
		return nil, err
	}
	s.Types = types

	sets, err := parseEntitySets(v)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, &CompileError{
			Field:   "entitySet",
			Message: "at least one entity set is required",
			Pos:     v.Pos(),
		}
	}
	s.Sets = sets

	return s, nil
}

// CompileString compiles CUE source text into a Schema.
func CompileString(src string) (*Schema, error) {
	ctx := cuecontext.New()
	return Compile(ctx.CompileString(src))
}

// MustCompileString is like CompileString but panics on error.
// Use only in tests or for embedded schemas known to be valid.
func MustCompileString(src string) *Schema {
	s, err := CompileString(src)
	if err != nil {
		panic(err)
	}
	if errs := Validate(s); len(errs) > 0 {
		panic(errs[0])
	}
	return s
}

func parseEntityTypes(v cue.Value) ([]EntityType, error) {
	var types []EntityType

	typesVal := v.LookupPath(cue.ParsePath("entityType"))
	if !typesVal.Exists() {
		return types, nil
	}

	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		et, err := parseEntityType(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		types = append(types, et)
	}

	return types, nil
}

func parseEntityType(name string, v cue.Value) (EntityType, error) {
	et := EntityType{Name: name}

	keyVal := v.LookupPath(cue.ParsePath("key"))
	if keyVal.Exists() {
		keyIter, err := keyVal.List()
		if err != nil {
			return et, formatCUEError(err)
		}
		for keyIter.Next() {
			k, err := keyIter.Value().String()
			if err != nil {
				return et, formatCUEError(err)
			}
			et.Key = append(et.Key, k)
		}
	}

	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return et, &CompileError{
			Field:   fmt.Sprintf("entityType.%s.properties", name),
			Message: "properties are required",
			Pos:     v.Pos(),
		}
	}
	propIter, err := propsVal.Fields()
	if err != nil {
		return et, formatCUEError(err)
	}
	for propIter.Next() {
		typeName, err := extractTypeName(propIter.Value())
		if err != nil {
			return et, err
		}
		et.Properties = append(et.Properties, Property{Name: propIter.Label(), Type: typeName})
	}

	navVal := v.LookupPath(cue.ParsePath("navigation"))
	if navVal.Exists() {
		navIter, err := navVal.Fields()
		if err != nil {
			return et, formatCUEError(err)
		}
		for navIter.Next() {
			nav := Navigation{Name: navIter.Label()}
			target, err := navIter.Value().LookupPath(cue.ParsePath("type")).String()
			if err != nil {
				return et, &CompileError{
					Field:   fmt.Sprintf("entityType.%s.navigation.%s.type", name, nav.Name),
					Message: "navigation target type is required",
					Pos:     navIter.Value().Pos(),
				}
			}
			nav.Target = target
			if coll := navIter.Value().LookupPath(cue.ParsePath("collection")); coll.Exists() {
				nav.Collection, err = coll.Bool()
				if err != nil {
					return et, formatCUEError(err)
				}
			}
			et.Navigation = append(et.Navigation, nav)
		}
	}

	if media := v.LookupPath(cue.ParsePath("media")); media.Exists() {
		et.Media, err = media.Bool()
		if err != nil {
			return et, formatCUEError(err)
		}
	}

	return et, nil
}

func parseEntitySets(v cue.Value) ([]EntitySet, error) {
	var sets []EntitySet

	setsVal := v.LookupPath(cue.ParsePath("entitySet"))
	if !setsVal.Exists() {
		return sets, nil
	}

	iter, err := setsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		name := iter.Label()
		setVal := iter.Value()
		es := EntitySet{Name: name, KeyPolicy: KeySequential}

		typeName, err := setVal.LookupPath(cue.ParsePath("type")).String()
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("entitySet.%s.type", name),
				Message: "entity set type is required",
				Pos:     setVal.Pos(),
			}
		}
		es.Type = typeName

		if policyVal := setVal.LookupPath(cue.ParsePath("keyPolicy")); policyVal.Exists() {
			policy, err := policyVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			es.KeyPolicy = KeyPolicy(policy)
		}

		if bindVal := setVal.LookupPath(cue.ParsePath("bindings")); bindVal.Exists() {
			bindIter, err := bindVal.Fields()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for bindIter.Next() {
				target, err := bindIter.Value().String()
				if err != nil {
					return nil, formatCUEError(err)
				}
				es.Bindings = append(es.Bindings, Binding{Path: bindIter.Label(), Target: target})
			}
		}

		sets = append(sets, es)
	}

	return sets, nil
}

// extractTypeName converts a CUE type to a declared property type.
// Floats are forbidden.
func extractTypeName(v cue.Value) (string, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return TypeString, nil
	case cue.IntKind:
		return TypeInt32, nil
	case cue.BoolKind:
		return TypeBoolean, nil
	case cue.BytesKind:
		return TypeBinary, nil
	case cue.ListKind:
		return TypeCollection, nil
	case cue.StructKind:
		return TypeComplex, nil
	case cue.FloatKind, cue.NumberKind:
		return "", &CompileError{
			Field:   "type",
			Message: "float types are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	default:
		return "", &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
