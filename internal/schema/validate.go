package schema

import (
	"fmt"
)

// Validation error codes (E100-E199)
const (
	ErrNoKey               = "E101" // entity type declares no key
	ErrUndeclaredKey       = "E102" // key names a property that does not exist
	ErrUnknownNavTarget    = "E103" // navigation targets an undeclared type
	ErrUnknownBindingSet   = "E104" // binding targets an undeclared entity set
	ErrUndeclaredBinding   = "E105" // binding path is not a navigation of the set's type
	ErrUnknownSetType      = "E106" // entity set references an undeclared type
	ErrInvalidKeyPolicy    = "E107" // key policy is neither sequential nor generated
	ErrDuplicateName       = "E108" // duplicate property or navigation name
	ErrBindingTypeMismatch = "E109" // binding target set holds a different type
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks cross references in a compiled schema.
// Returns all errors found (does not fail-fast).
func Validate(s *Schema) []ValidationError {
	var errs []ValidationError

	for _, et := range s.Types {
		errs = append(errs, validateEntityType(s, &et)...)
	}
	for _, es := range s.Sets {
		errs = append(errs, validateEntitySet(s, &es)...)
	}

	return errs
}

func validateEntityType(s *Schema, et *EntityType) []ValidationError {
	var errs []ValidationError
	prefix := "entityType." + et.Name

	if len(et.Key) == 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".key",
			Message: "at least one key property is required",
			Code:    ErrNoKey,
		})
	}

	for i, k := range et.Key {
		if _, ok := et.Property(k); !ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.key[%d]", prefix, i),
				Message: fmt.Sprintf("key property %q is not declared", k),
				Code:    ErrUndeclaredKey,
			})
		}
	}

	seen := make(map[string]bool)
	for _, p := range et.Properties {
		seen[p.Name] = true
	}
	for _, n := range et.Navigation {
		if seen[n.Name] {
			errs = append(errs, ValidationError{
				Field:   prefix + ".navigation." + n.Name,
				Message: fmt.Sprintf("name %q is used by both a property and a navigation", n.Name),
				Code:    ErrDuplicateName,
			})
		}
		seen[n.Name] = true

		if _, ok := s.EntityType(n.Target); !ok {
			errs = append(errs, ValidationError{
				Field:   prefix + ".navigation." + n.Name + ".type",
				Message: fmt.Sprintf("unknown entity type %q", n.Target),
				Code:    ErrUnknownNavTarget,
			})
		}
	}

	return errs
}

func validateEntitySet(s *Schema, es *EntitySet) []ValidationError {
	var errs []ValidationError
	prefix := "entitySet." + es.Name

	switch es.KeyPolicy {
	case KeySequential, KeyGenerated:
	default:
		errs = append(errs, ValidationError{
			Field:   prefix + ".keyPolicy",
			Message: fmt.Sprintf("invalid key policy %q (must be sequential or generated)", es.KeyPolicy),
			Code:    ErrInvalidKeyPolicy,
		})
	}

	et, ok := s.EntityType(es.Type)
	if !ok {
		errs = append(errs, ValidationError{
			Field:   prefix + ".type",
			Message: fmt.Sprintf("unknown entity type %q", es.Type),
			Code:    ErrUnknownSetType,
		})
		return errs
	}

	for _, b := range es.Bindings {
		field := prefix + ".bindings." + b.Path
		nav, ok := et.Nav(b.Path)
		if !ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("type %q has no navigation %q", et.Name, b.Path),
				Code:    ErrUndeclaredBinding,
			})
			continue
		}
		target, ok := s.EntitySet(b.Target)
		if !ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown entity set %q", b.Target),
				Code:    ErrUnknownBindingSet,
			})
			continue
		}
		if target.Type != nav.Target {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("entity set %q holds %q, navigation expects %q", target.Name, target.Type, nav.Target),
				Code:    ErrBindingTypeMismatch,
			})
		}
	}

	return errs
}
