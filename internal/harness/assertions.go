package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/txstore/internal/ir"
	"github.com/roach88/txstore/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against the store and returns
// the failure messages. An empty slice means all assertions passed.
func EvaluateAssertions(st *store.Store, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertFinalState:
			err = assertFinalState(st, a)
		case AssertSetCount:
			err = assertSetCount(st, a)
		case AssertRecordAbsent:
			err = assertRecordAbsent(st, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

// assertFinalState checks that the keyed record exists and carries the
// expected field values (subset match).
func assertFinalState(st *store.Store, a Assertion) error {
	key, err := toKey(a.Key)
	if err != nil {
		return err
	}
	rec, err := st.ReadOne(a.Set, key)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("record %s(%s)", a.Set, key),
			Actual:   err.Error(),
		}
	}

	var mismatches []string
	for _, name := range sortedNames(a.Expect) {
		want, err := ir.FromAny(a.Expect[name])
		if err != nil {
			return fmt.Errorf("expect %q: %w", name, err)
		}
		got, ok := rec.Value(name)
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("%s: field missing", name))
			continue
		}
		if !ir.Equal(want, got) {
			mismatches = append(mismatches, fmt.Sprintf("%s: expected %s, got %s", name, describe(want), describe(got)))
		}
	}

	if len(mismatches) > 0 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s matches %v", rec.ID, a.Expect),
			Actual:   strings.Join(mismatches, "; "),
		}
	}
	return nil
}

func assertSetCount(st *store.Store, a Assertion) error {
	recs, err := st.All(a.Set)
	if err != nil {
		return &AssertionError{Type: AssertSetCount, Expected: "set " + a.Set, Actual: err.Error()}
	}
	if len(recs) != *a.Count {
		return &AssertionError{
			Type:     AssertSetCount,
			Expected: fmt.Sprintf("%d records in %s", *a.Count, a.Set),
			Actual:   fmt.Sprintf("%d records", len(recs)),
		}
	}
	return nil
}

func assertRecordAbsent(st *store.Store, a Assertion) error {
	key, err := toKey(a.Key)
	if err != nil {
		return err
	}
	rec, err := st.ReadOne(a.Set, key)
	switch {
	case store.IsNotFound(err):
		return nil
	case err != nil:
		return err
	}
	return &AssertionError{
		Type:     AssertRecordAbsent,
		Expected: fmt.Sprintf("no record %s(%s)", a.Set, key),
		Actual:   "found " + rec.ID,
	}
}

func describe(v ir.IRValue) string {
	switch v.(type) {
	case ir.IRArray, ir.IRObject, ir.IRBytes:
		if b, err := ir.MarshalIRValue(v); err == nil {
			return string(b)
		}
	}
	return ir.Literal(v)
}

func sortedNames(m map[string]any) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
