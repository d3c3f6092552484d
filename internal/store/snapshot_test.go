package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/roach88/txstore/internal/ir"
)

var graphOpts = cmp.Options{
	cmpopts.EquateEmpty(),
}

func TestSnapshot_StructurallyEqual(t *testing.T) {
	s := createTestStore(t)
	seedLinked(t, s)

	backup := Snapshot(s.schema, s.sets)

	if diff := cmp.Diff(s.Dump(), dumpSets(backup)); diff != "" {
		t.Errorf("snapshot fields differ (-live +backup):\n%s", diff)
	}
	for name, live := range s.sets {
		if backup[name].Len() != live.Len() {
			t.Errorf("set %s: got %d records, want %d", name, backup[name].Len(), live.Len())
		}
	}
}

func TestSnapshot_SharesNoPointers(t *testing.T) {
	s := createTestStore(t)
	seedLinked(t, s)

	live := make(map[*ir.Record]bool)
	for _, rs := range s.sets {
		for _, rec := range rs.records {
			live[rec] = true
		}
	}

	backup := Snapshot(s.schema, s.sets)
	walk(backup, func(rec *ir.Record) {
		if live[rec] {
			t.Errorf("backup shares live record %s", rec.ID)
		}
	})
}

func TestSnapshot_PreservesIdentity(t *testing.T) {
	s := createTestStore(t)
	seedLinked(t, s)

	backup := Snapshot(s.schema, s.sets)

	p1, _ := backup["Products"].Get(IntKey("ID", 1))
	p2, _ := backup["Products"].Get(IntKey("ID", 2))
	c1, _ := backup["Categories"].Get(IntKey("ID", 1))

	// Both products link to the same category copy, which is also the
	// category stored in the backup's Categories set.
	if p1.Link("Category").Inline != p2.Link("Category").Inline {
		t.Error("shared link target copied twice")
	}
	if p1.Link("Category").Inline != c1 {
		t.Error("link target is not the set member copy")
	}

	// The reverse navigation leads back to the same product copies.
	members := c1.Link("Products").InlineSet.Records
	if len(members) != 2 || members[0] != p1 || members[1] != p2 {
		t.Errorf("reverse navigation does not reach the product copies: %v", members)
	}
}

func TestSnapshot_CycleSafe(t *testing.T) {
	s := createTestStore(t)

	a := mustCreate(t, s, "Products", fields("Name", "a"))
	b := mustCreate(t, s, "Products", fields("Name", "b"))
	a.Links = []*ir.Link{{Title: "Peer", Inline: b}}
	b.Links = []*ir.Link{{Title: "Peer", Inline: a}}
	// self loop
	c := mustCreate(t, s, "Products", fields("Name", "c"))
	c.Links = []*ir.Link{{Title: "Self", Inline: c}}

	backup := Snapshot(s.schema, s.sets)

	ca, _ := backup["Products"].Get(IntKey("ID", 1))
	cb, _ := backup["Products"].Get(IntKey("ID", 2))
	cc, _ := backup["Products"].Get(IntKey("ID", 3))

	if ca.Link("Peer").Inline != cb || cb.Link("Peer").Inline != ca {
		t.Error("two-record cycle not reproduced")
	}
	if cc.Link("Self").Inline != cc {
		t.Error("self loop not reproduced")
	}
	if ca == a || cb == b || cc == c {
		t.Error("cycle members were not copied")
	}
}

func TestSnapshot_FieldValuesAreIndependent(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(NewFixedIDGenerator("n-1")))

	note := mustCreate(t, s, "Notes", fields("Text", "x", "Tags", []any{"a", "b"}))
	backup := Snapshot(s.schema, s.sets)

	note.Field("Tags").Value.(ir.IRArray)[0] = ir.IRString("mutated")

	copied, _ := backup["Notes"].Get(StringKey("ID", "n-1"))
	if got := copied.Field("Tags").Value.(ir.IRArray)[0]; got != ir.IRString("a") {
		t.Errorf("backup collection value changed with live: %v", got)
	}
}

func TestSnapshot_CopiesLinkMetadata(t *testing.T) {
	s := createTestStore(t)
	seedLinked(t, s)

	c1, _ := s.sets["Categories"].Get(IntKey("ID", 1))
	count := 2
	link := c1.Link("Products")
	link.InlineSet.Count = &count
	link.InlineSet.Next = "Categories(1)/Products?$skiptoken=2"
	link.BindingLinks = []string{"Products(1)", "Products(2)"}

	backup := Snapshot(s.schema, s.sets)
	copied, _ := backup["Categories"].Get(IntKey("ID", 1))
	cl := copied.Link("Products")

	if cl == link || cl.InlineSet == link.InlineSet {
		t.Fatal("link metadata shared with live")
	}
	if cl.InlineSet.Count == link.InlineSet.Count || *cl.InlineSet.Count != 2 {
		t.Errorf("count not copied by value")
	}
	if diff := cmp.Diff(link.BindingLinks, cl.BindingLinks); diff != "" {
		t.Errorf("binding links differ:\n%s", diff)
	}
	if cl.InlineSet.Next != link.InlineSet.Next {
		t.Errorf("next link = %q, want %q", cl.InlineSet.Next, link.InlineSet.Next)
	}
}

func TestSnapshot_FreshCopyMapPerCall(t *testing.T) {
	s := createTestStore(t)
	seedLinked(t, s)

	first := Snapshot(s.schema, s.sets)
	second := Snapshot(s.schema, s.sets)

	p1, _ := first["Products"].Get(IntKey("ID", 1))
	p2, _ := second["Products"].Get(IntKey("ID", 1))
	if p1 == p2 {
		t.Error("second snapshot reused a copy from the first")
	}
	if !cmp.Equal(dumpSets(first), dumpSets(second), graphOpts) {
		t.Error("snapshots of the same state differ")
	}
}

func dumpSets(sets map[string]*RecordSet) ir.IRObject {
	out := make(ir.IRObject, len(sets))
	for name, rs := range sets {
		arr := ir.IRArray{}
		for _, rec := range rs.records {
			arr = append(arr, rec.FieldObject())
		}
		out[name] = arr
	}
	return out
}

// walk visits every record reachable from sets once.
func walk(sets map[string]*RecordSet, visit func(*ir.Record)) {
	seen := make(map[*ir.Record]bool)
	var rec func(*ir.Record)
	rec = func(r *ir.Record) {
		if r == nil || seen[r] {
			return
		}
		seen[r] = true
		visit(r)
		for _, l := range r.Links {
			rec(l.Inline)
			if l.InlineSet != nil {
				for _, m := range l.InlineSet.Records {
					rec(m)
				}
			}
		}
	}
	for _, rs := range sets {
		for _, r := range rs.records {
			rec(r)
		}
	}
}
