package store

import (
	"bytes"
	"slices"

	"github.com/roach88/txstore/internal/ir"
	"github.com/roach88/txstore/internal/schema"
)

// copyKey identifies a source record within the set it is copied into.
// The same source reached through two sets yields two copies; reached twice
// through the same set it yields one.
type copyKey struct {
	set string
	src *ir.Record
}

// copier performs one snapshot. The copy map lives only as long as the
// copier, so every snapshot starts with an empty map.
type copier struct {
	schema *schema.Schema
	copies map[copyKey]*ir.Record
}

// Snapshot deep-copies every set in live, including the record graph
// reachable through links.
//
// Aliasing in the source graph is reproduced in the copy: if two links (or a
// link and a set member) point at the same record of the same set, the copies
// point at the same copied record. Cycles terminate because a record is
// registered in the copy map before its links are followed.
func Snapshot(sch *schema.Schema, live map[string]*RecordSet) map[string]*RecordSet {
	c := &copier{
		schema: sch,
		copies: make(map[copyKey]*ir.Record),
	}

	names := make([]string, 0, len(live))
	for name := range live {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make(map[string]*RecordSet, len(live))
	for _, name := range names {
		src := live[name]
		dst := NewRecordSet(name)
		for _, rec := range src.records {
			dst.Insert(c.copyRecord(name, rec))
		}
		out[name] = dst
	}
	return out
}

func (c *copier) copyRecord(set string, src *ir.Record) *ir.Record {
	if src == nil {
		return nil
	}

	key := copyKey{set: set, src: src}
	if cp, ok := c.copies[key]; ok {
		return cp
	}

	cp := &ir.Record{
		Type:             src.Type,
		ID:               src.ID,
		ETag:             src.ETag,
		MediaContentType: src.MediaContentType,
		MediaETag:        src.MediaETag,
	}
	if src.Media != nil {
		cp.Media = bytes.Clone(src.Media)
	}
	c.copies[key] = cp

	if src.Fields != nil {
		cp.Fields = make([]ir.Field, len(src.Fields))
		for i, f := range src.Fields {
			cp.Fields[i] = ir.Field{
				Name:  f.Name,
				Type:  f.Type,
				Kind:  f.Kind,
				Value: ir.CloneValue(f.Value),
			}
		}
	}

	for _, l := range src.Links {
		cp.Links = append(cp.Links, c.copyLink(set, l))
	}

	return cp
}

func (c *copier) copyLink(set string, src *ir.Link) *ir.Link {
	if src == nil {
		return nil
	}

	cp := &ir.Link{
		Title:       src.Title,
		Rel:         src.Rel,
		Href:        src.Href,
		Type:        src.Type,
		BindingLink: src.BindingLink,
		MediaETag:   src.MediaETag,
	}
	if src.BindingLinks != nil {
		cp.BindingLinks = slices.Clone(src.BindingLinks)
	}

	if src.Inline != nil {
		cp.Inline = c.copyRecord(c.targetSet(set, src.Title, src.Inline), src.Inline)
	}

	if src.InlineSet != nil {
		inline := &ir.InlineSet{
			ID:        src.InlineSet.ID,
			BaseURI:   src.InlineSet.BaseURI,
			Next:      src.InlineSet.Next,
			DeltaLink: src.InlineSet.DeltaLink,
		}
		if src.InlineSet.Count != nil {
			n := *src.InlineSet.Count
			inline.Count = &n
		}
		for _, rec := range src.InlineSet.Records {
			inline.Records = append(inline.Records, c.copyRecord(c.targetSet(set, src.Title, rec), rec))
		}
		cp.InlineSet = inline
	}

	return cp
}

// targetSet names the set a link target is copied under: the set bound to
// the navigation, else the set declared for the target's type, else the
// source set.
func (c *copier) targetSet(set, navigation string, target *ir.Record) string {
	if c.schema != nil {
		if related, ok := c.schema.RelatedSet(set, navigation); ok {
			return related
		}
		if byType, ok := c.schema.SetForType(target.Type); ok {
			return byType
		}
	}
	return set
}
