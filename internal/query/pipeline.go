package query

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/txstore/internal/expr"
	"github.com/roach88/txstore/internal/ir"
	"github.com/roach88/txstore/internal/schema"
)

// NavigationResolver finds the records related to source through a
// navigation whose target is targetType.
type NavigationResolver interface {
	Related(source *ir.Record, targetType string) ([]*ir.Record, error)
}

// ResolverFunc adapts a function to NavigationResolver.
type ResolverFunc func(source *ir.Record, targetType string) ([]*ir.Record, error)

// Related implements NavigationResolver.
func (f ResolverFunc) Related(source *ir.Record, targetType string) ([]*ir.Record, error) {
	return f(source, targetType)
}

// Result is the outcome of a collection read.
type Result struct {
	Records []*ir.Record

	// Count is the number of records before paging. Nil unless requested.
	Count *int
}

// Pipeline applies query options to record collections.
type Pipeline struct {
	schema   *schema.Schema
	resolver NavigationResolver
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the structured logger. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// New creates a pipeline. resolver may be nil if no query expands.
func New(sch *schema.Schema, resolver NavigationResolver, opts ...Option) *Pipeline {
	p := &Pipeline{
		schema:   sch,
		resolver: resolver,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Apply runs the options against records of set, in this fixed order:
//
//  1. count   - length of the input
//  2. skip    - drop the first n (n beyond the length leaves nothing)
//  3. top     - keep the first n (n beyond the length keeps everything)
//  4. orderby - stable sort on the first item
//  5. filter  - keep records whose expression is true; null drops the
//     record, any other non-boolean result fails with TYPE_MISMATCH
//  6. expand  - attach the first related record for the first item
//
// Paging happens before ordering and filtering, so count reflects the
// unfiltered input and top/skip select by input position.
//
// The input slice and the records in it are never modified; expanded
// records are shallow copies carrying the extra link.
func (p *Pipeline) Apply(set string, records []*ir.Record, opts Options) (*Result, error) {
	if opts.Skip != nil && *opts.Skip < 0 {
		return nil, &OptionError{Option: "skip", Message: fmt.Sprintf("must not be negative, got %d", *opts.Skip)}
	}
	if opts.Top != nil && *opts.Top < 0 {
		return nil, &OptionError{Option: "top", Message: fmt.Sprintf("must not be negative, got %d", *opts.Top)}
	}

	out := slices.Clone(records)
	res := &Result{}

	if opts.Count {
		n := len(out)
		res.Count = &n
	}

	if opts.Skip != nil {
		out = out[min(*opts.Skip, len(out)):]
	}

	if opts.Top != nil {
		out = out[:min(*opts.Top, len(out))]
	}

	if len(opts.OrderBy) > 0 {
		if err := p.orderBy(set, out, opts.OrderBy[0]); err != nil {
			return nil, err
		}
	}

	if opts.Filter != nil {
		filtered, err := filter(out, opts.Filter)
		if err != nil {
			return nil, err
		}
		out = filtered
	}

	if len(opts.Expand) > 0 {
		expanded, err := p.expand(set, out, opts.Expand[0])
		if err != nil {
			return nil, err
		}
		out = expanded
	}

	res.Records = out
	p.logger.Debug("query applied", "set", set, "in", len(records), "out", len(out))
	return res, nil
}

func (p *Pipeline) orderBy(set string, records []*ir.Record, item OrderItem) error {
	if et, ok := p.typeOf(set); ok {
		if _, ok := et.Property(item.Property); !ok {
			return &OptionError{Option: "orderby", Message: fmt.Sprintf("type %s has no property %q", et.Name, item.Property)}
		}
	}

	slices.SortStableFunc(records, func(a, b *ir.Record) int {
		av, _ := a.Value(item.Property)
		bv, _ := b.Value(item.Property)
		c := ir.Compare(av, bv)
		if item.Descending {
			return -c
		}
		return c
	})
	return nil
}

func filter(records []*ir.Record, node expr.Node) ([]*ir.Record, error) {
	kept := make([]*ir.Record, 0, len(records))
	for _, rec := range records {
		v, err := expr.Evaluate(node, rec)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", rec.ID, err)
		}
		switch b := v.(type) {
		case ir.IRBool:
			if b {
				kept = append(kept, rec)
			}
		case ir.IRNull:
		default:
			return nil, fmt.Errorf("filter %s: %w", rec.ID, expr.NewEvalError(expr.ErrCodeTypeMismatch,
				"filter expression must evaluate to a boolean, got %s", ir.KindOf(v)))
		}
	}
	return kept, nil
}

func (p *Pipeline) expand(set string, records []*ir.Record, item ExpandItem) ([]*ir.Record, error) {
	if p.schema == nil {
		return nil, &OptionError{Option: "expand", Message: "no schema configured"}
	}

	name := item.Navigation
	if item.Star {
		b, ok := p.schema.FirstBinding(set)
		if !ok {
			return records, nil
		}
		name = b.Path
	}

	nav, ok := p.schema.Navigation(set, name)
	if !ok {
		return nil, &OptionError{Option: "expand", Message: fmt.Sprintf("entity set %s has no navigation %q", set, name)}
	}
	if p.resolver == nil {
		return nil, &OptionError{Option: "expand", Message: "no navigation resolver configured"}
	}

	out := make([]*ir.Record, len(records))
	for i, rec := range records {
		related, err := p.resolver.Related(rec, nav.Target)
		if err != nil {
			return nil, fmt.Errorf("expand %s of %s: %w", name, rec.ID, err)
		}
		if len(related) == 0 {
			out[i] = rec
			continue
		}
		out[i] = withInline(rec, name, related[0])
	}
	return out, nil
}

// withInline returns a shallow copy of rec whose link titled name (added if
// missing) carries target inline.
func withInline(rec *ir.Record, name string, target *ir.Record) *ir.Record {
	cp := rec.ShallowCopy()
	link := &ir.Link{Title: name, Inline: target}
	for i, l := range cp.Links {
		if l.Title == name {
			cp.Links[i] = link
			return cp
		}
	}
	cp.Links = append(cp.Links, link)
	return cp
}

func (p *Pipeline) typeOf(set string) (*schema.EntityType, bool) {
	if p.schema == nil {
		return nil, false
	}
	return p.schema.TypeOfSet(set)
}
