package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/txstore/internal/expr"
	"github.com/roach88/txstore/internal/ir"
	"github.com/roach88/txstore/internal/query"
	"github.com/roach88/txstore/internal/schema"
	"github.com/roach88/txstore/internal/service"
	"github.com/roach88/txstore/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Reset      int
	Key        string
	Navigation string
	Count      bool
	Skip       int
	Top        int
	OrderBy    string
	Desc       bool
	Expand     string
	FilterFile string

	// hasReset, hasSkip and hasTop record which of the int flags were given.
	hasReset bool
	hasSkip  bool
	hasTop   bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <set>",
		Short: "Query the sample catalog",
		Long: `Query an entity set of the seeded sample catalog.

Query options are applied in a fixed order: count, skip, top, orderby,
filter, expand. Filters are YAML expression trees read from a file.

Examples:
  txstore query Products --count --skip 1 --top 2
  txstore query Products --key 1 --nav Category
  txstore query Categories --expand Products --format json
  txstore query Products --filter filter.yaml --reset 4`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.hasReset = cmd.Flags().Changed("reset")
			opts.hasSkip = cmd.Flags().Changed("skip")
			opts.hasTop = cmd.Flags().Changed("top")
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Reset, "reset", 0, "truncate the sample data to this many products first")
	cmd.Flags().StringVar(&opts.Key, "key", "", "key of a single record, e.g. 1 or ID=1")
	cmd.Flags().StringVar(&opts.Navigation, "nav", "", "navigation to follow from the keyed record")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "report the record count before paging")
	cmd.Flags().IntVar(&opts.Skip, "skip", 0, "skip the first n records")
	cmd.Flags().IntVar(&opts.Top, "top", 0, "keep at most n records")
	cmd.Flags().StringVar(&opts.OrderBy, "orderby", "", "property to order by")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "order descending")
	cmd.Flags().StringVar(&opts.Expand, "expand", "", `navigation to expand, or "*"`)
	cmd.Flags().StringVar(&opts.FilterFile, "filter", "", "YAML file holding a filter expression")

	return cmd
}

func runQuery(opts *QueryOptions, set string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	svc, err := service.NewCatalog(service.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to seed catalog", err)
	}
	if opts.hasReset {
		if err := svc.ResetDataSet(opts.Reset); err != nil {
			return WrapExitError(ExitCommandError, "failed to reset data set", err)
		}
	}

	qopts, err := opts.toOptions()
	if err != nil {
		_ = formatter.Error(query.ErrCodeInvalidQueryOption, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid query", err)
	}

	var records []*ir.Record
	var count *int
	switch {
	case opts.Key == "" && opts.Navigation != "":
		err = errors.New("--nav requires --key")
	case opts.Key == "":
		var res *query.Result
		if res, err = svc.ReadSet(set, qopts); err == nil {
			records, count = res.Records, res.Count
		}
	default:
		var key store.Key
		if key, err = parseKey(svc.Schema(), set, opts.Key); err != nil {
			break
		}
		if opts.Navigation != "" {
			var res *query.Result
			if res, err = svc.ReadRelated(set, key, opts.Navigation, qopts); err == nil {
				records, count = res.Records, res.Count
			}
			break
		}
		var rec *ir.Record
		if rec, err = svc.ReadOne(set, key); err == nil {
			records = []*ir.Record{rec}
		}
	}
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), map[string]int{"status": service.StatusOf(err)})
		return WrapExitError(ExitFailure, "query failed", err)
	}

	formatter.VerboseLog("%d record(s) from %s", len(records), set)
	return formatter.Records(set, records, count)
}

func (o *QueryOptions) toOptions() (query.Options, error) {
	var q query.Options
	q.Count = o.Count
	if o.hasSkip {
		q.Skip = query.Int(o.Skip)
	}
	if o.hasTop {
		q.Top = query.Int(o.Top)
	}
	if o.OrderBy != "" {
		q.OrderBy = []query.OrderItem{{Property: o.OrderBy, Descending: o.Desc}}
	}
	switch o.Expand {
	case "":
	case "*":
		q.Expand = []query.ExpandItem{{Star: true}}
	default:
		q.Expand = []query.ExpandItem{{Navigation: o.Expand}}
	}
	if o.FilterFile != "" {
		node, err := expr.LoadFile(o.FilterFile)
		if err != nil {
			return q, err
		}
		q.Filter = node
	}
	return q, nil
}

// parseKey reads "1", "'abc'" or "ID=1" as a key of set. A bare value
// names the single key property of the set's entity type.
func parseKey(sch *schema.Schema, set, raw string) (store.Key, error) {
	et, ok := sch.TypeOfSet(set)
	if !ok {
		return nil, store.NewNotFoundError(set, "")
	}

	prop, value, found := strings.Cut(raw, "=")
	if !found {
		if len(et.Key) != 1 {
			return nil, fmt.Errorf("entity type %s has a composite key, use name=value", et.Name)
		}
		prop, value = et.Key[0], raw
	}
	if !et.IsKey(prop) {
		return nil, fmt.Errorf("%q is not a key property of %s", prop, et.Name)
	}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return store.IntKey(prop, n), nil
	}
	value = strings.TrimSuffix(strings.TrimPrefix(value, "'"), "'")
	return store.StringKey(prop, value), nil
}

// errorCode returns the coded category of a query error.
func errorCode(err error) string {
	if code := store.CodeOf(err); code != "" {
		return string(code)
	}
	if code := expr.CodeOf(err); code != "" {
		return string(code)
	}
	if query.IsInvalidOption(err) {
		return query.ErrCodeInvalidQueryOption
	}
	return schema.ErrCodeGeneric
}
