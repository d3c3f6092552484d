package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/roach88/txstore/internal/batch"
	"github.com/roach88/txstore/internal/expr"
	"github.com/roach88/txstore/internal/ir"
	"github.com/roach88/txstore/internal/query"
	"github.com/roach88/txstore/internal/service"
	"github.com/roach88/txstore/internal/store"
	"github.com/roach88/txstore/internal/testutil"
)

// Harness is the test execution engine. It runs scenario steps against one
// catalog service with deterministic generated keys.
type Harness struct {
	svc    *service.Service
	logger *slog.Logger
}

// outcome is what a single step produced.
type outcome struct {
	status    int
	record    *ir.Record
	records   []*ir.Record
	count     *int
	committed *bool
	content   []byte
	err       error
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a freshly seeded catalog service. Step
// failures and assertion mismatches are reported in the result; the
// returned error is reserved for scenarios that cannot be executed at all.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with a caller-supplied logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	svc, err := service.NewCatalog(
		service.WithIDGenerator(testutil.NewSequentialIDs(scenario.IDPrefix)),
		service.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog service: %w", err)
	}
	if scenario.Reset != nil {
		if err := svc.ResetDataSet(*scenario.Reset); err != nil {
			return nil, fmt.Errorf("failed to reset data set: %w", err)
		}
	}

	h := &Harness{svc: svc, logger: logger}
	result := NewResult()

	for i, step := range scenario.Steps {
		out, err := h.execute(step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		ev := traceEvent(i, step, out)
		result.AddTrace(ev)
		for _, msg := range checkExpect(i, step, out) {
			result.AddError(msg)
		}

		h.logger.Info("step completed",
			"step", i,
			"op", step.Op,
			"set", step.Set,
			"status", out.status,
		)
	}

	for _, msg := range EvaluateAssertions(svc.Store(), scenario.Assertions) {
		result.AddError(msg)
	}

	if state, ok := ir.ToAny(svc.Store().Dump()).(map[string]any); ok {
		result.State = state
	}
	return result, nil
}

// execute runs one step. The error return is for malformed steps only.
func (h *Harness) execute(step Step) (outcome, error) {
	switch step.Op {
	case OpChangeSet:
		return h.changeSet(step.Steps)
	case OpBegin:
		return done(http.StatusNoContent, h.svc.BeginTransaction()), nil
	case OpCommit:
		return done(http.StatusNoContent, h.svc.CommitTransaction()), nil
	case OpRollback:
		return done(http.StatusNoContent, h.svc.RollbackTransaction()), nil
	case OpReset:
		return done(http.StatusNoContent, h.svc.ResetDataSet(*step.Amount)), nil
	case OpCountCategories:
		cats, err := h.svc.CountCategories(*step.Amount)
		out := done(http.StatusOK, err)
		out.records = cats
		return out, nil
	}

	op, err := h.operation(step)
	if err != nil {
		return outcome{}, err
	}
	res, err := op.Run()
	if err != nil {
		return outcome{status: service.StatusOf(err), err: err}, nil
	}
	return fromResult(res), nil
}

// operation builds the batch operation for a data step.
func (h *Harness) operation(step Step) (batch.Operation, error) {
	var key store.Key
	if len(step.Key) > 0 {
		k, err := toKey(step.Key)
		if err != nil {
			return batch.Operation{}, err
		}
		key = k
	}

	switch step.Op {
	case OpRead:
		opts, err := toOptions(step.Query)
		if err != nil {
			return batch.Operation{}, err
		}
		switch {
		case step.Navigation != "":
			return batch.Operation{Name: "GET " + step.Set + "/" + step.Navigation, Run: func() (batch.Result, error) {
				res, err := h.svc.ReadRelated(step.Set, key, step.Navigation, opts)
				if err != nil {
					return statusResult(err)
				}
				return batch.Result{Status: http.StatusOK, Records: res.Records, Count: res.Count}, nil
			}}, nil
		case key != nil:
			return h.svc.ReadOneOp(step.Set, key), nil
		default:
			return h.svc.ReadSetOp(step.Set, opts), nil
		}

	case OpCreate:
		rec, err := toRecord(step.Record)
		if err != nil {
			return batch.Operation{}, err
		}
		return h.svc.CreateOp(step.Set, rec), nil

	case OpUpdate:
		rec, err := toRecord(step.Record)
		if err != nil {
			return batch.Operation{}, err
		}
		mode := store.Replace
		if step.Merge {
			mode = store.Merge
		}
		return h.svc.UpdateOp(step.Set, key, rec, mode), nil

	case OpDelete:
		return h.svc.DeleteOp(step.Set, key), nil

	case OpCreateMedia:
		return batch.Operation{Name: "POST " + step.Set, Run: func() (batch.Result, error) {
			rec, err := h.svc.CreateMedia(step.Set, step.ContentType, []byte(step.Content))
			if err != nil {
				return statusResult(err)
			}
			return batch.Result{Status: http.StatusCreated, Record: rec}, nil
		}}, nil

	case OpReadMedia:
		return batch.Operation{Name: "GET " + step.Set + "/$value", Run: func() (batch.Result, error) {
			ct, data, err := h.svc.ReadMedia(step.Set, key)
			if err != nil {
				return statusResult(err)
			}
			rec := &ir.Record{MediaContentType: ct, Media: data}
			return batch.Result{Status: http.StatusOK, Record: rec}, nil
		}}, nil

	case OpUpdateMedia:
		return batch.Operation{Name: "PUT " + step.Set + "/$value", Run: func() (batch.Result, error) {
			if err := h.svc.UpdateMedia(step.Set, key, step.ContentType, []byte(step.Content)); err != nil {
				return statusResult(err)
			}
			return batch.Result{Status: http.StatusNoContent}, nil
		}}, nil
	}
	return batch.Operation{}, fmt.Errorf("unknown op %q", step.Op)
}

func (h *Harness) changeSet(steps []Step) (outcome, error) {
	ops := make([]batch.Operation, len(steps))
	for i, s := range steps {
		op, err := h.operation(s)
		if err != nil {
			return outcome{}, fmt.Errorf("changeset step %d: %w", i, err)
		}
		ops[i] = op
	}

	res, err := h.svc.RunChangeSet(ops)
	if err != nil {
		return outcome{status: service.StatusOf(err), err: err}, nil
	}

	out := outcome{status: http.StatusOK, committed: &res.Committed}
	if !res.Committed {
		failed := res.Results[0]
		out.status, out.err = failed.Status, failed.Err
		return out, nil
	}
	for _, r := range res.Results {
		if r.Record != nil {
			out.records = append(out.records, r.Record)
		}
		out.records = append(out.records, r.Records...)
	}
	return out, nil
}

func statusResult(err error) (batch.Result, error) {
	status := service.StatusOf(err)
	if status == http.StatusInternalServerError {
		return batch.Result{}, err
	}
	return batch.Result{Status: status, Err: err}, nil
}

func done(status int, err error) outcome {
	if err != nil {
		return outcome{status: service.StatusOf(err), err: err}
	}
	return outcome{status: status}
}

func fromResult(r batch.Result) outcome {
	out := outcome{status: r.Status, records: r.Records, count: r.Count, err: r.Err}
	if r.Record != nil {
		if r.Record.Media != nil || r.Record.MediaContentType != "" {
			out.content = r.Record.Media
		}
		if len(r.Record.Fields) > 0 {
			out.record = r.Record
		}
	}
	return out
}

// returned lists the records a step produced, single or collection.
func (o outcome) returned() []*ir.Record {
	if o.record != nil {
		return append([]*ir.Record{o.record}, o.records...)
	}
	return o.records
}

func traceEvent(i int, step Step, out outcome) TraceEvent {
	ev := TraceEvent{
		Step:      i,
		Op:        step.Op,
		Target:    target(step),
		Status:    out.status,
		Count:     out.count,
		Committed: out.committed,
	}
	for _, rec := range out.returned() {
		v, _ := rec.Value("ID")
		ev.Keys = append(ev.Keys, ir.ToAny(v))
	}
	if out.err != nil {
		ev.Error = errorCode(out.err)
	}
	return ev
}

func target(step Step) string {
	if step.Set == "" {
		return ""
	}
	t := step.Set
	if len(step.Key) > 0 {
		if k, err := toKey(step.Key); err == nil {
			t += "(" + k.String() + ")"
		}
	}
	if step.Navigation != "" {
		t += "/" + step.Navigation
	}
	return t
}

// errorCode returns the coded category of err for the trace.
func errorCode(err error) string {
	if code := store.CodeOf(err); code != "" {
		return string(code)
	}
	if code := expr.CodeOf(err); code != "" {
		return string(code)
	}
	var oe *query.OptionError
	if errors.As(err, &oe) {
		return query.ErrCodeInvalidQueryOption
	}
	return err.Error()
}

func checkExpect(i int, step Step, out outcome) []string {
	exp := step.Expect
	if exp == nil {
		return nil
	}

	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf("step %d (%s %s): ", i, step.Op, target(step))+fmt.Sprintf(format, args...))
	}

	if exp.Status != 0 && exp.Status != out.status {
		fail("expected status %d, got %d (error: %v)", exp.Status, out.status, out.err)
	}

	if exp.Error != "" {
		switch {
		case out.err == nil:
			fail("expected error containing %q, got none", exp.Error)
		case !strings.Contains(out.err.Error(), exp.Error):
			fail("expected error containing %q, got %q", exp.Error, out.err.Error())
		}
	}

	if exp.Committed != nil {
		switch {
		case out.committed == nil:
			fail("expected committed=%t, step is not a changeset", *exp.Committed)
		case *out.committed != *exp.Committed:
			fail("expected committed=%t, got %t", *exp.Committed, *out.committed)
		}
	}

	if exp.Count != nil {
		got := len(out.returned())
		if out.count != nil {
			got = *out.count
		}
		if got != *exp.Count {
			fail("expected count %d, got %d", *exp.Count, got)
		}
	}

	if exp.Keys != nil {
		got := out.returned()
		if len(got) != len(exp.Keys) {
			fail("expected %d keys %v, got %d", len(exp.Keys), exp.Keys, len(got))
		} else {
			for j, want := range exp.Keys {
				wv, err := ir.FromAny(want)
				if err != nil {
					fail("keys[%d]: %v", j, err)
					continue
				}
				gv, _ := got[j].Value("ID")
				if !ir.Equal(wv, gv) {
					fail("keys[%d]: expected %s, got %s", j, ir.Literal(wv), ir.Literal(gv))
				}
			}
		}
	}

	if exp.Content != nil && string(out.content) != *exp.Content {
		fail("expected content %q, got %q", *exp.Content, string(out.content))
	}
	return errs
}

// toKey converts a YAML key map to a store key.
func toKey(m map[string]any) (store.Key, error) {
	key := make(store.Key, len(m))
	for name, raw := range m {
		v, err := ir.FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", name, err)
		}
		key[name] = v
	}
	return key, nil
}

// toRecord converts a YAML field map to a record. Fields are added in
// sorted order; the store reorders them by declaration anyway.
func toRecord(m map[string]any) (*ir.Record, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	rec := &ir.Record{}
	for _, name := range names {
		v, err := ir.FromAny(m[name])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		rec.SetValue(name, v)
	}
	return rec, nil
}

// toOptions converts a scenario query to pipeline options.
func toOptions(q *Query) (query.Options, error) {
	if q == nil {
		return query.Options{}, nil
	}
	opts := query.Options{Count: q.Count, Skip: q.Skip, Top: q.Top}
	if q.OrderBy != "" {
		opts.OrderBy = []query.OrderItem{{Property: q.OrderBy, Descending: q.Desc}}
	}
	switch q.Expand {
	case "":
	case "*":
		opts.Expand = []query.ExpandItem{{Star: true}}
	default:
		opts.Expand = []query.ExpandItem{{Navigation: q.Expand}}
	}
	if q.Filter != nil {
		node, err := expr.Decode(q.Filter)
		if err != nil {
			return query.Options{}, fmt.Errorf("filter: %w", err)
		}
		opts.Filter = node
	}
	return opts, nil
}
