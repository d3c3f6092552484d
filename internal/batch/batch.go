package batch

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/txstore/internal/ir"
)

// Result is the host-level outcome of one operation.
type Result struct {
	// Status is the protocol status code (200, 201, 204, 404, ...).
	Status int

	// Record is the single record returned, if any.
	Record *ir.Record

	// Records is the collection returned, if any.
	Records []*ir.Record

	// Count is the requested collection count, if any.
	Count *int

	// Err describes the failure when Status >= 400.
	Err error
}

// Failed reports whether the result carries an error status.
func (r Result) Failed() bool {
	return r.Status >= 400
}

// Operation is one unit of work inside a batch. Run returns a Go error only
// for failures the host could not express as a status.
type Operation struct {
	Name string
	Run  func() (Result, error)
}

// Transactor is the transaction surface of the store.
type Transactor interface {
	Begin() error
	Commit() error
	Rollback() error
}

// ChangeSetResult is the outcome of an atomic changeset.
type ChangeSetResult struct {
	// Committed is false when an operation failed and the changeset rolled back.
	Committed bool

	// Results holds one result per operation on commit, or the single
	// failing result on rollback.
	Results []Result

	// FailedIndex is the index of the failing operation, -1 on commit.
	FailedIndex int
}

// Part is one element of a batch: either a standalone operation or a
// changeset. Exactly one of the two is set.
type Part struct {
	Operation *Operation
	ChangeSet []Operation
}

// PartResult is the outcome of one batch part.
type PartResult struct {
	Result    *Result
	ChangeSet *ChangeSetResult
	Err       error
}

// Coordinator runs changesets and batches against a Transactor.
type Coordinator struct {
	tx     Transactor
	logger *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the structured logger. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// New creates a coordinator over tx.
func New(tx Transactor, opts ...Option) *Coordinator {
	c := &Coordinator{
		tx:     tx,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunChangeSet runs ops in order inside one transaction.
//
// The first result with an error status rolls the transaction back and is
// returned alone with Committed false. A Go error from an operation rolls
// back and is returned; a panic rolls back and is re-raised. If every
// operation succeeds the transaction commits and all results are returned.
func (c *Coordinator) RunChangeSet(ops []Operation) (res *ChangeSetResult, err error) {
	if err := c.tx.Begin(); err != nil {
		return nil, fmt.Errorf("begin changeset: %w", err)
	}

	done := false
	defer func() {
		if done {
			return
		}
		if r := recover(); r != nil {
			if rbErr := c.tx.Rollback(); rbErr != nil {
				c.logger.Error("changeset rollback failed", "error", rbErr)
			}
			panic(r)
		}
	}()

	results := make([]Result, 0, len(ops))
	for i, op := range ops {
		r, err := op.Run()
		if err != nil {
			done = true
			return nil, errors.Join(
				fmt.Errorf("changeset operation %d (%s): %w", i, op.Name, err),
				c.rollback(),
			)
		}
		if r.Failed() {
			done = true
			c.logger.Info("changeset rolled back",
				"operation", i,
				"name", op.Name,
				"status", r.Status,
			)
			if err := c.rollback(); err != nil {
				return nil, err
			}
			return &ChangeSetResult{Results: []Result{r}, FailedIndex: i}, nil
		}
		results = append(results, r)
	}

	done = true
	if err := c.tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit changeset: %w", err)
	}
	c.logger.Debug("changeset committed", "operations", len(ops))
	return &ChangeSetResult{Committed: true, Results: results, FailedIndex: -1}, nil
}

func (c *Coordinator) rollback() error {
	if err := c.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback changeset: %w", err)
	}
	return nil
}

// RunBatch runs parts in order and returns one result per part. Standalone
// operations run outside any transaction; changesets run atomically. A
// failing part does not stop the batch.
func (c *Coordinator) RunBatch(parts []Part) []PartResult {
	out := make([]PartResult, len(parts))
	for i, p := range parts {
		switch {
		case p.Operation != nil:
			r, err := p.Operation.Run()
			if err != nil {
				out[i].Err = fmt.Errorf("batch part %d (%s): %w", i, p.Operation.Name, err)
				continue
			}
			out[i].Result = &r
		default:
			cs, err := c.RunChangeSet(p.ChangeSet)
			if err != nil {
				out[i].Err = fmt.Errorf("batch part %d: %w", i, err)
				continue
			}
			out[i].ChangeSet = cs
		}
	}
	c.logger.Debug("batch finished", "parts", len(parts))
	return out
}
