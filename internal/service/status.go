package service

import (
	"errors"
	"net/http"

	"github.com/roach88/txstore/internal/batch"
	"github.com/roach88/txstore/internal/catalog"
	"github.com/roach88/txstore/internal/expr"
	"github.com/roach88/txstore/internal/ir"
	"github.com/roach88/txstore/internal/query"
	"github.com/roach88/txstore/internal/store"
)

// StatusOf maps an error to the protocol status a host would answer with.
// A nil error is 200.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch store.CodeOf(err) {
	case store.ErrCodeNotFound:
		return http.StatusNotFound
	case store.ErrCodeDuplicateKey, store.ErrCodeTransactionConflict:
		return http.StatusConflict
	case store.ErrCodeInvalidRecord:
		return http.StatusBadRequest
	case store.ErrCodeNoActiveTransaction:
		return http.StatusInternalServerError
	}

	switch expr.CodeOf(err) {
	case expr.ErrCodeNotImplemented:
		return http.StatusNotImplemented
	case expr.ErrCodeTypeMismatch, expr.ErrCodeUnsupportedOperand, expr.ErrCodeDivisionByZero:
		return http.StatusBadRequest
	}

	if query.IsInvalidOption(err) || errors.Is(err, catalog.ErrInvalidAmount) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// result turns an operation outcome into a batch result. Errors with a
// protocol status become failed results; anything else stays a Go error.
func result(status int, rec *ir.Record, err error) (batch.Result, error) {
	if err != nil {
		code := StatusOf(err)
		if code == http.StatusInternalServerError {
			return batch.Result{}, err
		}
		return batch.Result{Status: code, Err: err}, nil
	}
	return batch.Result{Status: status, Record: rec}, nil
}

// ReadSetOp is a batch operation reading set with opts.
func (s *Service) ReadSetOp(set string, opts query.Options) batch.Operation {
	return batch.Operation{
		Name: "GET " + set,
		Run: func() (batch.Result, error) {
			res, err := s.ReadSet(set, opts)
			r, err := result(http.StatusOK, nil, err)
			if err == nil && res != nil {
				r.Records, r.Count = res.Records, res.Count
			}
			return r, err
		},
	}
}

// ReadOneOp is a batch operation reading one record.
func (s *Service) ReadOneOp(set string, key store.Key) batch.Operation {
	return batch.Operation{
		Name: "GET " + set + "(" + key.String() + ")",
		Run: func() (batch.Result, error) {
			rec, err := s.ReadOne(set, key)
			return result(http.StatusOK, rec, err)
		},
	}
}

// CreateOp is a batch operation inserting rec.
func (s *Service) CreateOp(set string, rec *ir.Record) batch.Operation {
	return batch.Operation{
		Name: "POST " + set,
		Run: func() (batch.Result, error) {
			created, err := s.Create(set, rec)
			return result(http.StatusCreated, created, err)
		},
	}
}

// UpdateOp is a batch operation updating one record.
func (s *Service) UpdateOp(set string, key store.Key, rec *ir.Record, mode store.UpdateMode) batch.Operation {
	method := "PUT "
	if mode == store.Merge {
		method = "PATCH "
	}
	return batch.Operation{
		Name: method + set + "(" + key.String() + ")",
		Run: func() (batch.Result, error) {
			return result(http.StatusNoContent, nil, s.Update(set, key, rec, mode))
		},
	}
}

// DeleteOp is a batch operation deleting one record.
func (s *Service) DeleteOp(set string, key store.Key) batch.Operation {
	return batch.Operation{
		Name: "DELETE " + set + "(" + key.String() + ")",
		Run: func() (batch.Result, error) {
			return result(http.StatusNoContent, nil, s.Delete(set, key))
		},
	}
}
