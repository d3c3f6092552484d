package store

import (
	"errors"
	"fmt"
)

// StoreError represents a failed store or transaction operation.
type StoreError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Set is the entity set involved, if any.
	Set string

	// Key is the formatted key involved, if any.
	Key string
}

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates an unknown entity set or no record with the key.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeDuplicateKey indicates an insert with a key already in use.
	ErrCodeDuplicateKey ErrorCode = "DUPLICATE_KEY"

	// ErrCodeInvalidRecord indicates a record that does not fit its entity type.
	ErrCodeInvalidRecord ErrorCode = "INVALID_RECORD"

	// ErrCodeTransactionConflict indicates Begin while a transaction is active.
	ErrCodeTransactionConflict ErrorCode = "TRANSACTION_CONFLICT"

	// ErrCodeNoActiveTransaction indicates Commit or Rollback while idle.
	ErrCodeNoActiveTransaction ErrorCode = "NO_ACTIVE_TRANSACTION"
)

// Error implements the error interface.
func (e *StoreError) Error() string {
	switch {
	case e.Set != "" && e.Key != "":
		return fmt.Sprintf("%s: %s (set=%s, key=%s)", e.Code, e.Message, e.Set, e.Key)
	case e.Set != "":
		return fmt.Sprintf("%s: %s (set=%s)", e.Code, e.Message, e.Set)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the store error code of err, or "" when err is not (and
// does not wrap) a *StoreError.
func CodeOf(err error) ErrorCode {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsNotFound returns true if err is a not-found error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsTransactionConflict returns true if err reports a second Begin.
func IsTransactionConflict(err error) bool {
	return CodeOf(err) == ErrCodeTransactionConflict
}

// IsNoActiveTransaction returns true if err reports Commit/Rollback while idle.
func IsNoActiveTransaction(err error) bool {
	return CodeOf(err) == ErrCodeNoActiveTransaction
}

// NewNotFoundError creates a NOT_FOUND error for a set and key.
func NewNotFoundError(set, key string) *StoreError {
	if key == "" {
		return &StoreError{Code: ErrCodeNotFound, Message: "entity set not found", Set: set}
	}
	return &StoreError{Code: ErrCodeNotFound, Message: "record not found", Set: set, Key: key}
}

func invalidRecord(set, format string, args ...any) *StoreError {
	return &StoreError{Code: ErrCodeInvalidRecord, Message: fmt.Sprintf(format, args...), Set: set}
}
