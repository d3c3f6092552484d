package expr

import (
	"errors"
	"fmt"
)

// EvalError represents a failure while evaluating an expression.
type EvalError struct {
	// Code identifies the error category.
	Code EvalErrorCode

	// Message is a human-readable description.
	Message string
}

// EvalErrorCode categorizes evaluation errors.
type EvalErrorCode string

const (
	// ErrCodeTypeMismatch indicates operands of incompatible kinds, or a
	// kind the operator does not accept (boolean, unary and method operands).
	ErrCodeTypeMismatch EvalErrorCode = "TYPE_MISMATCH"

	// ErrCodeUnsupportedOperand indicates arithmetic on non-integers, or a
	// comparison between two values of a kind that has no ordering.
	ErrCodeUnsupportedOperand EvalErrorCode = "UNSUPPORTED_OPERAND_TYPE"

	// ErrCodeNotImplemented indicates an operator, method, node kind or
	// literal type outside the evaluated subset.
	ErrCodeNotImplemented EvalErrorCode = "NOT_IMPLEMENTED"

	// ErrCodeDivisionByZero indicates div or mod with a zero divisor.
	ErrCodeDivisionByZero EvalErrorCode = "DIVISION_BY_ZERO"
)

// Error implements the error interface.
func (e *EvalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the evaluation error code of err, or "" when err is not
// (and does not wrap) an *EvalError.
func CodeOf(err error) EvalErrorCode {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// IsTypeMismatch returns true if err is a type mismatch error.
// Uses errors.As to handle wrapped errors.
func IsTypeMismatch(err error) bool {
	return CodeOf(err) == ErrCodeTypeMismatch
}

// IsNotImplemented returns true if err is a not-implemented error.
func IsNotImplemented(err error) bool {
	return CodeOf(err) == ErrCodeNotImplemented
}

// IsUnsupportedOperand returns true if err is an unsupported operand error.
func IsUnsupportedOperand(err error) bool {
	return CodeOf(err) == ErrCodeUnsupportedOperand
}

// NewEvalError creates an evaluation error with the given code.
func NewEvalError(code EvalErrorCode, format string, args ...any) *EvalError {
	return &EvalError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func typeMismatch(format string, args ...any) *EvalError {
	return &EvalError{Code: ErrCodeTypeMismatch, Message: fmt.Sprintf(format, args...)}
}

func unsupportedOperand(format string, args ...any) *EvalError {
	return &EvalError{Code: ErrCodeUnsupportedOperand, Message: fmt.Sprintf(format, args...)}
}

func notImplemented(format string, args ...any) *EvalError {
	return &EvalError{Code: ErrCodeNotImplemented, Message: fmt.Sprintf(format, args...)}
}
