// Package expr evaluates filter expression trees against a single record.
//
// The evaluator is a tree walk over a sealed Node union. Operands are
// closed to ir.IRInt, ir.IRString and ir.IRBool (plus ir.IRNull read from
// records); every operator checks its operand kinds and fails with a coded
// *EvalError instead of coercing.
package expr
