package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/txstore/internal/ir"
)

// Evaluate computes the value of node against rec.
//
// The result is one of ir.IRInt, ir.IRString, ir.IRBool, or whatever value
// a Member reads from the record (which may be ir.IRNull). Evaluate is a pure
// function with no side effects on rec.
func Evaluate(node Node, rec *ir.Record) (ir.IRValue, error) {
	switch n := node.(type) {
	case *BinaryOp:
		return evalBinary(n, rec)
	case *UnaryOp:
		return evalUnary(n, rec)
	case *MethodCall:
		return evalMethod(n, rec)
	case *Literal:
		return evalLiteral(n)
	case *Member:
		return evalMember(n, rec)
	case *Lambda:
		return nil, notImplemented("lambda expressions are not implemented")
	case *LambdaRef:
		return nil, notImplemented("lambda references are not implemented")
	case *Alias:
		return nil, notImplemented("aliases are not implemented")
	case *Enum:
		return nil, notImplemented("enums are not implemented")
	case *TypeLiteral:
		return nil, notImplemented("type literals are not implemented")
	case nil:
		return nil, notImplemented("empty expression")
	default:
		return nil, notImplemented("unknown expression node %T", node)
	}
}

func evalBinary(n *BinaryOp, rec *ir.Record) (ir.IRValue, error) {
	left, err := Evaluate(n.Left, rec)
	if err != nil {
		return nil, err
	}
	right, err := Evaluate(n.Right, rec)
	if err != nil {
		return nil, err
	}

	switch {
	case n.Op.IsArithmetic():
		return arithmetic(n.Op, left, right)
	case n.Op.IsComparison():
		return comparison(n.Op, left, right)
	case n.Op.IsBoolean():
		return boolean(n.Op, left, right)
	default:
		return nil, notImplemented("binary operation %s is not implemented", n.Op)
	}
}

func arithmetic(op BinaryOperator, left, right ir.IRValue) (ir.IRValue, error) {
	l, lok := left.(ir.IRInt)
	r, rok := right.(ir.IRInt)
	if !lok || !rok {
		return nil, unsupportedOperand("arithmetic operation %s needs two integer operands, got %s and %s",
			op, ir.KindOf(left), ir.KindOf(right))
	}

	switch op {
	case OpAdd:
		return l + r, nil
	case OpSub:
		return l - r, nil
	case OpMul:
		return l * r, nil
	case OpDiv:
		if r == 0 {
			return nil, &EvalError{Code: ErrCodeDivisionByZero, Message: "division by zero"}
		}
		return l / r, nil
	default:
		if r == 0 {
			return nil, &EvalError{Code: ErrCodeDivisionByZero, Message: "modulo by zero"}
		}
		return l % r, nil
	}
}

func comparison(op BinaryOperator, left, right ir.IRValue) (ir.IRValue, error) {
	lk, rk := ir.KindOf(left), ir.KindOf(right)
	if lk != rk {
		return nil, typeMismatch("comparison %s needs two operands of the same type, got %s and %s", op, lk, rk)
	}

	switch lk {
	case ir.KindInt, ir.KindString, ir.KindBool:
	default:
		return nil, unsupportedOperand("values of type %s cannot be compared", lk)
	}

	c := ir.Compare(left, right)
	switch op {
	case OpEq:
		return ir.IRBool(c == 0), nil
	case OpNe:
		return ir.IRBool(c != 0), nil
	case OpGe:
		return ir.IRBool(c >= 0), nil
	case OpGt:
		return ir.IRBool(c > 0), nil
	case OpLe:
		return ir.IRBool(c <= 0), nil
	default:
		return ir.IRBool(c < 0), nil
	}
}

func boolean(op BinaryOperator, left, right ir.IRValue) (ir.IRValue, error) {
	l, lok := left.(ir.IRBool)
	r, rok := right.(ir.IRBool)
	if !lok || !rok {
		return nil, typeMismatch("boolean operation %s needs two boolean operands, got %s and %s",
			op, ir.KindOf(left), ir.KindOf(right))
	}
	if op == OpAnd {
		return l && r, nil
	}
	return l || r, nil
}

func evalUnary(n *UnaryOp, rec *ir.Record) (ir.IRValue, error) {
	if n.Op != OpNot && n.Op != OpMinus {
		return nil, notImplemented("unary operation %s is not implemented", n.Op)
	}

	v, err := Evaluate(n.Operand, rec)
	if err != nil {
		return nil, err
	}

	switch val := v.(type) {
	case ir.IRBool:
		if n.Op == OpNot {
			return !val, nil
		}
	case ir.IRInt:
		if n.Op == OpMinus {
			return -val, nil
		}
	}
	return nil, typeMismatch("invalid operand type %s for unary operator %s", ir.KindOf(v), n.Op)
}

func evalMethod(n *MethodCall, rec *ir.Record) (ir.IRValue, error) {
	if n.Method != MethodContains {
		return nil, notImplemented("method call %s is not implemented", n.Method)
	}
	if len(n.Args) != 2 {
		return nil, typeMismatch("contains needs two arguments, got %d", len(n.Args))
	}

	args := make([]ir.IRValue, len(n.Args))
	for i, a := range n.Args {
		v, err := Evaluate(a, rec)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	haystack, ok1 := args[0].(ir.IRString)
	needle, ok2 := args[1].(ir.IRString)
	if !ok1 || !ok2 {
		return nil, typeMismatch("contains needs two string arguments, got %s and %s",
			ir.KindOf(args[0]), ir.KindOf(args[1]))
	}
	return ir.IRBool(strings.Contains(string(haystack), string(needle))), nil
}

func evalLiteral(n *Literal) (ir.IRValue, error) {
	if n.Type == TypeString {
		// Quoted text shorter than three characters ("''" or malformed)
		// yields the empty string.
		if len(n.Text) > 2 {
			return ir.IRString(n.Text[1 : len(n.Text)-1]), nil
		}
		return ir.IRString(""), nil
	}

	i, err := strconv.ParseInt(n.Text, 10, 32)
	if err != nil {
		return nil, notImplemented("only %s and %s literals are implemented, got %q", TypeInt32, TypeString, n.Text)
	}
	return ir.IRInt(i), nil
}

func evalMember(n *Member, rec *ir.Record) (ir.IRValue, error) {
	if len(n.Path) != 1 {
		return nil, notImplemented("only single-segment property paths are implemented, got %q",
			strings.Join(n.Path, "/"))
	}
	if rec == nil {
		return nil, notImplemented("member %q evaluated without a record", n.Path[0])
	}

	name := n.Path[0]
	v, ok := rec.Value(name)
	if !ok {
		if rec.Link(name) != nil {
			return nil, notImplemented("navigation %q in filter expressions is not implemented", name)
		}
		return nil, notImplemented("only primitive properties are implemented in filter expressions, got %q", name)
	}
	return v, nil
}

// String renders node in a compact prefix form for logs and error messages.
func String(node Node) string {
	switch n := node.(type) {
	case *BinaryOp:
		return fmt.Sprintf("(%s %s %s)", String(n.Left), n.Op, String(n.Right))
	case *UnaryOp:
		return fmt.Sprintf("(%s %s)", n.Op, String(n.Operand))
	case *MethodCall:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = String(a)
		}
		return n.Method + "(" + strings.Join(args, ",") + ")"
	case *Literal:
		return n.Text
	case *Member:
		return strings.Join(n.Path, "/")
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("<%T>", node)
	}
}
