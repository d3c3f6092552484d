package expr

// Node is a filter expression tree node.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in Evaluate.
//
// Evaluated node types:
//   - BinaryOp: arithmetic, comparison and boolean operators
//   - UnaryOp: not, minus
//   - MethodCall: contains(string, string)
//   - Literal: string or 32-bit integer text
//   - Member: direct property of the record under test
//
// Lambda, LambdaRef, Alias, Enum and TypeLiteral can be represented so a
// host can hand over whatever it parsed, but always evaluate to
// NOT_IMPLEMENTED.
type Node interface {
	exprNode() // Marker method - seals interface to this package
}

// BinaryOperator names a binary operation.
type BinaryOperator string

const (
	OpAdd BinaryOperator = "add"
	OpSub BinaryOperator = "sub"
	OpMul BinaryOperator = "mul"
	OpDiv BinaryOperator = "div"
	OpMod BinaryOperator = "mod"

	OpEq BinaryOperator = "eq"
	OpNe BinaryOperator = "ne"
	OpGe BinaryOperator = "ge"
	OpGt BinaryOperator = "gt"
	OpLe BinaryOperator = "le"
	OpLt BinaryOperator = "lt"

	OpAnd BinaryOperator = "and"
	OpOr  BinaryOperator = "or"

	// Recognised but not evaluated.
	OpHas BinaryOperator = "has"
	OpIn  BinaryOperator = "in"
)

// IsArithmetic reports whether op is add, sub, mul, div or mod.
func (op BinaryOperator) IsArithmetic() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return true
	}
	return false
}

// IsComparison reports whether op is one of eq, ne, ge, gt, le, lt.
func (op BinaryOperator) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpGe, OpGt, OpLe, OpLt:
		return true
	}
	return false
}

// IsBoolean reports whether op is and/or.
func (op BinaryOperator) IsBoolean() bool {
	return op == OpAnd || op == OpOr
}

// UnaryOperator names a unary operation.
type UnaryOperator string

const (
	OpNot   UnaryOperator = "not"
	OpMinus UnaryOperator = "minus"
)

// Literal type names understood by the evaluator.
const (
	TypeString = "Edm.String"
	TypeInt32  = "Edm.Int32"
)

// MethodContains is the only method the evaluator implements.
const MethodContains = "contains"

// BinaryOp applies Op to the values of Left and Right.
// Both operands are always evaluated before the operator checks their kinds.
type BinaryOp struct {
	Op    BinaryOperator
	Left  Node
	Right Node
}

func (*BinaryOp) exprNode() {}

// UnaryOp applies Op to the value of Operand.
type UnaryOp struct {
	Op      UnaryOperator
	Operand Node
}

func (*UnaryOp) exprNode() {}

// MethodCall invokes a built-in method on evaluated arguments.
type MethodCall struct {
	Method string
	Args   []Node
}

func (*MethodCall) exprNode() {}

// Literal is a constant as it appeared in the query text.
//
// For Type == TypeString, Text includes the surrounding single quotes
// ("'Notebooks'"). Any other type is parsed as a 32-bit decimal integer.
type Literal struct {
	Text string
	Type string
}

func (*Literal) exprNode() {}

// Member references a property of the record under test.
// Only single-segment paths naming a structural property are evaluated.
type Member struct {
	Path []string
}

func (*Member) exprNode() {}

// Lambda is an any/all lambda expression.
type Lambda struct {
	Function string
	Variable string
	Body     Node
}

func (*Lambda) exprNode() {}

// LambdaRef references a lambda variable.
type LambdaRef struct {
	Variable string
}

func (*LambdaRef) exprNode() {}

// Alias references a parameter alias.
type Alias struct {
	Name string
}

func (*Alias) exprNode() {}

// Enum is an enumeration literal.
type Enum struct {
	Type   string
	Values []string
}

func (*Enum) exprNode() {}

// TypeLiteral is a type name used as a value (isof/cast arguments).
type TypeLiteral struct {
	Type string
}

func (*TypeLiteral) exprNode() {}

// Convenience constructors, mostly for tests and scenario fixtures.

// Bin builds a BinaryOp.
func Bin(op BinaryOperator, left, right Node) *BinaryOp {
	return &BinaryOp{Op: op, Left: left, Right: right}
}

// Prop builds a single-segment Member.
func Prop(name string) *Member {
	return &Member{Path: []string{name}}
}

// Str builds a quoted string Literal from an unquoted value.
func Str(s string) *Literal {
	return &Literal{Text: "'" + s + "'", Type: TypeString}
}

// Int builds an integer Literal.
func Int(text string) *Literal {
	return &Literal{Text: text, Type: TypeInt32}
}
