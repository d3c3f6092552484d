package expr

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Decode builds an expression tree from its map form, as produced by
// decoding YAML or JSON into any. The form is structural; there is no
// infix grammar.
//
//	{op: gt, left: {member: Age}, right: {literal: "'x'", type: Edm.String}}
//	{op: not, operand: {...}}
//	{method: contains, args: [{member: Name}, {literal: "'Note'", type: Edm.String}]}
//	{literal: 5}
//	{member: Name}            or {member: [Category, Name]}
//	{lambda: any, variable: d, body: {...}}
//	{lambdaRef: d}  {alias: "@p"}  {enum: Demo.Color, values: [Red]}  {typeLiteral: Edm.Int32}
func Decode(raw any) (Node, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expression must be a mapping, got %T", raw)
	}

	switch {
	case has(m, "op"):
		op, err := stringField(m, "op")
		if err != nil {
			return nil, err
		}
		if has(m, "operand") {
			operand, err := Decode(m["operand"])
			if err != nil {
				return nil, fmt.Errorf("operand: %w", err)
			}
			return &UnaryOp{Op: UnaryOperator(op), Operand: operand}, nil
		}
		left, err := Decode(m["left"])
		if err != nil {
			return nil, fmt.Errorf("left: %w", err)
		}
		right, err := Decode(m["right"])
		if err != nil {
			return nil, fmt.Errorf("right: %w", err)
		}
		return &BinaryOp{Op: BinaryOperator(op), Left: left, Right: right}, nil

	case has(m, "method"):
		method, err := stringField(m, "method")
		if err != nil {
			return nil, err
		}
		rawArgs, _ := m["args"].([]any)
		args := make([]Node, len(rawArgs))
		for i, a := range rawArgs {
			args[i], err = Decode(a)
			if err != nil {
				return nil, fmt.Errorf("args[%d]: %w", i, err)
			}
		}
		return &MethodCall{Method: method, Args: args}, nil

	case has(m, "literal"):
		return decodeLiteral(m)

	case has(m, "member"):
		switch p := m["member"].(type) {
		case string:
			return &Member{Path: []string{p}}, nil
		case []any:
			path := make([]string, len(p))
			for i, seg := range p {
				s, ok := seg.(string)
				if !ok {
					return nil, fmt.Errorf("member[%d] must be a string, got %T", i, seg)
				}
				path[i] = s
			}
			return &Member{Path: path}, nil
		default:
			return nil, fmt.Errorf("member must be a string or list, got %T", p)
		}

	case has(m, "lambda"):
		fn, _ := m["lambda"].(string)
		variable, _ := m["variable"].(string)
		var body Node
		if b, ok := m["body"]; ok {
			var err error
			if body, err = Decode(b); err != nil {
				return nil, fmt.Errorf("body: %w", err)
			}
		}
		return &Lambda{Function: fn, Variable: variable, Body: body}, nil

	case has(m, "lambdaRef"):
		v, _ := m["lambdaRef"].(string)
		return &LambdaRef{Variable: v}, nil

	case has(m, "alias"):
		v, _ := m["alias"].(string)
		return &Alias{Name: v}, nil

	case has(m, "enum"):
		typ, _ := m["enum"].(string)
		var values []string
		if raw, ok := m["values"].([]any); ok {
			for _, v := range raw {
				values = append(values, fmt.Sprint(v))
			}
		}
		return &Enum{Type: typ, Values: values}, nil

	case has(m, "typeLiteral"):
		v, _ := m["typeLiteral"].(string)
		return &TypeLiteral{Type: v}, nil
	}

	return nil, fmt.Errorf("unrecognised expression: no op, method, literal or member key")
}

// DecodeYAML parses a YAML (or JSON) document into an expression tree.
func DecodeYAML(data []byte) (Node, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse expression: %w", err)
	}
	return Decode(raw)
}

// LoadFile reads an expression tree from a YAML file.
func LoadFile(path string) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read expression file: %w", err)
	}
	return DecodeYAML(data)
}

func decodeLiteral(m map[string]any) (Node, error) {
	typ, _ := m["type"].(string)

	switch v := m["literal"].(type) {
	case string:
		if typ == "" {
			typ = TypeString
		}
		if typ == TypeString && !isQuoted(v) {
			v = "'" + v + "'"
		}
		return &Literal{Text: v, Type: typ}, nil
	case int:
		if typ == "" {
			typ = TypeInt32
		}
		return &Literal{Text: strconv.Itoa(v), Type: typ}, nil
	case int64:
		if typ == "" {
			typ = TypeInt32
		}
		return &Literal{Text: strconv.FormatInt(v, 10), Type: typ}, nil
	case float64:
		if typ == "" {
			typ = TypeInt32
		}
		return &Literal{Text: strconv.FormatFloat(v, 'f', -1, 64), Type: typ}, nil
	case bool:
		return &Literal{Text: strconv.FormatBool(v), Type: "Edm.Boolean"}, nil
	default:
		return nil, fmt.Errorf("literal must be a scalar, got %T", v)
	}
}

// isQuoted reports whether s is wrapped in single quotes.
func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\''
}

func has(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func stringField(m map[string]any, key string) (string, error) {
	s, ok := m[key].(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, m[key])
	}
	return s, nil
}
