package expr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/txstore/internal/ir"
)

func TestDecodeYAMLBinary(t *testing.T) {
	node, err := DecodeYAML([]byte(`
op: and
left:
  op: gt
  left: {member: Age}
  right: {literal: 18}
right:
  method: contains
  args:
    - {member: Name}
    - {literal: "'Basic'"}
`))
	require.NoError(t, err)

	assert.Equal(t, Bin(OpAnd,
		Bin(OpGt, Prop("Age"), Int("18")),
		&MethodCall{Method: MethodContains, Args: []Node{Prop("Name"), Str("Basic")}},
	), node)
}

func TestDecodeUnary(t *testing.T) {
	node, err := Decode(map[string]any{
		"op":      "not",
		"operand": map[string]any{"member": "Active"},
	})
	require.NoError(t, err)
	assert.Equal(t, &UnaryOp{Op: OpNot, Operand: Prop("Active")}, node)
}

func TestDecodeLiteralTypes(t *testing.T) {
	node, err := Decode(map[string]any{"literal": "'x'", "type": "Edm.String"})
	require.NoError(t, err)
	assert.Equal(t, Str("x"), node)

	node, err = Decode(map[string]any{"literal": 7})
	require.NoError(t, err)
	assert.Equal(t, Int("7"), node)

	node, err = Decode(map[string]any{"literal": "12", "type": "Edm.Int32"})
	require.NoError(t, err)
	assert.Equal(t, Int("12"), node)

	_, err = Decode(map[string]any{"literal": []any{1}})
	assert.Error(t, err)
}

func TestDecodeUnquotedStringLiteral(t *testing.T) {
	node, err := DecodeYAML([]byte(`literal: Notebooks`))
	require.NoError(t, err)
	assert.Equal(t, Str("Notebooks"), node)

	got, err := Evaluate(node, nil)
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("Notebooks"), got)

	node, err = Decode(map[string]any{"literal": "x", "type": "Edm.String"})
	require.NoError(t, err)
	assert.Equal(t, Str("x"), node)
}

func TestDecodeMemberPath(t *testing.T) {
	node, err := Decode(map[string]any{"member": []any{"Category", "Name"}})
	require.NoError(t, err)
	assert.Equal(t, &Member{Path: []string{"Category", "Name"}}, node)

	_, err = Decode(map[string]any{"member": 3})
	assert.Error(t, err)
}

func TestDecodeUnsupportedKinds(t *testing.T) {
	node, err := DecodeYAML([]byte(`{lambda: any, variable: d, body: {member: Age}}`))
	require.NoError(t, err)
	assert.Equal(t, &Lambda{Function: "any", Variable: "d", Body: Prop("Age")}, node)

	node, err = DecodeYAML([]byte(`{alias: "@p"}`))
	require.NoError(t, err)
	assert.Equal(t, &Alias{Name: "@p"}, node)

	node, err = DecodeYAML([]byte(`{enum: Demo.Color, values: [Red, Blue]}`))
	require.NoError(t, err)
	assert.Equal(t, &Enum{Type: "Demo.Color", Values: []string{"Red", "Blue"}}, node)

	node, err = DecodeYAML([]byte(`{typeLiteral: Edm.Int32}`))
	require.NoError(t, err)
	assert.Equal(t, &TypeLiteral{Type: "Edm.Int32"}, node)

	node, err = DecodeYAML([]byte(`{lambdaRef: d}`))
	require.NoError(t, err)
	assert.Equal(t, &LambdaRef{Variable: "d"}, node)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode("Age gt 5")
	assert.Error(t, err)

	_, err = Decode(map[string]any{"nothing": true})
	assert.Error(t, err)

	_, err = Decode(map[string]any{"op": "eq", "left": map[string]any{"member": "A"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "right")

	_, err = DecodeYAML([]byte("op: [unterminated"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("method: contains\nargs: [{member: Name}, {literal: \"'Note'\", type: Edm.String}]\n"), 0o644))

	node, err := LoadFile(path)
	require.NoError(t, err)

	want, err := Decode(map[string]any{
		"method": "contains",
		"args": []any{
			map[string]any{"member": "Name"},
			map[string]any{"literal": "'Note'", "type": "Edm.String"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, want, node)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read expression file")
}
