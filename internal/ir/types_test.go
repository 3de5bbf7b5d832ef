package ir

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		typ  *Type
		json string
	}{
		{"base", &Type{Base: "int"}, `"int"`},
		{"ctor", &Type{Ctor: "ptr", Arg: &Type{Base: "int"}}, `{"ptr":"int"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.typ.MarshalJSON()
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(data))

			var got Type
			require.NoError(t, got.UnmarshalJSON(data))
			assert.True(t, tt.typ.Equal(&got))
		})
	}
}

func TestLiteralRoundTrip(t *testing.T) {
	tests := []*Literal{BoolLiteral(true), BoolLiteral(false), IntLiteral(42), IntLiteral(-7)}
	for _, want := range tests {
		data, err := want.MarshalJSON()
		require.NoError(t, err)

		var got Literal
		require.NoError(t, got.UnmarshalJSON(data))
		assert.True(t, want.Equal(&got))
	}
}

func TestInstructionIsTerminator(t *testing.T) {
	assert.True(t, (&Instruction{Op: OpJmp}).IsTerminator())
	assert.True(t, (&Instruction{Op: OpBr}).IsTerminator())
	assert.True(t, (&Instruction{Op: OpRet}).IsTerminator())
	assert.False(t, (&Instruction{Op: "add"}).IsTerminator())
	assert.False(t, (&Instruction{Label: "entry"}).IsTerminator())
}

func TestInstructionIsLabel(t *testing.T) {
	assert.True(t, (&Instruction{Label: "entry"}).IsLabel())
	assert.False(t, (&Instruction{Op: "const", Label: ""}).IsLabel())
}

func TestProgramDecodeEncode(t *testing.T) {
	src := `{
  "functions": [
    {
      "name": "main",
      "instrs": [
        {"dest": "v1", "op": "const", "type": "int", "value": 1},
        {"args": ["v1"], "op": "print"},
        {"op": "ret"}
      ]
    }
  ]
}`
	prog, err := Decode(bytes.NewBufferString(src))
	require.NoError(t, err)
	require.Len(t, prog.Functions, 1)
	assert.Equal(t, "main", prog.Functions[0].Name)
	assert.Len(t, prog.Functions[0].Instrs, 3)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, prog))
	assert.Contains(t, buf.String(), `"name": "main"`)
}

func TestDecodeMalformedJSON(t *testing.T) {
	_, err := Decode(bytes.NewBufferString(`{not json`))
	require.Error(t, err)
}
