package tracestitch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brilgo/brilopt/internal/ir"
)

func TestStitchSplicesTraceAfterEntryLabel(t *testing.T) {
	fn := &ir.Function{Name: "main", Instrs: []ir.Instruction{
		{Label: "entry"},
		{Op: "const", Dest: "sum", Type: &ir.Type{Base: "int"}, Value: ir.IntLiteral(0)},
		{Op: "print", Args: []string{"sum"}},
		{Op: "ret"},
	}}

	trace := []ir.Instruction{
		{Op: "const", Dest: "one", Type: &ir.Type{Base: "int"}, Value: ir.IntLiteral(1)},
		{Op: "add", Dest: "sum", Args: []string{"sum", "one"}, Type: &ir.Type{Base: "int"}},
	}

	Stitch(fn, trace, nil)

	require.Equal(t, "entry", fn.Instrs[0].Label)
	require.Equal(t, "speculate", fn.Instrs[1].Op)
	require.Equal(t, "const", fn.Instrs[2].Op)
	require.Equal(t, "one", fn.Instrs[2].Dest)
	require.Equal(t, "add", fn.Instrs[3].Op)
	require.Equal(t, "commit", fn.Instrs[4].Op)
	require.Equal(t, "ret", fn.Instrs[5].Op)
	require.Equal(t, "failed", fn.Instrs[6].Label)
	require.Equal(t, "const", fn.Instrs[7].Op, "the original body becomes the failure continuation")
	require.Equal(t, "sum", fn.Instrs[7].Dest)
}

func TestStitchNoOpWithoutEntryLabel(t *testing.T) {
	fn := &ir.Function{Name: "helper", Instrs: []ir.Instruction{
		{Op: "const", Dest: "x", Type: &ir.Type{Base: "int"}, Value: ir.IntLiteral(1)},
		{Op: "ret"},
	}}
	original := append([]ir.Instruction(nil), fn.Instrs...)

	Stitch(fn, []ir.Instruction{{Op: "const", Dest: "y", Value: ir.IntLiteral(2)}}, nil)

	require.Equal(t, original, fn.Instrs)
}

func TestStripBranchesRemovesBr(t *testing.T) {
	in := []ir.Instruction{
		{Op: "const", Dest: "x", Value: ir.IntLiteral(1)},
		{Op: "br", Args: []string{"x"}, Labels: []string{"a", "b"}},
		{Op: "id", Dest: "y", Args: []string{"x"}},
	}
	out := StripBranches(in)
	require.Len(t, out, 2)
	require.Equal(t, "const", out[0].Op)
	require.Equal(t, "id", out[1].Op)
}
