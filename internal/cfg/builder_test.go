package cfg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brilgo/brilopt/internal/ir"
	"github.com/brilgo/brilopt/internal/irerr"
)

func asIRErr(t *testing.T, err error) *irerr.Error {
	t.Helper()
	ie, ok := err.(*irerr.Error)
	require.True(t, ok, "expected *irerr.Error, got %T", err)
	return ie
}

func TestBuildBlockGraphEmptyFunctionIsEmptyGraph(t *testing.T) {
	fn := &ir.Function{Name: "main"}
	g, err := BuildBlockGraph(fn, 0)
	require.NoError(t, err)
	require.Empty(t, g.Blocks)
	require.Nil(t, g.Entry)
}

func TestBuildNodeGraphEmptyFunctionIsEmptyGraph(t *testing.T) {
	fn := &ir.Function{Name: "main"}
	g, err := BuildNodeGraph(fn, 0)
	require.NoError(t, err)
	require.Empty(t, g.Nodes)
	require.Nil(t, g.Entry)
}

func TestBuildBlockGraphLabelOnlyFunctionIsOneBlock(t *testing.T) {
	fn := &ir.Function{Name: "main", Instrs: []ir.Instruction{{Label: "entry"}}}
	g, err := BuildBlockGraph(fn, 0)
	require.NoError(t, err)
	require.Len(t, g.Blocks, 1)
	require.Equal(t, "entry", g.Entry.Label)
	require.Empty(t, g.Entry.Successors)
	require.Empty(t, g.Entry.Predecessors)
}

func TestBuildNodeGraphLabelOnlyFunctionIsOneNode(t *testing.T) {
	fn := &ir.Function{Name: "main", Instrs: []ir.Instruction{{Label: "entry"}}}
	g, err := BuildNodeGraph(fn, 0)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 1)
	require.Equal(t, "entry", g.Entry.Label)
	require.Empty(t, g.Entry.Successors)
}

func TestBuildBlockGraphSelfLoopBlock(t *testing.T) {
	fn := &ir.Function{Name: "main", Instrs: []ir.Instruction{
		{Label: "loop"},
		{Op: "const", Dest: "x", Type: &ir.Type{Base: "int"}, Value: ir.IntLiteral(1)},
		{Op: "jmp", Labels: []string{"loop"}},
	}}
	g, err := BuildBlockGraph(fn, 0)
	require.NoError(t, err)
	require.Len(t, g.Blocks, 1)
	loop := g.Blocks[0]
	require.Len(t, loop.Successors, 1)
	require.Same(t, loop, loop.Successors[0])
	require.Len(t, loop.Predecessors, 1)
	require.Same(t, loop, loop.Predecessors[0])
}

func TestBuildNodeGraphSelfLoopBlock(t *testing.T) {
	fn := &ir.Function{Name: "main", Instrs: []ir.Instruction{
		{Label: "loop"},
		{Op: "jmp", Labels: []string{"loop"}},
	}}
	g, err := BuildNodeGraph(fn, 0)
	require.NoError(t, err)
	label, ok := g.Node("loop")
	require.True(t, ok)
	require.Len(t, label.Successors, 1)
	jmp := label.Successors[0]
	require.Len(t, jmp.Successors, 1)
	require.Same(t, label, jmp.Successors[0])
}

func TestBuildBlockGraphUnresolvedJmpTarget(t *testing.T) {
	fn := &ir.Function{Name: "main", Instrs: []ir.Instruction{
		{Op: "jmp", Labels: []string{"nowhere"}},
	}}
	_, err := BuildBlockGraph(fn, 0)
	ie := asIRErr(t, err)
	require.Equal(t, irerr.UnresolvedLabel, ie.Kind)
}

func TestBuildBlockGraphUnresolvedBrTarget(t *testing.T) {
	fn := &ir.Function{Name: "main", Instrs: []ir.Instruction{
		{Op: "const", Dest: "cond", Type: &ir.Type{Base: "bool"}, Value: ir.BoolLiteral(true)},
		{Op: "br", Args: []string{"cond"}, Labels: []string{"left", "nowhere"}},
		{Label: "left"},
		{Op: "ret"},
	}}
	_, err := BuildBlockGraph(fn, 0)
	ie := asIRErr(t, err)
	require.Equal(t, irerr.UnresolvedLabel, ie.Kind)
}

func TestBuildNodeGraphUnresolvedJmpTarget(t *testing.T) {
	fn := &ir.Function{Name: "main", Instrs: []ir.Instruction{
		{Op: "jmp", Labels: []string{"nowhere"}},
	}}
	_, err := BuildNodeGraph(fn, 0)
	ie := asIRErr(t, err)
	require.Equal(t, irerr.UnresolvedLabel, ie.Kind)
}

func TestBuildBlockGraphDuplicateLabelIsMalformed(t *testing.T) {
	fn := &ir.Function{Name: "main", Instrs: []ir.Instruction{
		{Label: "dup"},
		{Op: "jmp", Labels: []string{"dup2"}},
		{Label: "dup2"},
		{Op: "jmp", Labels: []string{"dup"}},
		{Label: "dup"},
		{Op: "ret"},
	}}
	_, err := BuildBlockGraph(fn, 0)
	ie := asIRErr(t, err)
	require.Equal(t, irerr.MalformedInput, ie.Kind)
}

func TestBuildNodeGraphDuplicateLabelIsMalformed(t *testing.T) {
	fn := &ir.Function{Name: "main", Instrs: []ir.Instruction{
		{Label: "dup"},
		{Op: "jmp", Labels: []string{"dup"}},
		{Label: "dup"},
		{Op: "ret"},
	}}
	_, err := BuildNodeGraph(fn, 0)
	ie := asIRErr(t, err)
	require.Equal(t, irerr.MalformedInput, ie.Kind)
}

func TestBuildBlockGraphFallthroughBetweenUnterminatedBlocks(t *testing.T) {
	fn := &ir.Function{Name: "main", Instrs: []ir.Instruction{
		{Label: "a"},
		{Op: "const", Dest: "x", Type: &ir.Type{Base: "int"}, Value: ir.IntLiteral(1)},
		{Label: "b"},
		{Op: "ret"},
	}}
	g, err := BuildBlockGraph(fn, 0)
	require.NoError(t, err)
	require.Len(t, g.Blocks, 2)
	a, b := g.Blocks[0], g.Blocks[1]
	require.Equal(t, []*Block{b}, a.Successors, "an unterminated block falls through to the next")
	require.Equal(t, []*Block{a}, b.Predecessors)
}

func TestBuildBlockGraphBlockIsAddressableByLabelAndID(t *testing.T) {
	fn := &ir.Function{Name: "main", Instrs: []ir.Instruction{
		{Op: "const", Dest: "x", Type: &ir.Type{Base: "int"}, Value: ir.IntLiteral(1)},
		{Op: "ret"},
	}}
	g, err := BuildBlockGraph(fn, 0)
	require.NoError(t, err)
	byID, ok := g.Block("f0-0")
	require.True(t, ok)
	require.Same(t, g.Blocks[0], byID)
}
