package cfg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brilgo/brilopt/internal/ir"
	"github.com/brilgo/brilopt/internal/irerr"
)

// diamond builds: entry -> br -> (left | right) -> join -> ret, a minimal
// CFG with one real dominance-frontier boundary at join.
func diamond() *ir.Function {
	return &ir.Function{Name: "main", Instrs: []ir.Instruction{
		{Op: "const", Dest: "cond", Type: &ir.Type{Base: "bool"}, Value: ir.BoolLiteral(true)},
		{Op: "br", Args: []string{"cond"}, Labels: []string{"left", "right"}},
		{Label: "left"},
		{Op: "jmp", Labels: []string{"join"}},
		{Label: "right"},
		{Op: "jmp", Labels: []string{"join"}},
		{Label: "join"},
		{Op: "ret"},
	}}
}

func TestComputeDominatorsRejectsEntryWithPredecessors(t *testing.T) {
	g, err := BuildBlockGraph(diamond(), 0)
	require.NoError(t, err)

	join, ok := g.Block("join")
	require.True(t, ok)
	require.NotEmpty(t, join.Predecessors, "join must have predecessors for this test to be meaningful")

	_, err = ComputeDominators(join)
	require.Error(t, err)
	ie, ok := err.(*irerr.Error)
	require.True(t, ok)
	require.Equal(t, irerr.InvalidEntry, ie.Kind)
}

func TestComputeDominatorsAcceptsTrueEntry(t *testing.T) {
	g, err := BuildBlockGraph(diamond(), 0)
	require.NoError(t, err)

	d, err := ComputeDominators(g.Entry)
	require.NoError(t, err)
	require.NotNil(t, d)
}

func TestComputeDominatorsImmediateDominatorTree(t *testing.T) {
	g, err := BuildBlockGraph(diamond(), 0)
	require.NoError(t, err)
	d, err := ComputeDominators(g.Entry)
	require.NoError(t, err)

	left, _ := g.Block("left")
	right, _ := g.Block("right")
	join, _ := g.Block("join")

	require.Equal(t, g.Entry.NodeID(), d.ImmediateDominator(left).NodeID())
	require.Equal(t, g.Entry.NodeID(), d.ImmediateDominator(right).NodeID())
	require.Equal(t, g.Entry.NodeID(), d.ImmediateDominator(join).NodeID(),
		"join is reached from both branches, so only entry strictly dominates it")
	require.Nil(t, d.ImmediateDominator(g.Entry), "entry has no immediate dominator")
}

func TestComputeDominatorsFrontierAtJoin(t *testing.T) {
	g, err := BuildBlockGraph(diamond(), 0)
	require.NoError(t, err)
	d, err := ComputeDominators(g.Entry)
	require.NoError(t, err)

	left, _ := g.Block("left")
	right, _ := g.Block("right")
	join, _ := g.Block("join")

	leftFrontier := d.Frontier(left)
	require.Len(t, leftFrontier, 1)
	require.Equal(t, join.NodeID(), leftFrontier[0].NodeID())

	rightFrontier := d.Frontier(right)
	require.Len(t, rightFrontier, 1)
	require.Equal(t, join.NodeID(), rightFrontier[0].NodeID())

	require.Empty(t, d.Frontier(join), "join's own frontier is empty: nothing merges past it")
}

func TestComputeDominatorsSelfLoopEntryIsInvalid(t *testing.T) {
	fn := &ir.Function{Name: "main", Instrs: []ir.Instruction{
		{Label: "loop"},
		{Op: "const", Dest: "x", Type: &ir.Type{Base: "int"}, Value: ir.IntLiteral(1)},
		{Op: "jmp", Labels: []string{"loop"}},
	}}
	g, err := BuildBlockGraph(fn, 0)
	require.NoError(t, err)

	// The only block is both entry and its own predecessor, so it is
	// rejected the same way any non-entry node would be.
	_, err = ComputeDominators(g.Entry)
	require.Error(t, err)
	ie, ok := err.(*irerr.Error)
	require.True(t, ok)
	require.Equal(t, irerr.InvalidEntry, ie.Kind)
}

func TestComputeDominatorsSelfLoopBodyDominatesItself(t *testing.T) {
	// entry -> loop -> (loop | exit): loop is a self-loop block that is
	// not the entry, so dominators must still resolve past the cycle.
	fn := &ir.Function{Name: "main", Instrs: []ir.Instruction{
		{Op: "jmp", Labels: []string{"loop"}},
		{Label: "loop"},
		{Op: "const", Dest: "cond", Type: &ir.Type{Base: "bool"}, Value: ir.BoolLiteral(true)},
		{Op: "br", Args: []string{"cond"}, Labels: []string{"loop", "exit"}},
		{Label: "exit"},
		{Op: "ret"},
	}}
	g, err := BuildBlockGraph(fn, 0)
	require.NoError(t, err)

	d, err := ComputeDominators(g.Entry)
	require.NoError(t, err)

	loop, ok := g.Block("loop")
	require.True(t, ok)
	require.True(t, d.Dominates(loop, loop))
	require.False(t, d.StrictlyDominates(loop, loop))

	exit, ok := g.Block("exit")
	require.True(t, ok)
	require.True(t, d.StrictlyDominates(loop, exit))
}

func TestComputeDominatorsEmptyFunctionHasNoEntry(t *testing.T) {
	g, err := BuildBlockGraph(&ir.Function{Name: "main"}, 0)
	require.NoError(t, err)
	require.Nil(t, g.Entry, "an empty function produces no blocks, so there is nothing to run dominators over")
}

func TestReachableIsBFSOrderStartingAtEntry(t *testing.T) {
	g, err := BuildBlockGraph(diamond(), 0)
	require.NoError(t, err)

	reachable := Reachable(g.Entry)
	require.Len(t, reachable, len(g.Blocks))
	require.Equal(t, g.Entry.NodeID(), reachable[0].NodeID())
}
