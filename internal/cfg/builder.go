package cfg

import (
	"github.com/brilgo/brilopt/internal/ir"
	"github.com/brilgo/brilopt/internal/irerr"
)

// BlockGraph is the basic-block granularity CFG for one function (§4.1).
type BlockGraph struct {
	FuncIndex int
	Func      *ir.Function
	Blocks    []*Block
	Entry     *Block
	labelMap  map[string]*Block
}

// BuildBlockGraph constructs a basic-block CFG from a function's
// instruction list, resolving label and branch/jump targets.
//
// Construction is three passes, mirroring the reference corpus's CFG
// builder shape (identify boundaries, create blocks, connect edges):
//  1. Walk the instruction list once, closing the pending block after
//     every terminator (jmp/br/ret) and opening a new one at every label
//     marker.
//  2. Assign each block's label: the leading label if present, otherwise
//     the block's own id, so every block is addressable (§3 "Label/id
//     separation").
//  3. Add fallthrough edges between consecutive non-terminated blocks,
//     and jmp/br edges resolved through the label index.
func BuildBlockGraph(fn *ir.Function, funcIndex int) (*BlockGraph, error) {
	g := &BlockGraph{FuncIndex: funcIndex, Func: fn, labelMap: make(map[string]*Block)}

	if len(fn.Instrs) == 0 {
		return g, nil
	}

	g.Blocks = partitionBlocks(fn, funcIndex)
	if err := assignLabels(g); err != nil {
		return nil, err
	}
	if err := connectBlockEdges(g); err != nil {
		return nil, err
	}

	g.Entry = g.Blocks[0]
	return g, nil
}

func partitionBlocks(fn *ir.Function, funcIndex int) []*Block {
	var blocks []*Block
	var cur *Block
	flush := func() {
		if cur != nil {
			blocks = append(blocks, cur)
			cur = nil
		}
	}
	newBlock := func() *Block {
		return &Block{FuncIndex: funcIndex}
	}

	for i := range fn.Instrs {
		instr := fn.Instrs[i]
		if instr.IsLabel() {
			flush()
			cur = newBlock()
			cur.Instrs = append(cur.Instrs, instr)
			continue
		}
		if cur == nil {
			cur = newBlock()
		}
		cur.Instrs = append(cur.Instrs, instr)
		if instr.IsTerminator() {
			flush()
		}
	}
	flush()

	for idx, b := range blocks {
		b.Index = idx
		b.ID = blockID(funcIndex, idx)
	}
	return blocks
}

func assignLabels(g *BlockGraph) error {
	for _, b := range g.Blocks {
		label := b.ID
		if len(b.Instrs) > 0 && b.Instrs[0].IsLabel() {
			label = b.Instrs[0].Label
		}
		if existing, ok := g.labelMap[label]; ok && existing != b {
			return irerr.Malformed("duplicate label %q shared by blocks %s and %s", label, existing.ID, b.ID)
		}
		b.Label = label
		g.labelMap[label] = b
	}
	return nil
}

func connectBlockEdges(g *BlockGraph) error {
	for i, b := range g.Blocks {
		last := b.LastInstr()
		if last == nil {
			continue
		}

		switch last.Op {
		case ir.OpJmp:
			target, err := g.resolve(last.Labels[0])
			if err != nil {
				return err
			}
			b.AddEdge(target)

		case ir.OpBr:
			trueTarget, err := g.resolve(last.Labels[0])
			if err != nil {
				return err
			}
			falseTarget, err := g.resolve(last.Labels[1])
			if err != nil {
				return err
			}
			b.AddEdge(trueTarget)
			b.AddEdge(falseTarget)

		case ir.OpRet:
			// no successors

		default:
			if i+1 < len(g.Blocks) {
				b.AddEdge(g.Blocks[i+1])
			}
		}
	}
	return nil
}

func (g *BlockGraph) resolve(label string) (*Block, error) {
	b, ok := g.labelMap[label]
	if !ok {
		return nil, irerr.Unresolved(label)
	}
	return b, nil
}

// Block looks up a block by its label (or id, since every block is
// addressable by both).
func (g *BlockGraph) Block(label string) (*Block, bool) {
	b, ok := g.labelMap[label]
	return b, ok
}

// NodeGraph is the fine-grain (single-instruction) CFG for one function.
type NodeGraph struct {
	FuncIndex int
	Func      *ir.Function
	Nodes     []*Node
	Entry     *Node
	labelMap  map[string]*Node
}

// BuildNodeGraph constructs a one-node-per-instruction CFG, adding
// fallthrough edges unless the predecessor is jmp/br, and resolving
// jmp/br targets through the label index (§4.1 "Fine-grain form").
func BuildNodeGraph(fn *ir.Function, funcIndex int) (*NodeGraph, error) {
	g := &NodeGraph{FuncIndex: funcIndex, Func: fn, labelMap: make(map[string]*Node)}

	if len(fn.Instrs) == 0 {
		return g, nil
	}

	for i := range fn.Instrs {
		instr := fn.Instrs[i]
		n := &Node{
			ID:         nodeID(funcIndex, i),
			FuncIndex:  funcIndex,
			InstrIndex: i,
			Instr:      &fn.Instrs[i],
		}
		if instr.IsLabel() {
			n.Label = instr.Label
			if existing, ok := g.labelMap[n.Label]; ok {
				return nil, irerr.Malformed("duplicate label %q shared by nodes %s and %s", n.Label, existing.ID, n.ID)
			}
			g.labelMap[n.Label] = n
		}
		g.Nodes = append(g.Nodes, n)
	}

	for i := 0; i < len(g.Nodes)-1; i++ {
		cur := g.Nodes[i]
		if cur.Instr.Op == ir.OpJmp || cur.Instr.Op == ir.OpBr {
			continue
		}
		cur.AddEdge(g.Nodes[i+1])
	}

	for _, n := range g.Nodes {
		switch n.Instr.Op {
		case ir.OpJmp:
			target, err := g.resolve(n.Instr.Labels[0])
			if err != nil {
				return nil, err
			}
			n.AddEdge(target)
		case ir.OpBr:
			t, err := g.resolve(n.Instr.Labels[0])
			if err != nil {
				return nil, err
			}
			f, err := g.resolve(n.Instr.Labels[1])
			if err != nil {
				return nil, err
			}
			n.AddEdge(t)
			n.AddEdge(f)
		}
	}

	g.Entry = g.Nodes[0]
	return g, nil
}

func (g *NodeGraph) resolve(label string) (*Node, error) {
	n, ok := g.labelMap[label]
	if !ok {
		return nil, irerr.Unresolved(label)
	}
	return n, nil
}

// Node looks up the node carrying the given label.
func (g *NodeGraph) Node(label string) (*Node, bool) {
	n, ok := g.labelMap[label]
	return n, ok
}
