package cfg

import (
	"fmt"

	"github.com/brilgo/brilopt/internal/ir"
)

// Block is a basic-block CFG node: a maximal straight-line sequence of
// instructions. Identity is "fI-K" (function index I, block index K).
type Block struct {
	ID           string
	FuncIndex    int
	Index        int
	Label        string // the block's own label; falls back to ID if unlabeled
	Predecessors []*Block
	Successors   []*Block
	Instrs       []ir.Instruction
	Phi          map[string]*PhiNode // keyed by pre-rename variable name
}

func blockID(funcIndex, index int) string {
	return fmt.Sprintf("f%d-%d", funcIndex, index)
}

// NodeID implements FlowNode.
func (b *Block) NodeID() string { return b.ID }

// Preds implements FlowNode.
func (b *Block) Preds() []FlowNode {
	out := make([]FlowNode, len(b.Predecessors))
	for i, p := range b.Predecessors {
		out[i] = p
	}
	return out
}

// Succs implements FlowNode.
func (b *Block) Succs() []FlowNode {
	out := make([]FlowNode, len(b.Successors))
	for i, s := range b.Successors {
		out[i] = s
	}
	return out
}

// Less implements the total order of §3.
func (b *Block) Less(other FlowNode) bool {
	o, ok := other.(*Block)
	if !ok {
		return b.ID < other.NodeID()
	}
	af, ai := parseOrderKey(b.ID)
	bf, bi := parseOrderKey(o.ID)
	if af != bf {
		return af < bf
	}
	return ai < bi
}

// AddEdge records a directed edge b -> succ in both adjacency sets,
// skipping duplicates.
func (b *Block) AddEdge(succ *Block) {
	for _, s := range b.Successors {
		if s == succ {
			return
		}
	}
	b.Successors = append(b.Successors, succ)
	succ.Predecessors = append(succ.Predecessors, b)
}

// LastInstr returns the block's final instruction, or nil if empty.
func (b *Block) LastInstr() *ir.Instruction {
	if len(b.Instrs) == 0 {
		return nil
	}
	return &b.Instrs[len(b.Instrs)-1]
}

// IsTerminated reports whether the block ends in jmp/br/ret.
func (b *Block) IsTerminated() bool {
	last := b.LastInstr()
	return last != nil && last.IsTerminator()
}

// PredLabels returns the labels of this block's CFG predecessors, used by
// φ-node construction and SSA validation.
func (b *Block) PredLabels() []string {
	out := make([]string, len(b.Predecessors))
	for i, p := range b.Predecessors {
		out[i] = p.Label
	}
	return out
}

func (b *Block) String() string {
	return fmt.Sprintf("Block(%s)", b.ID)
}
