// Package cfg builds and manipulates control-flow graphs over the IR, at
// both single-instruction (fine-grain) and basic-block granularity. Both
// representations share the FlowNode abstraction so the data-flow engine,
// dominator engine, and SSA pass can operate over either one.
package cfg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/brilgo/brilopt/internal/ir"
)

// FlowNode is the minimal graph abstraction the dominator engine and the
// data-flow framework depend on. Node and Block both implement it, so
// those engines are agnostic to granularity.
type FlowNode interface {
	NodeID() string
	Preds() []FlowNode
	Succs() []FlowNode
	// Less reports a total order over nodes of the same concrete type,
	// used for deterministic traversal and visualization (§3 "Identity
	// and ordering").
	Less(other FlowNode) bool
}

// Node is a fine-grain CFG node: one instruction per node. Identity is
// "fI-J" (function index I, instruction index J within that function).
type Node struct {
	ID           string
	FuncIndex    int
	InstrIndex   int
	Instr        *ir.Instruction
	Label        string // the label this node carries, if any
	Predecessors []*Node
	Successors   []*Node
	Phi          map[string]*PhiNode // keyed by pre-rename variable name
}

// RootNode describes the function-level metadata attached to a graph's
// entry point.
type RootNode struct {
	FuncName string
	Params   []ir.Argument
	RetType  *ir.Type
	Entry    FlowNode
}

func nodeID(funcIndex, instrIndex int) string {
	return "f" + strconv.Itoa(funcIndex) + "-" + strconv.Itoa(instrIndex)
}

// parseOrderKey extracts the (funcIndex, index) pair from an id of the
// form "fI-J", used only for deterministic ordering (§3).
func parseOrderKey(id string) (int, int) {
	if !strings.HasPrefix(id, "f") {
		return 0, 0
	}
	rest := id[1:]
	dash := strings.IndexByte(rest, '-')
	if dash < 0 {
		return 0, 0
	}
	fi, _ := strconv.Atoi(rest[:dash])
	idx, _ := strconv.Atoi(rest[dash+1:])
	return fi, idx
}

// NodeID implements FlowNode.
func (n *Node) NodeID() string { return n.ID }

// Preds implements FlowNode.
func (n *Node) Preds() []FlowNode {
	out := make([]FlowNode, len(n.Predecessors))
	for i, p := range n.Predecessors {
		out[i] = p
	}
	return out
}

// Succs implements FlowNode.
func (n *Node) Succs() []FlowNode {
	out := make([]FlowNode, len(n.Successors))
	for i, s := range n.Successors {
		out[i] = s
	}
	return out
}

// Less implements the total order of §3 over nodes of the same function.
func (n *Node) Less(other FlowNode) bool {
	o, ok := other.(*Node)
	if !ok {
		return n.ID < other.NodeID()
	}
	af, ai := parseOrderKey(n.ID)
	bf, bi := parseOrderKey(o.ID)
	if af != bf {
		return af < bf
	}
	return ai < bi
}

// AddEdge records a directed edge n -> succ in both adjacency sets,
// skipping duplicates (§3 graph invariant: A in B.predecessors iff
// B in A.successors).
func (n *Node) AddEdge(succ *Node) {
	for _, s := range n.Successors {
		if s == succ {
			return
		}
	}
	n.Successors = append(n.Successors, succ)
	succ.Predecessors = append(succ.Predecessors, n)
}

func (n *Node) String() string {
	return fmt.Sprintf("Node(%s)", n.ID)
}
