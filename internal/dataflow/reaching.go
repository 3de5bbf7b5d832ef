package dataflow

import (
	"sort"
	"strings"

	"github.com/brilgo/brilopt/internal/cfg"
)

// VarSet is the reaching-definitions lattice value: the set of variable
// names whose definitions may reach a program point (§4.4).
type VarSet map[string]bool

// EqualVarSet is the reaching-definitions lattice equality.
func EqualVarSet(a, b VarSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// MergeVarSets is reaching definitions' merge: set union over all
// predecessor out-sets.
func MergeVarSets(ins []VarSet) VarSet {
	out := make(VarSet)
	for _, s := range ins {
		for v := range s {
			out[v] = true
		}
	}
	return out
}

// TransferReaching is reaching definitions' transfer: in ∪ {dest} if the
// node's instruction defines a variable, else in unchanged.
func TransferReaching(node cfg.FlowNode, in VarSet) VarSet {
	n, ok := node.(*cfg.Node)
	if !ok || n.Instr == nil || !n.Instr.HasDest() {
		return in
	}
	out := make(VarSet, len(in)+1)
	for v := range in {
		out[v] = true
	}
	out[n.Instr.Dest] = true
	return out
}

// NewReachingDefinitions builds a reaching-definitions Analysis rooted at
// entry (a fine-grain cfg.Node entry: TransferReaching reads the single
// instruction of a cfg.Node and passes any other FlowNode's in-set
// through unchanged, so the analysis runs over the one-instruction-per-
// node CFG rather than basic blocks).
func NewReachingDefinitions(entry *cfg.Node) *Analysis[VarSet] {
	a := NewAnalysis[VarSet](entry, VarSet{}, TransferReaching, MergeVarSets, EqualVarSet)
	a.Render = RenderVarSet
	return a
}

// RenderVarSet formats a VarSet deterministically for visualize-mode
// frames.
func RenderVarSet(s VarSet) string {
	names := make([]string, 0, len(s))
	for v := range s {
		names = append(names, v)
	}
	sort.Strings(names)
	return "{" + strings.Join(names, ", ") + "}"
}
