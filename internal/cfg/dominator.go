package cfg

import (
	"github.com/brilgo/brilopt/internal/irerr"
)

// Dominators holds the dominator sets for every node reachable from an
// entry, keyed by node id, plus enough bookkeeping to derive the
// immediate-dominator tree and dominance frontiers on demand (§4.2).
type Dominators struct {
	Entry FlowNode
	nodes map[string]FlowNode
	// dom[id] is the set of ids that dominate the node with that id.
	dom map[string]map[string]bool
}

// ComputeDominators runs the iterative fixed-point dominator algorithm of
// §4.2 starting from entry. entry must have no predecessors, or
// InvalidEntry is returned (§7); this module does not attempt the "walk
// to the true entry" fallback the spec's prose treats as optional — see
// SPEC_FULL.md §12.
func ComputeDominators(entry FlowNode) (*Dominators, error) {
	if len(entry.Preds()) != 0 {
		return nil, irerr.InvalidEntryNode(entry.NodeID())
	}

	reachable := Reachable(entry)

	dom := make(map[string]map[string]bool, len(reachable))
	for _, n := range reachable {
		if n.NodeID() == entry.NodeID() {
			dom[n.NodeID()] = map[string]bool{entry.NodeID(): true}
			continue
		}
		all := make(map[string]bool, len(reachable))
		for _, m := range reachable {
			all[m.NodeID()] = true
		}
		dom[n.NodeID()] = all
	}

	changed := true
	for changed {
		changed = false
		for _, n := range reachable {
			if n.NodeID() == entry.NodeID() {
				continue
			}

			var newSet map[string]bool
			for _, p := range n.Preds() {
				pd, ok := dom[p.NodeID()]
				if !ok {
					continue
				}
				if newSet == nil {
					newSet = cloneSet(pd)
				} else {
					newSet = intersectSets(newSet, pd)
				}
			}
			if newSet == nil {
				newSet = make(map[string]bool)
			}
			newSet[n.NodeID()] = true

			if len(newSet) != len(dom[n.NodeID()]) {
				dom[n.NodeID()] = newSet
				changed = true
			}
		}
	}

	byID := make(map[string]FlowNode, len(reachable))
	for _, n := range reachable {
		byID[n.NodeID()] = n
	}

	return &Dominators{Entry: entry, nodes: byID, dom: dom}, nil
}

// Dominates reports whether a dominates b (a may equal b).
func (d *Dominators) Dominates(a, b FlowNode) bool {
	set, ok := d.dom[b.NodeID()]
	return ok && set[a.NodeID()]
}

// StrictlyDominates reports whether a strictly dominates b: a dominates b
// and a != b.
func (d *Dominators) StrictlyDominates(a, b FlowNode) bool {
	return a.NodeID() != b.NodeID() && d.Dominates(a, b)
}

// Set returns the dominator-id set for the node with the given id.
func (d *Dominators) Set(id string) map[string]bool {
	return d.dom[id]
}

// ImmediateDominator returns n's immediate dominator, or nil if n is the
// entry (the entry has no immediate dominator).
func (d *Dominators) ImmediateDominator(n FlowNode) FlowNode {
	if n.NodeID() == d.Entry.NodeID() {
		return nil
	}
	for id := range d.dom[n.NodeID()] {
		if id == n.NodeID() {
			continue
		}
		cand := d.nodes[id]
		if d.isImmediate(cand, n) {
			return cand
		}
	}
	return nil
}

func (d *Dominators) isImmediate(a, b FlowNode) bool {
	if !d.StrictlyDominates(a, b) {
		return false
	}
	for id := range d.dom[b.NodeID()] {
		if id == a.NodeID() || id == b.NodeID() {
			continue
		}
		c := d.nodes[id]
		if d.StrictlyDominates(c, b) && d.StrictlyDominates(a, c) {
			return false
		}
	}
	return true
}

// Children returns n's children in the immediate-dominator tree, ordered
// deterministically by the FlowNode total order (§3, §5).
func (d *Dominators) Children(n FlowNode) []FlowNode {
	var kids []FlowNode
	for _, m := range d.nodes {
		if m.NodeID() == n.NodeID() {
			continue
		}
		if idom := d.ImmediateDominator(m); idom != nil && idom.NodeID() == n.NodeID() {
			kids = append(kids, m)
		}
	}
	sortFlowNodes(kids)
	return kids
}

// Frontier computes the dominance frontier of a: the set of nodes B such
// that a does not strictly dominate B, but a dominates some predecessor
// of B (§4.2/GLOSSARY).
func (d *Dominators) Frontier(a FlowNode) []FlowNode {
	var out []FlowNode
	for _, b := range d.nodes {
		if d.StrictlyDominates(a, b) {
			continue
		}
		for _, p := range b.Preds() {
			if d.Dominates(a, p) {
				out = append(out, b)
				break
			}
		}
	}
	sortFlowNodes(out)
	return out
}

// Nodes returns every node reachable from the entry, in deterministic
// order.
func (d *Dominators) Nodes() []FlowNode {
	out := make([]FlowNode, 0, len(d.nodes))
	for _, n := range d.nodes {
		out = append(out, n)
	}
	sortFlowNodes(out)
	return out
}

// Reachable returns every node reachable from entry via Succs, in BFS
// order starting with entry itself. Shared by the dominator engine and
// the data-flow framework (§4.2, §4.3).
func Reachable(entry FlowNode) []FlowNode {
	seen := map[string]bool{entry.NodeID(): true}
	order := []FlowNode{entry}
	queue := []FlowNode{entry}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, s := range n.Succs() {
			if !seen[s.NodeID()] {
				seen[s.NodeID()] = true
				order = append(order, s)
				queue = append(queue, s)
			}
		}
	}
	return order
}

func cloneSet(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func intersectSets(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

func sortFlowNodes(nodes []FlowNode) {
	// simple insertion sort: these lists are small (one function's worth
	// of blocks/nodes) and Less is only defined pairwise via FlowNode.
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && nodes[j].Less(nodes[j-1]); j-- {
			nodes[j], nodes[j-1] = nodes[j-1], nodes[j]
		}
	}
}
