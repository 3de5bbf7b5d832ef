// Package dot renders CFGs, dominator trees, and SSA-annotated graphs as
// Graphviz DOT text (§6 "Visualization format").
package dot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brilgo/brilopt/internal/cfg"
)

// Graph renders a CFG (fine-grain or basic-block) as a DOT digraph. Nodes
// are labeled by their pretty-printed instruction(s); φ-tables, if
// present, get an extra header line.
func Graph(name string, nodes []cfg.FlowNode, label func(cfg.FlowNode) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", quoteID(name))
	b.WriteString("  node [shape=box, fontname=\"monospace\"];\n")

	sorted := append([]cfg.FlowNode(nil), nodes...)
	sortNodes(sorted)

	for _, n := range sorted {
		fmt.Fprintf(&b, "  %s [label=%q];\n", quoteID(n.NodeID()), label(n))
	}
	for _, n := range sorted {
		for _, s := range n.Succs() {
			fmt.Fprintf(&b, "  %s -> %s;\n", quoteID(n.NodeID()), quoteID(s.NodeID()))
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// BlockLabel renders a basic block's instructions, one per line, for use
// as a Graph node label.
func BlockLabel(b *cfg.Block) string {
	var lines []string
	if b.Label != "" {
		lines = append(lines, b.Label+":")
	}
	for _, name := range sortedPhiNames(b.Phi) {
		lines = append(lines, phiLine(name, b.Phi[name]))
	}
	for _, instr := range b.Instrs {
		lines = append(lines, instr.String())
	}
	return strings.Join(lines, "\\l") + "\\l"
}

// NodeLabel renders a single fine-grain node's instruction.
func NodeLabel(n *cfg.Node) string {
	if n.Instr == nil {
		return ""
	}
	return n.Instr.String()
}

// DominatorTree renders the immediate-dominator tree derived from d as a
// DOT digraph.
func DominatorTree(name string, d *cfg.Dominators) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", quoteID(name))
	b.WriteString("  node [shape=ellipse, fontname=\"monospace\"];\n")
	for _, n := range d.Nodes() {
		fmt.Fprintf(&b, "  %s;\n", quoteID(n.NodeID()))
	}
	for _, n := range d.Nodes() {
		for _, c := range d.Children(n) {
			fmt.Fprintf(&b, "  %s -> %s;\n", quoteID(n.NodeID()), quoteID(c.NodeID()))
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func phiLine(name string, phi *cfg.PhiNode) string {
	var parts []string
	for _, l := range phi.Labels() {
		parts = append(parts, fmt.Sprintf("%s %s", l, phi.Get(l)))
	}
	return fmt.Sprintf("%s = phi %s", name, strings.Join(parts, " "))
}

func sortedPhiNames(m map[string]*cfg.PhiNode) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func sortNodes(nodes []cfg.FlowNode) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && nodes[j].Less(nodes[j-1]); j-- {
			nodes[j], nodes[j-1] = nodes[j-1], nodes[j]
		}
	}
}

func quoteID(s string) string {
	return fmt.Sprintf("%q", s)
}
