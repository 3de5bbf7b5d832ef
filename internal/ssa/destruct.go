package ssa

import (
	"strconv"

	"github.com/brilgo/brilopt/internal/cfg"
	"github.com/brilgo/brilopt/internal/ir"
)

// phiSite is one materialized `phi` instruction found while scanning a
// block, paired with its destination's declared type.
type phiSite struct {
	block *cfg.Block
	index int
	dest  string
	typ   *ir.Type
	edges []phiEdge
}

type phiEdge struct {
	label string
	src   string
}

// FromSSA converts g out of SSA form in place (§4.9): for every `phi`
// instruction it inserts a copy at the end of each contributing
// predecessor block (splitting the edge first if it is critical), then
// deletes the `phi` instructions.
func FromSSA(g *cfg.BlockGraph) {
	sites := collectPhiSites(g)
	if len(sites) == 0 {
		return
	}

	// Two phi-sites in the same destination block can share one critical
	// predecessor edge; split it only once and reuse the resulting block
	// for every phi that references it, or the second split silently
	// orphans the first split's copy (it redirects an edge that's
	// already been redirected, so the new block is never wired in).
	splitBlocks := make(map[[2]string]*cfg.Block)

	for _, site := range sites {
		for _, edge := range site.edges {
			pred, ok := g.Block(edge.label)
			if !ok {
				continue
			}
			target := pred
			if isCriticalEdge(pred, site.block) {
				key := [2]string{pred.ID, site.block.ID}
				split, ok := splitBlocks[key]
				if !ok {
					split = splitEdge(g, pred, site.block)
					splitBlocks[key] = split
				}
				target = split
			}
			insertCopyBeforeTerminator(target, site.dest, edge.src, site.typ)
		}
	}

	removePhiInstructions(g)
}

// collectPhiSites scans every block for materialized `phi` instructions,
// before any mutation, so predecessor block identities are stable while
// processing.
func collectPhiSites(g *cfg.BlockGraph) []phiSite {
	var sites []phiSite
	for _, b := range g.Blocks {
		for i := range b.Instrs {
			instr := &b.Instrs[i]
			if instr.Op != "phi" {
				continue
			}
			site := phiSite{block: b, index: i, dest: instr.Dest, typ: instr.Type}
			for j, label := range instr.Labels {
				if j < len(instr.Args) {
					site.edges = append(site.edges, phiEdge{label: label, src: instr.Args[j]})
				}
			}
			sites = append(sites, site)
		}
	}
	return sites
}

// isCriticalEdge reports whether P->D is a critical edge: P has more than
// one successor and D has more than one predecessor (§4.9).
func isCriticalEdge(p, d *cfg.Block) bool {
	return len(p.Successors) > 1 && len(d.Predecessors) > 1
}

var splitCounter int

// splitEdge interposes a new empty block on the edge p->d, redirecting
// p's edge through it, and returns the new block.
func splitEdge(g *cfg.BlockGraph, p, d *cfg.Block) *cfg.Block {
	splitCounter++
	id := "f" + strconv.Itoa(p.FuncIndex) + "-split-" + strconv.Itoa(splitCounter)
	label := id

	split := &cfg.Block{
		ID:        id,
		FuncIndex: p.FuncIndex,
		Index:     len(g.Blocks),
		Label:     label,
		Instrs:    []ir.Instruction{{Label: label}},
	}

	for i, s := range p.Successors {
		if s == d {
			p.Successors[i] = split
		}
	}
	split.Predecessors = append(split.Predecessors, p)

	for i, pr := range d.Predecessors {
		if pr == p {
			d.Predecessors[i] = split
		}
	}
	split.Successors = append(split.Successors, d)

	split.Instrs = append(split.Instrs, ir.Instruction{Op: "jmp", Labels: []string{d.Label}})

	g.Blocks = append(g.Blocks, split)
	return split
}

// insertCopyBeforeTerminator appends `dest := id src` to b, just before
// its terminator if it has one.
func insertCopyBeforeTerminator(b *cfg.Block, dest, src string, typ *ir.Type) {
	copyInstr := ir.Instruction{Op: "id", Dest: dest, Args: []string{src}, Type: typ}
	if b.IsTerminated() {
		last := len(b.Instrs) - 1
		b.Instrs = append(b.Instrs, ir.Instruction{})
		copy(b.Instrs[last+1:], b.Instrs[last:last+1])
		b.Instrs[last] = copyInstr
		return
	}
	b.Instrs = append(b.Instrs, copyInstr)
}

func removePhiInstructions(g *cfg.BlockGraph) {
	for _, b := range g.Blocks {
		out := b.Instrs[:0:0]
		for _, instr := range b.Instrs {
			if instr.Op == "phi" {
				continue
			}
			out = append(out, instr)
		}
		b.Instrs = out
		b.Phi = nil
	}
}
