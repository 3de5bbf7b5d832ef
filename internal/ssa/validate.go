package ssa

import (
	"sort"

	"github.com/brilgo/brilopt/internal/cfg"
	"github.com/brilgo/brilopt/internal/irerr"
)

// defSite locates a single definition, used to check dominance of uses.
type defSite struct {
	block    *cfg.Block
	index    int // index within block.Instrs; -1 for a φ-node (defined at block entry)
	isPhiDef bool
}

// Validate checks the three SSA invariants of §4.10: every destination is
// defined exactly once, every use is dominated by its unique definition,
// and every φ-node's predecessor-map keys match its block's actual CFG
// predecessor labels.
func Validate(g *cfg.BlockGraph) error {
	dom, err := cfg.ComputeDominators(g.Entry)
	if err != nil {
		return err
	}

	defs, err := collectDefSites(g)
	if err != nil {
		return err
	}

	if err := validatePhiPredecessors(g); err != nil {
		return err
	}

	return validateUsesReached(g, dom, defs)
}

func collectDefSites(g *cfg.BlockGraph) (map[string]defSite, error) {
	defs := make(map[string]defSite)

	record := func(name string, site defSite) error {
		if _, dup := defs[name]; dup {
			return irerr.SSAViolationf("%q is defined more than once", name)
		}
		defs[name] = site
		return nil
	}

	for _, b := range g.Blocks {
		for i := range b.Instrs {
			instr := &b.Instrs[i]
			if instr.Op == "phi" {
				if err := record(instr.Dest, defSite{block: b, index: i, isPhiDef: true}); err != nil {
					return nil, err
				}
				continue
			}
			if instr.HasDest() {
				if err := record(instr.Dest, defSite{block: b, index: i}); err != nil {
					return nil, err
				}
			}
		}
	}

	return defs, nil
}

func validatePhiPredecessors(g *cfg.BlockGraph) error {
	for _, b := range g.Blocks {
		want := make(map[string]bool, len(b.Predecessors))
		for _, p := range b.Predecessors {
			want[p.Label] = true
		}
		for _, instr := range b.Instrs {
			if instr.Op != "phi" {
				continue
			}
			got := make(map[string]bool, len(instr.Labels))
			for _, l := range instr.Labels {
				got[l] = true
			}
			if !sameSet(want, got) {
				return irerr.SSAViolationf("phi for %q in block %s has predecessor labels %v, want %v",
					instr.Dest, b.ID, sortedLabels(got), sortedLabels(want))
			}
		}
	}
	return nil
}

func sameSet(a, b map[string]bool) bool {
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

func sortedLabels(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// validateUsesReached checks that every argument reference in every real
// instruction is dominated by its unique definition (function parameters
// are exempt — they have no definition site and dominate everything).
func validateUsesReached(g *cfg.BlockGraph, dom *cfg.Dominators, defs map[string]defSite) error {
	params := make(map[string]bool)
	for _, a := range g.Func.Args {
		params[a.Name] = true
	}

	for _, b := range g.Blocks {
		for i := range b.Instrs {
			instr := &b.Instrs[i]
			if instr.Op == "" || instr.Op == "phi" {
				continue
			}
			for _, arg := range instr.Args {
				if params[arg] {
					continue
				}
				site, ok := defs[arg]
				if !ok {
					return irerr.SSAViolationf("use of %q in block %s has no definition", arg, b.ID)
				}
				if !dominatesUse(dom, site, b, i) {
					return irerr.SSAViolationf("use of %q in block %s is not dominated by its definition", arg, b.ID)
				}
			}
		}
	}
	return nil
}

func dominatesUse(dom *cfg.Dominators, site defSite, useBlock *cfg.Block, useIndex int) bool {
	if site.block.ID == useBlock.ID {
		if site.isPhiDef {
			return true // phi defines at block entry, before every real instruction
		}
		return site.index < useIndex
	}
	return dom.StrictlyDominates(site.block, useBlock)
}
