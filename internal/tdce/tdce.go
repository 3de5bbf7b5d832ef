// Package tdce implements trivial dead-code elimination (§4.7): iterated
// removal of assignments whose result is never used before being
// overwritten or before the function returns.
package tdce

import (
	"github.com/brilgo/brilopt/internal/cfg"
	"github.com/brilgo/brilopt/internal/ir"
)

// Run deletes dead instructions from every block of g, iterating to
// fixpoint, and reports the total number of instructions removed.
func Run(g *cfg.BlockGraph) int {
	removed := 0
	for {
		used := globallyUsed(g)
		n := sweep(g, used)
		removed += n
		if n == 0 {
			return removed
		}
	}
}

// globallyUsed is the set of variable names appearing as an argument in
// any instruction across all blocks of the function.
func globallyUsed(g *cfg.BlockGraph) map[string]bool {
	used := make(map[string]bool)
	for _, b := range g.Blocks {
		for _, instr := range b.Instrs {
			for _, a := range instr.Args {
				used[a] = true
			}
		}
	}
	return used
}

// sweep performs one full pass over every block, marking and deleting
// dead definitions, and returns the count removed.
func sweep(g *cfg.BlockGraph, used map[string]bool) int {
	removed := 0
	for _, b := range g.Blocks {
		dead := deadIndices(b, used)
		if len(dead) == 0 {
			continue
		}
		removed += len(dead)
		b.Instrs = withoutIndices(b.Instrs, dead)
	}
	return removed
}

// deadIndices scans one block left to right, tracking the most recent
// unconsumed definition of each variable (last_def), and returns the set
// of instruction indices to delete (§4.7).
func deadIndices(b *cfg.Block, used map[string]bool) map[int]bool {
	lastDef := make(map[string]int)
	dead := make(map[int]bool)

	for i := range b.Instrs {
		instr := &b.Instrs[i]
		for _, a := range instr.Args {
			delete(lastDef, a)
		}
		if instr.HasDest() {
			if prev, ok := lastDef[instr.Dest]; ok {
				dead[prev] = true
			}
			lastDef[instr.Dest] = i
		}
	}

	for v, idx := range lastDef {
		if !used[v] {
			dead[idx] = true
		}
	}

	return dead
}

func withoutIndices(instrs []ir.Instruction, dead map[int]bool) []ir.Instruction {
	out := make([]ir.Instruction, 0, len(instrs)-len(dead))
	for i, instr := range instrs {
		if dead[i] {
			continue
		}
		out = append(out, instr)
	}
	return out
}
