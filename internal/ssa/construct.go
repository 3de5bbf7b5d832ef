// Package ssa converts a basic-block CFG to and from static single
// assignment form, and validates that a CFG is in SSA form (§4.8-§4.10).
package ssa

import (
	"sort"
	"strconv"

	"github.com/brilgo/brilopt/internal/cfg"
	"github.com/brilgo/brilopt/internal/ir"
	"github.com/brilgo/brilopt/internal/irerr"
)

// ToSSA converts g into SSA form in place: it inserts φ-nodes at the
// dominance frontiers of every variable's definitions, renames every
// definition and use to a fresh SSA name (dominator-tree pre-order, §4.8
// step 3), and materializes each φ-node into a concrete `phi` instruction
// (§4.8 step 4).
func ToSSA(g *cfg.BlockGraph, fn *ir.Function) error {
	dom, err := cfg.ComputeDominators(g.Entry)
	if err != nil {
		return err
	}

	defs, types := collectDefs(g)
	insertPhis(defs, dom)
	if err := rename(g, dom, fn.Args); err != nil {
		return err
	}
	materialize(g, types)
	return nil
}

// collectDefs computes Defs(v) for every variable v — the set of blocks
// containing an assignment to v — and records each variable's declared
// type from its first definition, for use by materialize (§4.8 step 1).
func collectDefs(g *cfg.BlockGraph) (map[string][]*cfg.Block, map[string]*ir.Type) {
	defs := make(map[string][]*cfg.Block)
	types := make(map[string]*ir.Type)
	for _, b := range g.Blocks {
		for i := range b.Instrs {
			instr := &b.Instrs[i]
			if !instr.HasDest() {
				continue
			}
			defs[instr.Dest] = append(defs[instr.Dest], b)
			if _, ok := types[instr.Dest]; !ok {
				types[instr.Dest] = instr.Type
			}
		}
	}
	return defs, types
}

// insertPhis runs the iterated dominance-frontier algorithm of §4.8 step
// 2, mutating each affected block's Phi table.
func insertPhis(defs map[string][]*cfg.Block, dom *cfg.Dominators) {
	for v, blocks := range defs {
		inDefs := make(map[string]bool, len(blocks))
		queue := make([]*cfg.Block, len(blocks))
		copy(queue, blocks)
		for _, b := range blocks {
			inDefs[b.ID] = true
		}

		for len(queue) > 0 {
			b := queue[0]
			queue = queue[1:]

			for _, fnode := range dom.Frontier(b) {
				d := fnode.(*cfg.Block)
				if d.Phi == nil {
					d.Phi = make(map[string]*cfg.PhiNode)
				}
				phi, exists := d.Phi[v]
				if !exists {
					phi = cfg.NewPhiNode(v)
					d.Phi[v] = phi
				}

				for _, p := range d.Predecessors {
					if p == b {
						continue
					}
					if _, ok := phi.Args[p.Label]; !ok {
						phi.Set(p.Label, v)
					}
				}

				if !inDefs[d.ID] {
					inDefs[d.ID] = true
					defs[v] = append(defs[v], d)
					queue = append(queue, d)
				}
			}
		}
	}
}

// renameState holds the per-variable rename stacks and fresh-name
// counters threaded through the dominator-tree walk.
type renameState struct {
	stacks   map[string][]string
	counters map[string]int
}

func newRenameState() *renameState {
	return &renameState{stacks: make(map[string][]string), counters: make(map[string]int)}
}

func (s *renameState) fresh(v string) string {
	name := v + "_" + strconv.Itoa(s.counters[v])
	s.counters[v]++
	s.stacks[v] = append(s.stacks[v], name)
	return name
}

func (s *renameState) top(v string) (string, bool) {
	stack := s.stacks[v]
	if len(stack) == 0 {
		return "", false
	}
	return stack[len(stack)-1], true
}

func (s *renameState) snapshot() map[string][]string {
	out := make(map[string][]string, len(s.stacks))
	for v, stack := range s.stacks {
		out[v] = append([]string(nil), stack...)
	}
	return out
}

// rename performs §4.8 step 3: a dominator-tree pre-order walk renaming
// every definition and use. Implemented iteratively over an explicit
// stack (§12 design note) rather than recursively, so deeply nested
// dominator trees don't consume Go call-stack depth per block.
func rename(g *cfg.BlockGraph, dom *cfg.Dominators, params []ir.Argument) error {
	state := newRenameState()

	type frame struct {
		block    *cfg.Block
		saved    map[string][]string
		children []cfg.FlowNode
		visited  bool
		childIdx int
	}

	stack := []*frame{{block: g.Entry}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if !top.visited {
			top.saved = state.snapshot()
			if err := renameBlock(top.block, state, params); err != nil {
				return err
			}
			propagatePhis(top.block, state, params)
			top.children = dom.Children(top.block)
			top.visited = true
		}

		if top.childIdx < len(top.children) {
			child := top.children[top.childIdx].(*cfg.Block)
			top.childIdx++
			stack = append(stack, &frame{block: child})
			continue
		}

		state.stacks = top.saved
		stack = stack[:len(stack)-1]
	}

	return nil
}

// renameBlock renames a single block's φ-destinations and real
// instructions (§4.8 step 3, items 2-3).
func renameBlock(b *cfg.Block, state *renameState, params []ir.Argument) error {
	for _, v := range sortedKeys(b.Phi) {
		phi := b.Phi[v]
		phi.Dest = state.fresh(v)
	}

	for i := range b.Instrs {
		instr := &b.Instrs[i]
		if instr.IsLabel() {
			continue
		}
		for j, a := range instr.Args {
			resolved, err := resolveUse(state, params, a)
			if err != nil {
				return err
			}
			instr.Args[j] = resolved
		}
		if instr.HasDest() {
			instr.Dest = state.fresh(instr.Dest)
		}
	}
	return nil
}

// propagatePhis fills in each successor's φ-node entry for the edge
// leaving b (§4.8 step 3, item 4).
func propagatePhis(b *cfg.Block, state *renameState, params []ir.Argument) {
	for _, s := range b.Successors {
		for v, phi := range s.Phi {
			val, ok := state.top(v)
			if !ok {
				if isParam(params, v) {
					val = v
				} else {
					val = cfg.Undef
				}
			}
			phi.Set(b.Label, val)
		}
	}
}

// resolveUse implements the §12 resolution of the source's "silently
// drop args absent from the rename stack" bug: an argument whose stack
// is empty is treated as a reference to the function parameter of that
// name if one exists, and otherwise reported as SSAViolation.
func resolveUse(state *renameState, params []ir.Argument, name string) (string, error) {
	if top, ok := state.top(name); ok {
		return top, nil
	}
	if isParam(params, name) {
		return name, nil
	}
	return "", irerr.SSAViolationf("use of %q is not dominated by any definition and is not a function parameter", name)
}

func isParam(params []ir.Argument, name string) bool {
	for _, p := range params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// materialize converts every block's φ-table into a concrete `phi`
// instruction placed immediately after the block's label (§4.8 step 4).
// Predecessor order follows the block's own PredLabels order so output
// is reproducible.
func materialize(g *cfg.BlockGraph, types map[string]*ir.Type) {
	for _, b := range g.Blocks {
		if len(b.Phi) == 0 {
			continue
		}

		names := sortedKeys(b.Phi)
		phiInstrs := make([]ir.Instruction, 0, len(names))
		predLabels := b.PredLabels()

		for _, v := range names {
			phi := b.Phi[v]
			instr := ir.Instruction{Op: "phi", Dest: phi.Dest, Type: types[v]}
			for _, label := range predLabels {
				instr.Labels = append(instr.Labels, label)
				instr.Args = append(instr.Args, phi.Get(label))
			}
			phiInstrs = append(phiInstrs, instr)
		}

		insertAt := 0
		if len(b.Instrs) > 0 && b.Instrs[0].IsLabel() {
			insertAt = 1
		}
		out := make([]ir.Instruction, 0, len(b.Instrs)+len(phiInstrs))
		out = append(out, b.Instrs[:insertAt]...)
		out = append(out, phiInstrs...)
		out = append(out, b.Instrs[insertAt:]...)
		b.Instrs = out
		b.Phi = nil // now represented solely as materialized phi instructions
	}
}

func sortedKeys(m map[string]*cfg.PhiNode) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
