// Package tracestitch splices a linear instruction trace into a
// function's entry block, guarded by speculate/commit markers (§4.11).
package tracestitch

import (
	"github.com/brilgo/brilopt/internal/ioutil"
	"github.com/brilgo/brilopt/internal/ir"
)

const (
	entryLabel  = "entry"
	failedLabel = "failed"
)

// Stitch splices trace into fn's `main:`-reachable entry block. It finds
// the position just after the `entry:` label marker and inserts, in
// order: a `speculate` instruction, the trace's instructions, a
// `commit` instruction, a `ret`, then a `failed:` label marker; the
// block's remaining instructions become the failure continuation.
//
// If fn has no block carrying an `entry:` label, per §12 this is a
// no-op: the function is left untouched and a warning is logged rather
// than failing the whole stream.
func Stitch(fn *ir.Function, trace []ir.Instruction, logger *ioutil.Logger) {
	idx := findEntryLabel(fn.Instrs)
	if idx < 0 {
		if logger != nil {
			logger.Warning("function %q has no entry: label; trace stitch skipped", fn.Name)
		}
		return
	}

	var spliced []ir.Instruction
	spliced = append(spliced, fn.Instrs[:idx+1]...)
	spliced = append(spliced, ir.Instruction{Op: "speculate"})
	spliced = append(spliced, trace...)
	spliced = append(spliced, ir.Instruction{Op: "commit"})
	spliced = append(spliced, ir.Instruction{Op: "ret"})
	spliced = append(spliced, ir.Instruction{Label: failedLabel})
	spliced = append(spliced, fn.Instrs[idx+1:]...)

	fn.Instrs = spliced
}

func findEntryLabel(instrs []ir.Instruction) int {
	for i, instr := range instrs {
		if instr.IsLabel() && instr.Label == entryLabel {
			return i
		}
	}
	return -1
}

// StripBranches removes branch instructions from a raw trace before
// stitching, per §6's CLI contract ("trace file: JSON list of
// instruction lists, one per function; pre-filter removes branches").
func StripBranches(instrs []ir.Instruction) []ir.Instruction {
	out := make([]ir.Instruction, 0, len(instrs))
	for _, instr := range instrs {
		if instr.Op == ir.OpBr {
			continue
		}
		out = append(out, instr)
	}
	return out
}
