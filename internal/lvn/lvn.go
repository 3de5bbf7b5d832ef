// Package lvn implements local value numbering (§4.6): an intra-block
// common-subexpression and copy-propagation pass over a basic block.
package lvn

import (
	"sort"
	"strconv"

	"github.com/brilgo/brilopt/internal/cfg"
	"github.com/brilgo/brilopt/internal/ir"
)

// tuple is the canonical key for one value: an operation name plus its
// operand value numbers, or a literal for "const".
type tuple struct {
	op      string
	args    string // joined operand value numbers, canonicalized for commutative ops
	literal string // set iff op == "const"
}

var commutative = map[string]bool{
	"add": true, "mul": true, "eq": true, "and": true, "or": true,
}

// table is one block's value-numbering state (§4.6 items i-iv).
type table struct {
	tuples     []tuple           // value number -> tuple, index is the value number
	varToNum   map[string]int    // current value number of a variable name
	numToVar   map[int]string    // canonical variable holding a value number
	tupleToVar map[tuple]string  // interned tuple -> canonical variable
}

func newTable() *table {
	return &table{
		varToNum:   make(map[string]int),
		numToVar:   make(map[int]string),
		tupleToVar: make(map[tuple]string),
	}
}

func (t *table) numOf(varName string) (int, bool) {
	n, ok := t.varToNum[varName]
	return n, ok
}

func (t *table) intern(tp tuple) int {
	t.tuples = append(t.tuples, tp)
	return len(t.tuples) - 1
}

// Run performs LVN on a single block in place, rewriting its Instrs slice.
func Run(b *cfg.Block) {
	renamed := shadowRename(b)
	t := newTable()

	for i := range b.Instrs {
		instr := &b.Instrs[i]
		if instr.IsLabel() || instr.Op == "" {
			continue
		}

		// Non-value-producing instructions (no dest, e.g. print/br/ret)
		// still need their arguments rewritten to canonical names.
		if !instr.HasDest() {
			rewriteArgs(instr, t)
			continue
		}

		tp, ok := buildTuple(instr, t)
		surfaceName := instr.Dest // the name later instructions in this block reference
		canonicalName := surfaceName
		if newName, wasRenamed := renamed[i]; wasRenamed {
			canonicalName = newName
		}

		if ok {
			if canonical, found := t.tupleToVar[tp]; found {
				*instr = ir.Instruction{Op: "id", Dest: canonicalName, Type: instr.Type, Args: []string{canonical}}
				num := t.intern(tp)
				t.varToNum[surfaceName] = num
				t.numToVar[num] = canonical
				continue
			}
			num := t.intern(tp)
			t.tupleToVar[tp] = canonicalName
			t.numToVar[num] = canonicalName
			t.varToNum[surfaceName] = num
			rewriteArgs(instr, t)
			instr.Dest = canonicalName
			continue
		}

		// Not value-numberable (unrecognized op, wrong arity, etc): still
		// rewrite its argument references, and give its destination a
		// fresh, un-interned value number so later instructions reading
		// it are not mistakenly treated as aliasing an earlier value.
		rewriteArgs(instr, t)
		instr.Dest = canonicalName
		num := len(t.tuples)
		t.tuples = append(t.tuples, tuple{op: "$fresh$" + strconv.Itoa(num)})
		t.numToVar[num] = canonicalName
		t.varToNum[surfaceName] = num
	}
}

// buildTuple constructs the value tuple for an instruction, translating
// argument variable names to their current value numbers (so aliases
// collapse onto the same tuple) and canonicalizing commutative operands
// by sorted value number (§4.6, §12: the source does not canonicalize;
// this implementation does, to widen redundancy detection).
func buildTuple(instr *ir.Instruction, t *table) (tuple, bool) {
	if instr.Op == "const" {
		return tuple{op: "const", literal: instr.Value.String()}, true
	}

	nums := make([]int, len(instr.Args))
	for i, a := range instr.Args {
		n, ok := t.numOf(a)
		if !ok {
			return tuple{}, false
		}
		nums[i] = n
	}

	if commutative[instr.Op] && len(nums) == 2 {
		sort.Ints(nums)
	}

	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	args := ""
	for i, p := range parts {
		if i > 0 {
			args += ","
		}
		args += p
	}
	return tuple{op: instr.Op, args: args}, true
}

func rewriteArgs(instr *ir.Instruction, t *table) {
	for i, a := range instr.Args {
		if canonical, ok := t.numToVar[mustNum(t, a)]; ok {
			instr.Args[i] = canonical
		}
	}
}

func mustNum(t *table, varName string) int {
	n, ok := t.numOf(varName)
	if !ok {
		return -1
	}
	return n
}

// shadowRename performs LVN's backward pre-pass (§4.6 "Destination
// renaming"): any destination overwritten later in the same block is
// renamed to dest_v{N} so earlier instructions can still reference it by
// its original name without ambiguity. Returns the new name for every
// instruction index whose destination was renamed.
func shadowRename(b *cfg.Block) map[int]string {
	renamed := make(map[int]string)
	seen := make(map[string]bool)
	for i := len(b.Instrs) - 1; i >= 0; i-- {
		instr := &b.Instrs[i]
		if !instr.HasDest() {
			continue
		}
		if seen[instr.Dest] {
			renamed[i] = instr.Dest + "_v" + strconv.Itoa(i)
		}
		seen[instr.Dest] = true
	}
	return renamed
}
