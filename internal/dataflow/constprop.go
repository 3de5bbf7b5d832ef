package dataflow

import (
	"sort"
	"strings"

	"github.com/brilgo/brilopt/internal/cfg"
	"github.com/brilgo/brilopt/internal/ir"
)

// ConstKind tags a ConstState's position in the three-point lattice of
// §4.5: Uninitialized (bottom) < Const(v) < Unknown (top).
type ConstKind int

const (
	// Uninitialized is the lattice's bottom: no definition has reached
	// this point yet.
	Uninitialized ConstKind = iota
	// StaticConst means every path reaching this point agrees on one
	// literal value.
	StaticConst
	// NotConst is the lattice's top: either a non-constant value, or two
	// paths disagreeing on which constant.
	NotConst
)

// ConstState is one variable's lattice value.
type ConstState struct {
	Kind  ConstKind
	Value *ir.Literal // set iff Kind == StaticConst
}

func uninitialized() ConstState { return ConstState{Kind: Uninitialized} }
func unknown() ConstState       { return ConstState{Kind: NotConst} }
func constant(v *ir.Literal) ConstState {
	return ConstState{Kind: StaticConst, Value: v}
}

func (s ConstState) String() string {
	switch s.Kind {
	case Uninitialized:
		return "⊥"
	case NotConst:
		return "⊤"
	default:
		return s.Value.String()
	}
}

// ConstMap is the constant-propagation lattice value: one ConstState per
// variable name known at a program point.
type ConstMap map[string]ConstState

// EqualConstMap is the constant-propagation lattice equality.
func EqualConstMap(a, b ConstMap) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || av.Kind != bv.Kind {
			return false
		}
		if av.Kind == StaticConst && !av.Value.Equal(bv.Value) {
			return false
		}
	}
	return true
}

func mergeState(a, b ConstState) ConstState {
	if a.Kind == Uninitialized {
		return b
	}
	if b.Kind == Uninitialized {
		return a
	}
	if a.Kind == NotConst || b.Kind == NotConst {
		return unknown()
	}
	if a.Value.Equal(b.Value) {
		return a
	}
	return unknown()
}

// MergeConstMaps joins predecessor out-maps pointwise: a variable missing
// from one predecessor's map is Uninitialized along that path.
func MergeConstMaps(ins []ConstMap) ConstMap {
	out := make(ConstMap)
	for _, m := range ins {
		for v, s := range m {
			out[v] = mergeState(out[v], s)
		}
	}
	return out
}

func lookup(in ConstMap, name string) ConstState {
	if s, ok := in[name]; ok {
		return s
	}
	return uninitialized()
}

// TransferConstProp is constant propagation's transfer function (§4.5):
// const assigns the literal operand; a recognized binary/unary op assigns
// Const(result) when every operand is Const, else Unknown; any other
// dest-defining instruction (including an operation this analysis does
// not recognize) assigns Unknown, per §7's "unknown op is treated as
// Unknown, not a fault" rule. Non-defining instructions pass the map
// through unchanged.
func TransferConstProp(node cfg.FlowNode, in ConstMap) ConstMap {
	n, ok := node.(*cfg.Node)
	if !ok || n.Instr == nil || !n.Instr.HasDest() {
		return in
	}
	instr := n.Instr

	out := make(ConstMap, len(in)+1)
	for k, v := range in {
		out[k] = v
	}

	switch {
	case instr.Op == "const":
		out[instr.Dest] = constant(instr.Value)
	case instr.Op == "not" && len(instr.Args) == 1:
		a := lookup(in, instr.Args[0])
		if a.Kind == StaticConst {
			out[instr.Dest] = constant(ir.BoolLiteral(!a.Value.Bool))
		} else {
			out[instr.Dest] = unknown()
		}
	case isBinaryConstOp(instr.Op) && len(instr.Args) == 2:
		a := lookup(in, instr.Args[0])
		b := lookup(in, instr.Args[1])
		if a.Kind == StaticConst && b.Kind == StaticConst {
			if v, ok := evalBinary(instr.Op, a.Value, b.Value); ok {
				out[instr.Dest] = constant(v)
				break
			}
		}
		out[instr.Dest] = unknown()
	default:
		out[instr.Dest] = unknown()
	}

	return out
}

func isBinaryConstOp(op string) bool {
	switch op {
	case "add", "sub", "mul", "div", "eq", "lt", "gt", "le", "ge", "and", "or":
		return true
	default:
		return false
	}
}

// evalBinary computes op(a, b). ok is false when the operation is
// well-typed but cannot be resolved to a constant here — division by a
// statically-known zero is the one such case (§4.5: "treated as Unknown,
// not a runtime fault").
func evalBinary(op string, a, b *ir.Literal) (*ir.Literal, bool) {
	switch op {
	case "add":
		return ir.IntLiteral(a.Int + b.Int), true
	case "sub":
		return ir.IntLiteral(a.Int - b.Int), true
	case "mul":
		return ir.IntLiteral(a.Int * b.Int), true
	case "div":
		if b.Int == 0 {
			return nil, false
		}
		return ir.IntLiteral(floorDiv(a.Int, b.Int)), true
	case "eq":
		if a.IsBool != b.IsBool {
			return ir.BoolLiteral(false), true
		}
		return ir.BoolLiteral(a.Equal(b)), true
	case "lt":
		return ir.BoolLiteral(a.Int < b.Int), true
	case "gt":
		return ir.BoolLiteral(a.Int > b.Int), true
	case "le":
		return ir.BoolLiteral(a.Int <= b.Int), true
	case "ge":
		return ir.BoolLiteral(a.Int >= b.Int), true
	case "and":
		return ir.BoolLiteral(a.Bool && b.Bool), true
	case "or":
		return ir.BoolLiteral(a.Bool || b.Bool), true
	default:
		return nil, false
	}
}

// floorDiv is integer division rounding toward negative infinity, matching
// the source language's "//" rather than Go's truncating "/" (§12).
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// NewConstantPropagation builds a constant-propagation Analysis rooted at
// entry (a fine-grain cfg.Node entry, for the same reason reaching
// definitions runs there — see reaching.go).
func NewConstantPropagation(entry *cfg.Node) *Analysis[ConstMap] {
	a := NewAnalysis[ConstMap](entry, ConstMap{}, TransferConstProp, MergeConstMaps, EqualConstMap)
	a.Render = RenderConstMap
	return a
}

// RenderConstMap formats a ConstMap deterministically for visualize-mode
// frames.
func RenderConstMap(m ConstMap) string {
	names := make([]string, 0, len(m))
	for v := range m {
		names = append(names, v)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, v := range names {
		parts[i] = v + "=" + m[v].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
