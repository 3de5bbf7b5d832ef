package cfg

import "github.com/brilgo/brilopt/internal/ir"

// Undef is the placeholder token used when a φ-node (during construction)
// has no contribution yet from a given predecessor, per §3/§4.8.
const Undef = "__undef__"

// PhiNode is a pseudo-instruction at a join point: a destination variable
// name and a mapping from predecessor label to the source variable name
// contributed along that edge.
type PhiNode struct {
	Dest string
	// Args maps predecessor block label -> source variable name.
	Args map[string]string
	// Type is the destination's declared type. SSA materialization (§4.8
	// step 4) takes phi types from its own pre-rename type map and does
	// not set this field.
	Type *ir.Type
}

// NewPhiNode creates an empty φ-node for the given destination.
func NewPhiNode(dest string) *PhiNode {
	return &PhiNode{Dest: dest, Args: make(map[string]string)}
}

// Set records the source variable contributed by predecessor label.
func (p *PhiNode) Set(predLabel, srcVar string) {
	p.Args[predLabel] = srcVar
}

// Get returns the source variable for predLabel, or Undef if none has
// been recorded yet.
func (p *PhiNode) Get(predLabel string) string {
	if v, ok := p.Args[predLabel]; ok {
		return v
	}
	return Undef
}

// Labels returns the set of predecessor labels this φ-node has an entry
// for, used by SSA validation (§4.10) to compare against the enclosing
// block's actual CFG predecessors.
func (p *PhiNode) Labels() []string {
	out := make([]string, 0, len(p.Args))
	for l := range p.Args {
		out = append(out, l)
	}
	return out
}
