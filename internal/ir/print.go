package ir

import "strings"

// String renders a single instruction to text. §1 treats the full
// pretty-printer as an external collaborator consumed through a narrow
// interface; this is that interface's minimal implementation, sufficient
// for the DOT emitter and debug output the passes themselves produce.
func (i *Instruction) String() string {
	if i.IsLabel() {
		return i.Label + ":"
	}

	var b strings.Builder
	if i.Dest != "" {
		b.WriteString(i.Dest)
		if i.Type != nil {
			b.WriteString(": ")
			b.WriteString(i.Type.String())
		}
		b.WriteString(" = ")
	}
	b.WriteString(i.Op)
	for _, f := range i.Funcs {
		b.WriteByte(' ')
		b.WriteString("@" + f)
	}
	for _, a := range i.Args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	for _, l := range i.Labels {
		b.WriteByte(' ')
		b.WriteString("." + l)
	}
	if i.Value != nil {
		b.WriteByte(' ')
		b.WriteString(i.Value.String())
	}
	return b.String()
}
