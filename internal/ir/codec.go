package ir

import (
	"encoding/json"
	"io"

	"github.com/brilgo/brilopt/internal/irerr"
)

// Decode reads a Program from r, per the wire format of §6: a top-level
// JSON object with a "functions" array. Any decode failure is surfaced as
// a MalformedInput error.
func Decode(r io.Reader) (*Program, error) {
	var p Program
	dec := json.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		return nil, irerr.MalformedWrap(err, "failed to decode IR program")
	}
	return &p, nil
}

// Encode writes p to w with two-space indentation and the struct's
// declared field order, matching §6's "stable key ordering" requirement.
func Encode(w io.Writer, p *Program) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}
