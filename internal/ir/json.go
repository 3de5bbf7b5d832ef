package ir

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON renders a base type as a bare string and a constructor type
// as a single-key object, per §3/§6.
func (t *Type) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}
	if t.Ctor == "" {
		return json.Marshal(t.Base)
	}
	return json.Marshal(map[string]*Type{t.Ctor: t.Arg})
}

// UnmarshalJSON accepts either a bare string or a single-key object.
func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Base = s
		t.Ctor = ""
		t.Arg = nil
		return nil
	}

	var m map[string]*Type
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("ir: malformed type literal: %w", err)
	}
	if len(m) != 1 {
		return fmt.Errorf("ir: type constructor object must have exactly one key, got %d", len(m))
	}
	for k, v := range m {
		t.Ctor = k
		t.Arg = v
		t.Base = ""
	}
	return nil
}

// MarshalJSON renders a literal as a JSON boolean or number.
func (l *Literal) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("null"), nil
	}
	if l.IsBool {
		return json.Marshal(l.Bool)
	}
	return json.Marshal(l.Int)
}

// UnmarshalJSON accepts either a JSON boolean or a JSON number.
func (l *Literal) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		l.IsBool = true
		l.Bool = b
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("ir: malformed literal value: %w", err)
	}
	l.IsBool = false
	l.Int = n
	return nil
}
