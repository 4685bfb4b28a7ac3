package symtab

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	MaxLabels  = 16
	MaxNameLen = 15
)

var ErrUndefinedLabel = errors.New("undefined label")

// Label binds a name to an address. The compiler stores instruction
// indices, the assembler stores byte offsets.
type Label struct {
	Name    string
	Address int
}

// Table is the label table of a single compile or assemble call.
type Table struct {
	labels []Label
}

func New() *Table {
	return &Table{labels: make([]Label, 0, MaxLabels)}
}

// Define registers name at addr. Empty or over-long names, redefinitions
// and anything past MaxLabels are dropped; the return value reports whether
// the label was kept.
func (t *Table) Define(name string, addr int) bool {
	if name == "" || len(name) > MaxNameLen || len(t.labels) >= MaxLabels {
		return false
	}
	if _, exists := t.Lookup(name); exists {
		return false
	}
	t.labels = append(t.labels, Label{Name: name, Address: addr})
	return true
}

func (t *Table) Lookup(name string) (int, bool) {
	for _, l := range t.labels {
		if l.Name == name {
			return l.Address, true
		}
	}
	return 0, false
}

func (t *Table) Len() int {
	return len(t.labels)
}

// Labels returns the defined labels in definition order.
func (t *Table) Labels() []Label {
	out := make([]Label, len(t.labels))
	copy(out, t.labels)
	return out
}

// ResolveImmediate looks name up among the labels defined so far. Unknown
// names, including labels that are only defined further down the source,
// resolve to 0.
func (t *Table) ResolveImmediate(name string) int {
	addr, _ := t.Lookup(name)
	return addr
}

// Fixup is a 4-byte placeholder in emitted code waiting for the address
// of Label.
type Fixup struct {
	Pos   int
	Label string
	Line  int
}

// ResolveDeferred patches every fixup in code with the rel32 displacement
// from the end of its 4-byte field to the label. The first unknown label
// aborts resolution.
func (t *Table) ResolveDeferred(code []byte, fixups []Fixup) error {
	for _, f := range fixups {
		target, ok := t.Lookup(f.Label)
		if !ok {
			return fmt.Errorf("%w '%s' on line %d", ErrUndefinedLabel, f.Label, f.Line)
		}
		if f.Pos < 0 || f.Pos+4 > len(code) {
			return fmt.Errorf("fixup for '%s' at %d lies outside the code", f.Label, f.Pos)
		}
		rel := int32(target - (f.Pos + 4))
		binary.LittleEndian.PutUint32(code[f.Pos:], uint32(rel))
	}
	return nil
}
