package gate

import (
	"fmt"
)

// Entry is a read-only catalog item that is instantiated on each placement.
type Entry struct {
	Name        string
	Kind        Kind
	Error       bool
	Orientation Orientation
}

func (e Entry) IsTwoWire() bool {
	return e.Kind.IsTwoWire()
}

// PairWire resolves the target wire of a two-wire entry placed on wire.
func (e Entry) PairWire(wire int) int {
	return wire + e.Orientation.Offset()
}

// New creates a gate instance with a fresh identity placed on wire.
func (e Entry) New(wire int) *Gate {
	if e.IsTwoWire() {
		g := NewCX(wire, e.PairWire(wire))
		g.Orientation = e.Orientation
		return g
	}
	return NewSingle(e.Kind, e.Error, wire)
}

var (
	HGate = Entry{Name: "H_Gate", Kind: H}
	XGate = Entry{Name: "X_Gate", Kind: X}
	YGate = Entry{Name: "Y_Gate", Kind: Y}
	ZGate = Entry{Name: "Z_Gate", Kind: Z}
	SGate = Entry{Name: "S_Gate", Kind: S}
	TGate = Entry{Name: "T_Gate", Kind: T}

	HError = Entry{Name: "H_Error", Kind: H, Error: true}
	XError = Entry{Name: "X_Error", Kind: X, Error: true}
	YError = Entry{Name: "Y_Error", Kind: Y, Error: true}
	ZError = Entry{Name: "Z_Error", Kind: Z, Error: true}
	SError = Entry{Name: "S_Error", Kind: S, Error: true}
	TError = Entry{Name: "T_Error", Kind: T, Error: true}

	CNOTDown = Entry{Name: "CNOT_Down", Kind: CX, Orientation: ControlDown}
	CNOTUp   = Entry{Name: "CNOT_Up", Kind: CX, Orientation: ControlUp}
)

var catalog = []Entry{
	HGate, XGate, YGate, ZGate, SGate, TGate,
	HError, XError, YError, ZError, SError, TError,
	CNOTDown, CNOTUp,
}

var catalogByName map[string]Entry

func init() {
	catalogByName = make(map[string]Entry, len(catalog))
	for _, e := range catalog {
		catalogByName[e.Name] = e
	}
}

func Entries() []Entry {
	entries := make([]Entry, len(catalog))
	copy(entries, catalog)
	return entries
}

func Lookup(name string) (Entry, bool) {
	e, ok := catalogByName[name]
	return e, ok
}

// ParseSymbol maps a bare IR symbol back to a single-wire kind.
func ParseSymbol(symbol string) (Kind, error) {
	for k, s := range kindSymbols {
		if s == symbol {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown gate symbol:%s", symbol)
}

// EntryFor returns the catalog entry of a placed gate.
func EntryFor(g *Gate) Entry {
	for _, e := range catalog {
		if e.Kind == g.Kind && e.Error == g.Error && (!e.IsTwoWire() || e.Orientation == g.Orientation) {
			return e
		}
	}
	return Entry{Name: g.Symbol(), Kind: g.Kind, Error: g.Error, Orientation: g.Orientation}
}
