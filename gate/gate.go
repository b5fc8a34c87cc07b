package gate

import (
	"fmt"

	"github.com/google/uuid"
)

type Kind int

const (
	H Kind = iota
	X
	Y
	Z
	S
	T
	CX
)

var kindSymbols = map[Kind]string{
	H:  "H",
	X:  "X",
	Y:  "Y",
	Z:  "Z",
	S:  "S",
	T:  "T",
	CX: "CX",
}

func (k Kind) String() string {
	if s, ok := kindSymbols[k]; ok {
		return s
	}
	return "Unknown"
}

func (k Kind) IsTwoWire() bool {
	return k == CX
}

// Orientation tells which of the two wires of a controlled gate is the control.
type Orientation int

const (
	NoOrientation Orientation = iota
	ControlDown               // target is wire+1
	ControlUp                 // target is wire-1
)

func (o Orientation) String() string {
	switch o {
	case ControlDown:
		return "ControlDown"
	case ControlUp:
		return "ControlUp"
	default:
		return "None"
	}
}

// Offset returns the distance from the control wire to the target wire.
func (o Orientation) Offset() int {
	switch o {
	case ControlDown:
		return 1
	case ControlUp:
		return -1
	default:
		return 0
	}
}

// OrientationOf derives the orientation from a resolved (control, target) pair.
func OrientationOf(control, target int) Orientation {
	if control < target {
		return ControlDown
	}
	return ControlUp
}

type Gate struct {
	ID          string
	Kind        Kind
	Error       bool
	Orientation Orientation
	WireIndices [2]int
}

func newGate(kind Kind, isError bool, o Orientation) *Gate {
	return &Gate{
		ID:          uuid.New().String(),
		Kind:        kind,
		Error:       isError,
		Orientation: o,
	}
}

// NewCX creates a controlled-NOT with a fresh identity on (control, target).
func NewCX(control, target int) *Gate {
	g := newGate(CX, false, OrientationOf(control, target))
	g.WireIndices = [2]int{control, target}
	return g
}

// NewSingle creates a single-wire gate with a fresh identity on wire.
func NewSingle(kind Kind, isError bool, wire int) *Gate {
	g := newGate(kind, isError, NoOrientation)
	g.WireIndices = [2]int{wire, wire}
	return g
}

// Symbol is the bare IR name without the normal/error distinction.
func (g *Gate) Symbol() string {
	return g.Kind.String()
}

func (g *Gate) IsTwoWire() bool {
	return g.Kind.IsTwoWire()
}

func (g *Gate) Control() int {
	return g.WireIndices[0]
}

func (g *Gate) Target() int {
	return g.WireIndices[1]
}

// Wires returns every wire the gate occupies.
func (g *Gate) Wires() []int {
	if g.IsTwoWire() {
		return []int{g.WireIndices[0], g.WireIndices[1]}
	}
	return []int{g.WireIndices[0]}
}

func (g *Gate) String() string {
	if g.IsTwoWire() {
		return fmt.Sprintf("%s(%d,%d)", g.Symbol(), g.Control(), g.Target())
	}
	if g.Error {
		return fmt.Sprintf("%s_err(%d)", g.Symbol(), g.WireIndices[0])
	}
	return fmt.Sprintf("%s(%d)", g.Symbol(), g.WireIndices[0])
}
