package ir

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/qgrid-team/qgrid/grid"
)

const CXSymbol = "CX"

var ErrorMalformedIR = errors.New("malformed IR")

// MalformedIRError reports the first layer that could not be decoded.
// Layer is -1 when the failure is not tied to a layer.
type MalformedIRError struct {
	Layer  int
	Reason string
}

func (e *MalformedIRError) Error() string {
	return fmt.Sprintf("malformed IR/layer:%d/reason:%s", e.Layer, e.Reason)
}

func (e *MalformedIRError) Is(target error) bool {
	return target == ErrorMalformedIR
}

func malformed(layer int, format string, args ...interface{}) error {
	return &MalformedIRError{Layer: layer, Reason: fmt.Sprintf(format, args...)}
}

// Op is a single gate operation: [symbol, wire] or ["CX", control, target].
type Op struct {
	Symbol string
	Wires  []int
}

func Single(symbol string, wire int) Op {
	return Op{Symbol: symbol, Wires: []int{wire}}
}

func CX(control, target int) Op {
	return Op{Symbol: CXSymbol, Wires: []int{control, target}}
}

func (o Op) String() string {
	return fmt.Sprintf("%s%v", o.Symbol, o.Wires)
}

type Layer struct {
	Gates   []Op
	Type    grid.LayerType
	NumRows int
}

// Document is the columnar circuit representation exchanged with simulators and propagators.
type Document []Layer

// NumWires is the smallest wire count that holds every op and declared row count.
func (d Document) NumWires() int {
	n := 0
	for _, l := range d {
		if l.NumRows > n {
			n = l.NumRows
		}
		for _, op := range l.Gates {
			for _, w := range op.Wires {
				if w+1 > n {
					n = w + 1
				}
			}
		}
	}
	return n
}

func (d Document) String() string {
	b, err := d.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}
