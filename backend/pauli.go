package backend

import (
	"fmt"

	"github.com/qgrid-team/qgrid/ir"
)

// pauli uses the I=0, X=1, Y=2, Z=3 encoding so that XOR multiplies two
// Paulis up to a global phase.
type pauli uint8

const (
	pauliI pauli = iota
	pauliX
	pauliY
	pauliZ
)

var pauliSymbols = [...]string{"I", "X", "Y", "Z"}

func (p pauli) String() string {
	return pauliSymbols[p]
}

func parsePauli(symbol string) (pauli, error) {
	switch symbol {
	case "X":
		return pauliX, nil
	case "Y":
		return pauliY, nil
	case "Z":
		return pauliZ, nil
	}
	return pauliI, fmt.Errorf("%s is not a Pauli error", symbol)
}

type pauliError struct {
	p    pauli
	wire int
}

func errorsOf(l ir.Layer) ([]pauliError, error) {
	errs := make([]pauliError, 0, len(l.Gates))
	for _, op := range l.Gates {
		if len(op.Wires) != 1 {
			return nil, fmt.Errorf("error layer holds a multi-wire op:%s", op)
		}
		p, err := parsePauli(op.Symbol)
		if err != nil {
			return nil, err
		}
		errs = append(errs, pauliError{p: p, wire: op.Wires[0]})
	}
	return errs, nil
}

// simplify combines errors per wire, keeping wires in first-seen order and
// dropping wires that cancel to the identity.
func simplify(errs []pauliError) []pauliError {
	acc := map[int]pauli{}
	var order []int
	for _, e := range errs {
		cur, ok := acc[e.wire]
		if !ok {
			order = append(order, e.wire)
		}
		acc[e.wire] = cur ^ e.p
	}
	out := make([]pauliError, 0, len(order))
	for _, w := range order {
		if acc[w] != pauliI {
			out = append(out, pauliError{p: acc[w], wire: w})
		}
	}
	return out
}

// commute returns the errors equivalent to e after it is pushed through op.
func commute(e pauliError, op ir.Op) []pauliError {
	switch op.Symbol {
	case "H":
		if op.Wires[0] != e.wire {
			return []pauliError{e}
		}
		switch e.p {
		case pauliX:
			return []pauliError{{pauliZ, e.wire}}
		case pauliZ:
			return []pauliError{{pauliX, e.wire}}
		}
	case "S":
		if op.Wires[0] != e.wire {
			return []pauliError{e}
		}
		switch e.p {
		case pauliX:
			return []pauliError{{pauliY, e.wire}}
		case pauliY:
			return []pauliError{{pauliX, e.wire}}
		}
	case ir.CXSymbol:
		control, target := op.Wires[0], op.Wires[1]
		switch e.wire {
		case control:
			switch e.p {
			case pauliX:
				return []pauliError{{pauliX, control}, {pauliX, target}}
			case pauliY:
				return []pauliError{{pauliY, control}, {pauliX, target}}
			}
		case target:
			switch e.p {
			case pauliY:
				return []pauliError{{pauliY, target}, {pauliZ, control}}
			case pauliZ:
				return []pauliError{{pauliZ, target}, {pauliZ, control}}
			}
		}
	}
	return []pauliError{e}
}

func checkOp(op ir.Op) error {
	want := 1
	if op.Symbol == ir.CXSymbol {
		want = 2
	}
	if len(op.Wires) != want {
		return fmt.Errorf("op needs %d wires:%s", want, op)
	}
	return nil
}

// throughLayer pushes every error through each op of l in order.
func throughLayer(errs []pauliError, l ir.Layer) []pauliError {
	var out []pauliError
	for _, e := range errs {
		cur := []pauliError{e}
		for _, op := range l.Gates {
			var next []pauliError
			for _, c := range cur {
				next = append(next, commute(c, op)...)
			}
			cur = next
		}
		out = append(out, cur...)
	}
	return simplify(out)
}

func errorLayer(errs []pauliError, numRows int) ir.Layer {
	l := ir.Layer{Gates: make([]ir.Op, 0, len(errs)), NumRows: numRows}
	for _, e := range errs {
		l.Gates = append(l.Gates, ir.Single(e.p.String(), e.wire))
	}
	l.Type = layerTypeOf(l, true)
	return l
}
