package ir

import (
	"fmt"

	"github.com/qgrid-team/qgrid/gate"
	"github.com/qgrid-team/qgrid/grid"
	"go.uber.org/zap"
)

// Encode walks layers in order and wires ascending. A two-wire gate is emitted
// once, at its control cell.
func Encode(g *grid.Grid) Document {
	doc := make(Document, g.NumLayers())
	for l := range doc {
		layer := Layer{
			Gates:   []Op{},
			Type:    g.Classify(l),
			NumRows: g.NumWires(),
		}
		for w := 0; w < g.NumWires(); w++ {
			c, _ := g.Cell(w, l)
			if c.Gate == nil {
				continue
			}
			if c.Gate.IsTwoWire() {
				layer.Gates = append(layer.Gates, CX(c.Gate.Control(), c.Gate.Target()))
			} else {
				layer.Gates = append(layer.Gates, Single(c.Gate.Symbol(), w))
			}
		}
		doc[l] = layer
	}
	return doc
}

type decodeOptions struct {
	wires  int
	layers int
	conf   grid.Config
}

type DecodeOption func(*decodeOptions)

// WithDimensions fixes the grid size instead of deriving it from the document.
func WithDimensions(wires, layers int) DecodeOption {
	return func(o *decodeOptions) {
		o.wires = wires
		o.layers = layers
	}
}

func WithConfig(conf grid.Config) DecodeOption {
	return func(o *decodeOptions) {
		o.conf = conf
	}
}

// Decode builds a fresh grid from doc. Gate identities are always new.
// On failure no grid is returned.
func Decode(doc Document, opts ...DecodeOption) (*grid.Grid, error) {
	o := &decodeOptions{conf: grid.DefaultConfig()}
	for _, opt := range opts {
		opt(o)
	}

	// Limits are checked before anything is allocated.
	wires := doc.NumWires()
	if wires > o.conf.MaxRows {
		return nil, malformed(-1, "document needs %d wires but at most %d are allowed", wires, o.conf.MaxRows)
	}
	if len(doc) > o.conf.MaxColumns {
		return nil, malformed(-1, "document has %d layers but at most %d are allowed", len(doc), o.conf.MaxColumns)
	}
	if wires < 1 {
		wires = 1
	}
	layers := len(doc)
	if layers < o.conf.MinColumns {
		layers = o.conf.MinColumns
	}
	if o.wires > 0 {
		wires = o.wires
	}
	if o.layers > 0 {
		if len(doc) > o.layers {
			return nil, malformed(o.layers, "document has %d layers but grid has %d", len(doc), o.layers)
		}
		layers = o.layers
	}

	g, err := grid.New(wires, layers, o.conf)
	if err != nil {
		return nil, malformed(-1, "%s", err)
	}
	for li, layer := range doc {
		isError, err := isErrorLayer(layer.Type)
		if err != nil {
			return nil, malformed(li, "%s", err)
		}
		for _, op := range layer.Gates {
			gt, err := newGate(op, isError)
			if err != nil {
				return nil, malformed(li, "%s", err)
			}
			if err := g.Put(gt, li); err != nil {
				return nil, malformed(li, "op:%s/%s", op, err)
			}
		}
	}
	zap.L().Debug(fmt.Sprintf("decoded IR/wires:%d/layers:%d/gates:%d", wires, layers, len(g.Gates())))
	return g, nil
}

// isErrorLayer tells whether single ops of a layer with type t are error gates.
// A missing type is read as a normal layer.
func isErrorLayer(t grid.LayerType) (bool, error) {
	if t == "" {
		return false, nil
	}
	lt, err := grid.ParseLayerType(string(t))
	if err != nil {
		return false, err
	}
	return lt == grid.LayerError, nil
}

func newGate(op Op, isError bool) (*gate.Gate, error) {
	if op.Symbol == CXSymbol {
		if len(op.Wires) != 2 {
			return nil, fmt.Errorf("CX needs control and target/op:%s", op)
		}
		if op.Wires[0] == op.Wires[1] {
			return nil, fmt.Errorf("CX control equals target/op:%s", op)
		}
		return gate.NewCX(op.Wires[0], op.Wires[1]), nil
	}
	if len(op.Wires) != 1 {
		return nil, fmt.Errorf("single-wire op needs one wire/op:%s", op)
	}
	kind, err := gate.ParseSymbol(op.Symbol)
	if err != nil {
		return nil, err
	}
	return gate.NewSingle(kind, isError, op.Wires[0]), nil
}
