package grid

import (
	"fmt"

	"github.com/qgrid-team/qgrid/gate"
)

type LayerType string

const (
	LayerEmpty  LayerType = "empty"
	LayerNormal LayerType = "normal"
	LayerError  LayerType = "error"
	LayerMixed  LayerType = "mixed"
)

func (lt LayerType) String() string {
	return string(lt)
}

func ParseLayerType(s string) (LayerType, error) {
	switch lt := LayerType(s); lt {
	case LayerEmpty, LayerNormal, LayerError, LayerMixed:
		return lt, nil
	default:
		return "", fmt.Errorf("unknown layer type:%s", s)
	}
}

// Classify derives the layer type from the current cell contents.
func (g *Grid) Classify(layer int) LayerType {
	return g.classify(layer, "")
}

func (g *Grid) LayerTypes() []LayerType {
	types := make([]LayerType, g.NumLayers())
	for l := range types {
		types[l] = g.Classify(l)
	}
	return types
}

func (g *Grid) classify(layer int, excludeID string) LayerType {
	if layer < 0 || layer >= g.NumLayers() {
		return LayerEmpty
	}
	hasError, hasNormal := false, false
	for w := range g.cells {
		gt := g.gateAt(w, layer)
		if gt == nil || gt.ID == excludeID {
			continue
		}
		if gt.Error {
			hasError = true
		} else {
			hasNormal = true
		}
	}
	switch {
	case hasError && hasNormal:
		return LayerMixed
	case hasError:
		return LayerError
	case hasNormal:
		return LayerNormal
	default:
		return LayerEmpty
	}
}

// gateAt resolves the gate covering a cell. A target marker counts only when
// the owning control cell sits in the same layer.
func (g *Grid) gateAt(wire, layer int) *gate.Gate {
	c := g.cells[wire][layer]
	if c.Gate != nil {
		return c.Gate
	}
	if c.OccupiedBy == "" {
		return nil
	}
	for w := range g.cells {
		if owner := g.cells[w][layer].Gate; owner != nil && owner.ID == c.OccupiedBy {
			return owner
		}
	}
	return nil
}
