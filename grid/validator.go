package grid

import (
	"github.com/go-faster/errors"
	"github.com/qgrid-team/qgrid/gate"
)

// CheckConflict validates that entry can occupy (wire, layer), ignoring cells held by excludeID.
// It never mutates the grid.
func (g *Grid) CheckConflict(wire, layer int, e gate.Entry, excludeID string) error {
	if !g.inBounds(wire, layer) {
		return errors.Wrapf(ErrorBoundsExceeded, "wire:%d/layer:%d/wires:%d/layers:%d",
			wire, layer, g.NumWires(), g.NumLayers())
	}
	wires := []int{wire}
	if e.IsTwoWire() {
		pair := e.PairWire(wire)
		if pair < 0 || pair >= g.NumWires() {
			return errors.Wrapf(ErrorInvalidWirePair, "need adjacent wire/wire:%d/pair:%d/wires:%d",
				wire, pair, g.NumWires())
		}
		wires = append(wires, pair)
	}
	for _, w := range wires {
		if !g.isFree(w, layer, excludeID) {
			return errors.Wrapf(ErrorPlacementConflict, "wire:%d/layer:%d", w, layer)
		}
	}
	return nil
}

// CheckLayerCompatibility rejects placements that would mix error and normal gates in one layer.
func (g *Grid) CheckLayerCompatibility(layer int, e gate.Entry, excludeID string) error {
	if layer < 0 || layer >= g.NumLayers() {
		return errors.Wrapf(ErrorBoundsExceeded, "layer:%d/layers:%d", layer, g.NumLayers())
	}
	lt := g.classify(layer, excludeID)
	switch lt {
	case LayerEmpty:
		return nil
	case LayerNormal:
		if !e.Error {
			return nil
		}
	case LayerError:
		if e.Error {
			return nil
		}
	}
	return errors.Wrapf(ErrorIncompatibleLayer, "layer:%d/type:%s/entry:%s", layer, lt, e.Name)
}

func (g *Grid) checkPlacement(e gate.Entry, wire, layer int, excludeID string) error {
	if err := g.CheckConflict(wire, layer, e, excludeID); err != nil {
		return err
	}
	return g.CheckLayerCompatibility(layer, e, excludeID)
}

func (g *Grid) isFree(wire, layer int, excludeID string) bool {
	c := g.cells[wire][layer]
	if c.Gate != nil && c.Gate.ID != excludeID {
		return false
	}
	if c.OccupiedBy != "" && c.OccupiedBy != excludeID {
		return false
	}
	return true
}
