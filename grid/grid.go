package grid

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/mohae/deepcopy"
	"github.com/qgrid-team/qgrid/gate"
	"go.uber.org/zap"
)

const (
	DefaultWires  = 2
	DefaultLayers = 10
)

type Config struct {
	MaxRows    int `toml:"max_rows"`
	MaxColumns int `toml:"max_columns"`
	MinColumns int `toml:"min_columns"`
}

func DefaultConfig() Config {
	return Config{
		MaxRows:    8,
		MaxColumns: 20,
		MinColumns: 1,
	}
}

// Validate rejects limits no grid can satisfy.
func (c Config) Validate() error {
	if c.MaxRows < 1 || c.MinColumns < 1 || c.MinColumns > c.MaxColumns {
		return errors.Wrapf(ErrorBoundsExceeded, "config max_rows:%d/min_columns:%d/max_columns:%d",
			c.MaxRows, c.MinColumns, c.MaxColumns)
	}
	return nil
}

// Cell is one (wire, layer) slot. Only the control cell of a gate holds the Gate payload.
type Cell struct {
	Gate       *gate.Gate
	OccupiedBy string
}

func (c Cell) IsEmpty() bool {
	return c.Gate == nil && c.OccupiedBy == ""
}

// Placement is a placed gate and the layer it lives in.
type Placement struct {
	Gate  *gate.Gate
	Layer int
}

type Grid struct {
	conf  Config
	cells [][]Cell // [wire][layer]
}

func New(wires, layers int, conf Config) (*Grid, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if wires < 1 || wires > conf.MaxRows {
		return nil, errors.Wrapf(ErrorBoundsExceeded, "wires:%d/max:%d", wires, conf.MaxRows)
	}
	if layers < conf.MinColumns || layers > conf.MaxColumns {
		return nil, errors.Wrapf(ErrorBoundsExceeded, "layers:%d/min:%d/max:%d",
			layers, conf.MinColumns, conf.MaxColumns)
	}
	return &Grid{
		conf:  conf,
		cells: emptyCells(wires, layers),
	}, nil
}

func NewDefault() *Grid {
	g, err := New(DefaultWires, DefaultLayers, DefaultConfig())
	if err != nil {
		panic(err)
	}
	return g
}

func emptyCells(wires, layers int) [][]Cell {
	cells := make([][]Cell, wires)
	for w := range cells {
		cells[w] = make([]Cell, layers)
	}
	return cells
}

func (g *Grid) Config() Config {
	return g.conf
}

func (g *Grid) NumWires() int {
	return len(g.cells)
}

func (g *Grid) NumLayers() int {
	if len(g.cells) == 0 {
		return 0
	}
	return len(g.cells[0])
}

func (g *Grid) inBounds(wire, layer int) bool {
	return wire >= 0 && wire < g.NumWires() && layer >= 0 && layer < g.NumLayers()
}

func (g *Grid) Cell(wire, layer int) (Cell, bool) {
	if !g.inBounds(wire, layer) {
		return Cell{}, false
	}
	return g.cells[wire][layer], true
}

// Gates lists every placed gate once, ordered by layer then control wire.
func (g *Grid) Gates() []Placement {
	ps := []Placement{}
	for l := 0; l < g.NumLayers(); l++ {
		for w := 0; w < g.NumWires(); w++ {
			if gt := g.cells[w][l].Gate; gt != nil {
				ps = append(ps, Placement{Gate: gt, Layer: l})
			}
		}
	}
	return ps
}

// Locate finds the gate with id and the layer holding it.
func (g *Grid) Locate(id string) (*gate.Gate, int, bool) {
	for _, p := range g.Gates() {
		if p.Gate.ID == id {
			return p.Gate, p.Layer, true
		}
	}
	return nil, 0, false
}

func (g *Grid) Clone() *Grid {
	return &Grid{
		conf:  g.conf,
		cells: deepcopy.Copy(g.cells).([][]Cell),
	}
}

func (g *Grid) put(gt *gate.Gate, layer int) {
	c := gt.WireIndices[0]
	g.cells[c][layer].Gate = gt
	g.cells[c][layer].OccupiedBy = gt.ID
	if gt.IsTwoWire() {
		g.cells[gt.Target()][layer].OccupiedBy = gt.ID
	}
}

// Put writes an already-built gate into layer without running placement checks.
// It is used by decoders that validate a whole layer themselves.
func (g *Grid) Put(gt *gate.Gate, layer int) error {
	for _, w := range gt.Wires() {
		if !g.inBounds(w, layer) {
			return errors.Wrapf(ErrorBoundsExceeded, "wire:%d/layer:%d", w, layer)
		}
		if !g.cells[w][layer].IsEmpty() {
			return errors.Wrapf(ErrorPlacementConflict, "wire:%d/layer:%d", w, layer)
		}
	}
	g.put(gt, layer)
	return nil
}

func (g *Grid) PlaceGate(e gate.Entry, wire, layer int) (*gate.Gate, error) {
	if err := g.checkPlacement(e, wire, layer, ""); err != nil {
		zap.L().Debug(fmt.Sprintf("rejected placement/entry:%s/wire:%d/layer:%d/reason:%s",
			e.Name, wire, layer, err))
		return nil, err
	}
	gt := e.New(wire)
	g.put(gt, layer)
	zap.L().Debug(fmt.Sprintf("placed gate/id:%s/gate:%s/layer:%d", gt.ID, gt, layer))
	return gt, nil
}

// MoveGate relocates the gate keeping its identity. A rejected move leaves the grid untouched.
func (g *Grid) MoveGate(id string, toWire, toLayer int) error {
	gt, _, ok := g.Locate(id)
	if !ok {
		return errors.Wrapf(ErrorGateNotFound, "id:%s", id)
	}
	e := gate.EntryFor(gt)
	if err := g.checkPlacement(e, toWire, toLayer, id); err != nil {
		zap.L().Debug(fmt.Sprintf("rejected move/id:%s/wire:%d/layer:%d/reason:%s",
			id, toWire, toLayer, err))
		return err
	}

	// destination was checked with the moving gate excluded
	g.RemoveGate(id)
	if gt.IsTwoWire() {
		gt.WireIndices = [2]int{toWire, e.PairWire(toWire)}
	} else {
		gt.WireIndices = [2]int{toWire, toWire}
	}
	g.put(gt, toLayer)
	zap.L().Debug(fmt.Sprintf("moved gate/id:%s/gate:%s/layer:%d", id, gt, toLayer))
	return nil
}

// RemoveGate clears every cell held by id and reports whether anything was removed.
func (g *Grid) RemoveGate(id string) bool {
	removed := false
	for w := range g.cells {
		for l := range g.cells[w] {
			c := &g.cells[w][l]
			if c.Gate != nil && c.Gate.ID == id {
				c.Gate = nil
				removed = true
			}
			if c.OccupiedBy == id {
				c.OccupiedBy = ""
				removed = true
			}
		}
	}
	return removed
}

func (g *Grid) AddWire() error {
	if g.NumWires() >= g.conf.MaxRows {
		return errors.Wrapf(ErrorBoundsExceeded, "wires:%d/max:%d", g.NumWires(), g.conf.MaxRows)
	}
	g.cells = append(g.cells, make([]Cell, g.NumLayers()))
	return nil
}

// RemoveWire deletes wire w, drops every gate touching it and renumbers the wires above.
func (g *Grid) RemoveWire(w int) error {
	if g.NumWires() <= 1 {
		return errors.Wrap(ErrorBoundsExceeded, "cannot remove the last wire")
	}
	if w < 0 || w >= g.NumWires() {
		return errors.Wrapf(ErrorBoundsExceeded, "wire:%d/wires:%d", w, g.NumWires())
	}
	for _, p := range g.Gates() {
		for _, gw := range p.Gate.Wires() {
			if gw == w {
				g.RemoveGate(p.Gate.ID)
				break
			}
		}
	}
	g.cells = append(g.cells[:w], g.cells[w+1:]...)
	for _, p := range g.Gates() {
		for i, gw := range p.Gate.WireIndices {
			if gw > w {
				p.Gate.WireIndices[i] = gw - 1
			}
		}
	}
	return nil
}

func (g *Grid) AddLayer() error {
	if g.NumLayers() >= g.conf.MaxColumns {
		return errors.Wrapf(ErrorBoundsExceeded, "layers:%d/max:%d", g.NumLayers(), g.conf.MaxColumns)
	}
	for w := range g.cells {
		g.cells[w] = append(g.cells[w], Cell{})
	}
	return nil
}

// RemoveLayer drops the rightmost layer if it holds nothing.
func (g *Grid) RemoveLayer() error {
	if g.NumLayers() <= g.conf.MinColumns || g.NumLayers() == 0 {
		return errors.Wrapf(ErrorBoundsExceeded, "layers:%d/min:%d", g.NumLayers(), g.conf.MinColumns)
	}
	last := g.NumLayers() - 1
	for w := range g.cells {
		if !g.cells[w][last].IsEmpty() {
			return errors.Wrapf(ErrorLayerNotEmpty, "layer:%d", last)
		}
	}
	for w := range g.cells {
		g.cells[w] = g.cells[w][:last]
	}
	return nil
}

func (g *Grid) Reset() {
	g.cells = emptyCells(g.NumWires(), g.NumLayers())
}
