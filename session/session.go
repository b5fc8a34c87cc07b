package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/qgrid-team/qgrid/core"
	"github.com/qgrid-team/qgrid/gate"
	"github.com/qgrid-team/qgrid/grid"
	"github.com/qgrid-team/qgrid/ir"
	"github.com/qgrid-team/qgrid/noise"
	"go.uber.org/zap"
)

// Session is one editing session. It exclusively owns its grid; every
// mutation happens under mu. busy guards against overlapping backend calls.
type Session struct {
	ID        string
	CreatedAt strfmt.DateTime

	mu        sync.Mutex
	grid      *grid.Grid
	revision  uint64
	resets    uint64
	plotImage string
	busy      atomic.Bool
}

func newSession(g *grid.Grid) *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: strfmt.DateTime(time.Now()),
		grid:      g,
	}
}

// mutate runs f on the grid. Rejections from f leave the grid untouched.
func (s *Session) mutate(op string, f func(g *grid.Grid) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := f(s.grid)
	observeOperation(op, err)
	if err != nil {
		zap.L().Debug(fmt.Sprintf("rejected %s/session:%s/reason:%s", op, s.ID, err))
		return err
	}
	s.revision++
	return nil
}

func (s *Session) PlaceGate(entryName string, wire, layer int) (*gate.Gate, error) {
	e, ok := gate.Lookup(entryName)
	if !ok {
		observeOperation("place", ErrorUnknownGate)
		return nil, errors.Wrapf(ErrorUnknownGate, "name:%s", entryName)
	}
	var placed *gate.Gate
	err := s.mutate("place", func(g *grid.Grid) (err error) {
		placed, err = g.PlaceGate(e, wire, layer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func (s *Session) MoveGate(id string, wire, layer int) error {
	return s.mutate("move", func(g *grid.Grid) error {
		return g.MoveGate(id, wire, layer)
	})
}

func (s *Session) RemoveGate(id string) error {
	return s.mutate("remove", func(g *grid.Grid) error {
		if !g.RemoveGate(id) {
			return errors.Wrapf(grid.ErrorGateNotFound, "id:%s", id)
		}
		return nil
	})
}

func (s *Session) AddWire() error {
	return s.mutate("add_wire", func(g *grid.Grid) error {
		return g.AddWire()
	})
}

func (s *Session) RemoveWire(wire int) error {
	return s.mutate("remove_wire", func(g *grid.Grid) error {
		return g.RemoveWire(wire)
	})
}

func (s *Session) AddLayer() error {
	return s.mutate("add_layer", func(g *grid.Grid) error {
		return g.AddLayer()
	})
}

func (s *Session) RemoveLayer() error {
	return s.mutate("remove_layer", func(g *grid.Grid) error {
		return g.RemoveLayer()
	})
}

// Reset empties the grid and drops the last simulation result. A simulation
// still in flight will not store its result.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid.Reset()
	s.plotImage = ""
	s.revision++
	s.resets++
	observeOperation("reset", nil)
}

func (s *Session) Export() ir.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ir.Encode(s.grid)
}

// Snapshot returns a copy of the grid that the caller may keep.
func (s *Session) Snapshot() *grid.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Clone()
}

func (s *Session) PlotImage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plotImage
}

func (s *Session) IsBusy() bool {
	return s.busy.Load()
}

func (s *Session) snapshotIR() (ir.Document, uint64, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ir.Encode(s.grid), s.revision, s.resets
}

func (s *Session) acquire() error {
	if !s.busy.CompareAndSwap(false, true) {
		return errors.Wrapf(ErrorBusy, "session:%s", s.ID)
	}
	return nil
}

// Simulate sends the current circuit to the simulator. A non-empty
// noiseModel must be a valid Kraus set and is forwarded untouched.
func (s *Session) Simulate(ctx context.Context, noiseModel []byte) (*core.SimulationResult, error) {
	res, err := s.simulate(ctx, noiseModel)
	observeOperation("simulate", err)
	return res, err
}

func (s *Session) simulate(ctx context.Context, noiseModel []byte) (*core.SimulationResult, error) {
	if len(noiseModel) > 0 {
		if _, err := noise.ParseAndValidate(noiseModel); err != nil {
			return nil, err
		}
	}
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.busy.Store(false)

	doc, _, resets := s.snapshotIR()
	var res *core.SimulationResult
	err := core.GetSystemComponents().Invoke(
		func(sc core.Scheduler, sim core.Simulator) error {
			return sc.Submit(ctx, func(ctx context.Context) (err error) {
				res, err = sim.Simulate(ctx, doc, noiseModel)
				return err
			})
		})
	if err != nil {
		zap.L().Info(fmt.Sprintf("failed to simulate/session:%s/reason:%s", s.ID, err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resets != resets {
		return nil, errors.Wrapf(ErrorStaleResult, "session:%s was reset", s.ID)
	}
	s.plotImage = res.PlotImage
	return res, nil
}

// Propagate runs one propagation step and replaces the grid with the result,
// sized to the current wire count. On any failure the grid is unchanged.
func (s *Session) Propagate(ctx context.Context) (ir.Document, error) {
	doc, err := s.propagate(ctx)
	observeOperation("propagate", err)
	return doc, err
}

func (s *Session) propagate(ctx context.Context) (ir.Document, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.busy.Store(false)

	doc, revision, _ := s.snapshotIR()
	var out ir.Document
	err := core.GetSystemComponents().Invoke(
		func(sc core.Scheduler, p core.Propagator) error {
			return sc.Submit(ctx, func(ctx context.Context) (err error) {
				out, err = p.Propagate(ctx, doc)
				return err
			})
		})
	if err != nil {
		zap.L().Info(fmt.Sprintf("failed to propagate/session:%s/reason:%s", s.ID, err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revision != revision {
		return nil, errors.Wrapf(ErrorStaleResult, "session:%s", s.ID)
	}
	g, err := ir.Decode(out,
		ir.WithDimensions(s.grid.NumWires(), max(len(out), s.grid.NumLayers())),
		ir.WithConfig(s.grid.Config()))
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to decode propagation result/session:%s/reason:%s", s.ID, err))
		return nil, errors.Wrapf(core.ErrorExternalServiceFailure, "unusable propagation result/reason:%s", err)
	}
	s.grid = g
	s.revision++
	return ir.Encode(g), nil
}
