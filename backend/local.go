package backend

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/qgrid-team/qgrid/core"
	"github.com/qgrid-team/qgrid/grid"
	"github.com/qgrid-team/qgrid/ir"
	"go.uber.org/zap"
)

// LocalPropagator moves the first error layer one step to the right,
// tracking errors as a Pauli frame.
type LocalPropagator struct{}

func (l *LocalPropagator) Setup(*core.Conf) error { return nil }
func (l *LocalPropagator) TearDown()              {}

func (l *LocalPropagator) Propagate(ctx context.Context, doc ir.Document) (ir.Document, error) {
	_, span := startSpan(ctx, "local.Propagate", len(doc))
	defer span.End()

	out, err := propagateStep(doc)
	observeBackendCall("local", "propagate", err)
	if err != nil {
		recordSpanError(span, err)
		return nil, errors.Wrapf(core.ErrorExternalServiceFailure, "local propagation/reason:%s", err)
	}
	return out, nil
}

func propagateStep(doc ir.Document) (ir.Document, error) {
	idx := -1
	for i, l := range doc {
		if l.Type == grid.LayerError {
			idx = i
			break
		}
	}
	if idx == -1 || idx == len(doc)-1 {
		zap.L().Debug("no error layer to propagate")
		return doc, nil
	}

	out := make(ir.Document, len(doc))
	copy(out, doc)
	cur, next := doc[idx], doc[idx+1]
	cleared := ir.Layer{Gates: []ir.Op{}, Type: grid.LayerEmpty, NumRows: cur.NumRows}

	switch {
	case len(next.Gates) == 0:
		zap.L().Debug(fmt.Sprintf("moving error layer %d into empty layer", idx))
		moved := cur
		moved.Gates = append([]ir.Op{}, cur.Gates...)
		moved.NumRows = next.NumRows
		out[idx], out[idx+1] = cleared, moved
	case next.Type == grid.LayerError:
		zap.L().Debug(fmt.Sprintf("combining error layers %d and %d", idx, idx+1))
		a, err := errorsOf(cur)
		if err != nil {
			return nil, err
		}
		b, err := errorsOf(next)
		if err != nil {
			return nil, err
		}
		out[idx] = cleared
		out[idx+1] = errorLayer(simplify(append(a, b...)), next.NumRows)
	default:
		zap.L().Debug(fmt.Sprintf("commuting error layer %d through layer %d", idx, idx+1))
		errs, err := errorsOf(cur)
		if err != nil {
			return nil, err
		}
		for _, op := range next.Gates {
			if err := checkOp(op); err != nil {
				return nil, err
			}
		}
		swapped := next
		swapped.Gates = append([]ir.Op{}, next.Gates...)
		swapped.Type = layerTypeOf(next, false)
		swapped.NumRows = cur.NumRows
		out[idx] = swapped
		out[idx+1] = errorLayer(throughLayer(errs, next), next.NumRows)
	}
	return out, nil
}

func layerTypeOf(l ir.Layer, isError bool) grid.LayerType {
	switch {
	case len(l.Gates) == 0:
		return grid.LayerEmpty
	case isError:
		return grid.LayerError
	case l.Type == "" || l.Type == grid.LayerEmpty:
		return grid.LayerNormal
	}
	return l.Type
}

// DummyPlotImage is a 1x1 transparent PNG.
const DummyPlotImage = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

// DummySimulator answers every request with DummyPlotImage.
type DummySimulator struct{}

func (d *DummySimulator) Setup(*core.Conf) error { return nil }
func (d *DummySimulator) TearDown()              {}

func (d *DummySimulator) Simulate(ctx context.Context, doc ir.Document, _ []byte) (*core.SimulationResult, error) {
	_, span := startSpan(ctx, "dummy.Simulate", len(doc))
	defer span.End()
	observeBackendCall("dummy", "simulate", nil)
	return &core.SimulationResult{PlotImage: DummyPlotImage}, nil
}
