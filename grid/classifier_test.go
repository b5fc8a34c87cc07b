//go:build unit
// +build unit

package grid

import (
	"testing"

	"github.com/qgrid-team/qgrid/gate"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		prep func(g *Grid)
		want LayerType
	}{
		{
			name: "empty",
			prep: func(g *Grid) {},
			want: LayerEmpty,
		},
		{
			name: "normal",
			prep: func(g *Grid) { g.put(gate.NewSingle(gate.H, false, 0), 0) },
			want: LayerNormal,
		},
		{
			name: "error",
			prep: func(g *Grid) { g.put(gate.NewSingle(gate.X, true, 1), 0) },
			want: LayerError,
		},
		{
			name: "cnot only",
			prep: func(g *Grid) { g.put(gate.NewCX(0, 1), 0) },
			want: LayerNormal,
		},
		{
			name: "mixed",
			prep: func(g *Grid) {
				g.put(gate.NewSingle(gate.X, true, 0), 0)
				g.put(gate.NewSingle(gate.H, false, 2), 0)
			},
			want: LayerMixed,
		},
		{
			name: "cnot with error gate is mixed",
			prep: func(g *Grid) {
				g.put(gate.NewCX(1, 0), 0)
				g.put(gate.NewSingle(gate.Z, true, 2), 0)
			},
			want: LayerMixed,
		},
		{
			name: "dangling marker does not count",
			prep: func(g *Grid) { g.cells[1][0].OccupiedBy = "orphan" },
			want: LayerEmpty,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGrid(t, 3, 2)
			tt.prep(g)
			assert.Equal(t, tt.want, g.Classify(0))
			assert.Equal(t, LayerEmpty, g.Classify(1))
		})
	}
}

func TestGateAtCountsTargetMarker(t *testing.T) {
	g := newTestGrid(t, 2, 1)
	cx := gate.NewCX(0, 1)
	g.put(cx, 0)
	assert.Equal(t, cx, g.gateAt(1, 0))
}

func TestLayerTypes(t *testing.T) {
	g := newTestGrid(t, 2, 3)
	g.PlaceGate(gate.HGate, 0, 0)
	g.PlaceGate(gate.YError, 1, 2)
	assert.Equal(t, []LayerType{LayerNormal, LayerEmpty, LayerError}, g.LayerTypes())
}

func TestParseLayerType(t *testing.T) {
	lt, err := ParseLayerType("error")
	assert.Nil(t, err)
	assert.Equal(t, LayerError, lt)

	_, err = ParseLayerType("noise")
	assert.EqualError(t, err, "unknown layer type:noise")
}
