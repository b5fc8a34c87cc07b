//go:build unit
// +build unit

package ir

import (
	"sort"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/go-faster/errors"
	"github.com/qgrid-team/qgrid/gate"
	"github.com/qgrid-team/qgrid/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/pretty"
)

func TestEncodeCNOT(t *testing.T) {
	g, err := grid.New(2, 1, grid.DefaultConfig())
	require.Nil(t, err)
	_, err = g.PlaceGate(gate.CNOTDown, 0, 0)
	require.Nil(t, err)

	doc := Encode(g)
	assert.Equal(t, Document{
		{Gates: []Op{CX(0, 1)}, Type: grid.LayerNormal, NumRows: 2},
	}, doc)
	assert.Equal(t, `[{"gates":[["CX",0,1]],"type":"normal","numRows":2}]`, doc.String())
}

func TestEncodeOrderAndEmptyLayers(t *testing.T) {
	g, err := grid.New(3, 3, grid.DefaultConfig())
	require.Nil(t, err)
	g.PlaceGate(gate.TGate, 2, 0)
	g.PlaceGate(gate.CNOTUp, 1, 0)
	g.PlaceGate(gate.ZError, 1, 2)

	want := heredoc.Doc(`
		[
		  {"gates": [["CX", 1, 0], ["T", 2]], "type": "normal", "numRows": 3},
		  {"gates": [], "type": "empty", "numRows": 3},
		  {"gates": [["Z", 1]], "type": "error", "numRows": 3}
		]
	`)
	got, err := Encode(g).MarshalJSON()
	require.Nil(t, err)
	assert.Equal(t, string(pretty.Ugly([]byte(want))), string(got))
}

func TestDecodeErrorLayer(t *testing.T) {
	doc, err := Parse([]byte(`[{"gates":[["X",0]],"type":"error","numRows":1}]`))
	require.Nil(t, err)
	g, err := Decode(doc)
	require.Nil(t, err)

	assert.Equal(t, 1, g.NumWires())
	assert.Equal(t, 1, g.NumLayers())
	c, ok := g.Cell(0, 0)
	assert.True(t, ok)
	require.NotNil(t, c.Gate)
	assert.Equal(t, gate.X, c.Gate.Kind)
	assert.True(t, c.Gate.Error)
	assert.Equal(t, grid.LayerError, g.Classify(0))
}

func TestDecodeCNOT(t *testing.T) {
	g, err := Decode(Document{
		{Gates: []Op{CX(2, 1)}, Type: grid.LayerNormal, NumRows: 3},
	})
	require.Nil(t, err)
	control, _ := g.Cell(2, 0)
	target, _ := g.Cell(1, 0)
	require.NotNil(t, control.Gate)
	assert.Equal(t, [2]int{2, 1}, control.Gate.WireIndices)
	assert.Equal(t, gate.ControlUp, control.Gate.Orientation)
	assert.Nil(t, target.Gate)
	assert.Equal(t, control.Gate.ID, target.OccupiedBy)
}

func TestDecodeSizing(t *testing.T) {
	tests := []struct {
		name       string
		doc        Document
		opts       []DecodeOption
		wantWires  int
		wantLayers int
	}{
		{
			name:       "from ops",
			doc:        Document{{Gates: []Op{Single("H", 3)}, Type: grid.LayerNormal}},
			wantWires:  4,
			wantLayers: 1,
		},
		{
			name:       "from declared rows",
			doc:        Document{{Gates: []Op{}, Type: grid.LayerEmpty, NumRows: 5}, {Gates: []Op{}}},
			wantWires:  5,
			wantLayers: 2,
		},
		{
			name:       "empty document",
			doc:        Document{},
			wantWires:  1,
			wantLayers: 1,
		},
		{
			name:       "caller dimensions",
			doc:        Document{{Gates: []Op{Single("S", 0)}, Type: grid.LayerNormal, NumRows: 1}},
			opts:       []DecodeOption{WithDimensions(3, 4)},
			wantWires:  3,
			wantLayers: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Decode(tt.doc, tt.opts...)
			require.Nil(t, err)
			assert.Equal(t, tt.wantWires, g.NumWires())
			assert.Equal(t, tt.wantLayers, g.NumLayers())
		})
	}
}

func emptyLayersForTest(n int) Document {
	doc := make(Document, n)
	for i := range doc {
		doc[i] = Layer{Gates: []Op{}, Type: grid.LayerEmpty, NumRows: 1}
	}
	return doc
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name      string
		doc       Document
		opts      []DecodeOption
		wantLayer int
	}{
		{
			name: "unknown symbol",
			doc: Document{
				{Gates: []Op{}, Type: grid.LayerEmpty},
				{Gates: []Op{Single("RZ", 0)}, Type: grid.LayerNormal},
			},
			wantLayer: 1,
		},
		{
			name:      "negative wire",
			doc:       Document{{Gates: []Op{Single("H", -1)}, Type: grid.LayerNormal}},
			wantLayer: 0,
		},
		{
			name:      "cx on one wire",
			doc:       Document{{Gates: []Op{CX(1, 1)}, Type: grid.LayerNormal}},
			wantLayer: 0,
		},
		{
			name:      "cx missing target",
			doc:       Document{{Gates: []Op{{Symbol: "CX", Wires: []int{0}}}, Type: grid.LayerNormal}},
			wantLayer: 0,
		},
		{
			name:      "overlapping ops",
			doc:       Document{{Gates: []Op{CX(0, 1), Single("X", 1)}, Type: grid.LayerNormal}},
			wantLayer: 0,
		},
		{
			name:      "unknown layer type",
			doc:       Document{{Gates: []Op{Single("X", 0)}, Type: "noisy"}},
			wantLayer: 0,
		},
		{
			name:      "wire beyond caller dimensions",
			doc:       Document{{Gates: []Op{Single("X", 2)}, Type: grid.LayerNormal}},
			opts:      []DecodeOption{WithDimensions(2, 1)},
			wantLayer: 0,
		},
		{
			name:      "more layers than caller dimensions",
			doc:       Document{{Gates: []Op{}}, {Gates: []Op{}}},
			opts:      []DecodeOption{WithDimensions(2, 1)},
			wantLayer: 1,
		},
		{
			name:      "huge wire index",
			doc:       Document{{Gates: []Op{Single("H", 1<<40)}, Type: grid.LayerNormal}},
			wantLayer: -1,
		},
		{
			name:      "declared rows over default max",
			doc:       Document{{Gates: []Op{}, Type: grid.LayerEmpty, NumRows: 51}},
			wantLayer: -1,
		},
		{
			name:      "layers over default max",
			doc:       emptyLayersForTest(21),
			wantLayer: -1,
		},
		{
			name:      "wires over configured max",
			doc:       Document{{Gates: []Op{Single("X", 3)}, Type: grid.LayerNormal}},
			opts:      []DecodeOption{WithConfig(grid.Config{MaxRows: 3, MaxColumns: 20, MinColumns: 1})},
			wantLayer: -1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Decode(tt.doc, tt.opts...)
			assert.Nil(t, g)
			assert.True(t, errors.Is(err, ErrorMalformedIR))
			var me *MalformedIRError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, tt.wantLayer, me.Layer)
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Document
		wantErr bool
	}{
		{
			name: "missing numRows",
			in:   `[{"gates":[["H",0],["CX",0,1]],"type":"normal"}]`,
			want: Document{{Gates: []Op{Single("H", 0), CX(0, 1)}, Type: grid.LayerNormal}},
		},
		{
			name: "unknown keys are skipped",
			in:   `[{"gates":[],"type":"empty","numRows":2,"extra":{"a":1}}]`,
			want: Document{{Gates: []Op{}, Type: grid.LayerEmpty, NumRows: 2}},
		},
		{name: "not an array", in: `{"gates":[]}`, wantErr: true},
		{name: "layer not an object", in: `[1]`, wantErr: true},
		{name: "op without symbol", in: `[{"gates":[[0,1]]}]`, wantErr: true},
		{name: "fractional wire", in: `[{"gates":[["H",0.5]]}]`, wantErr: true},
		{name: "broken json", in: `[{"gates":[`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.in))
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrorMalformedIR), "got %v", err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type placed struct {
	layer int
	op    string
}

func opSet(doc Document) []placed {
	ps := []placed{}
	for l, layer := range doc {
		for _, op := range layer.Gates {
			ps = append(ps, placed{layer: l, op: op.String()})
		}
	}
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].layer != ps[j].layer {
			return ps[i].layer < ps[j].layer
		}
		return ps[i].op < ps[j].op
	})
	return ps
}

func TestRoundTrip(t *testing.T) {
	g, err := grid.New(4, 5, grid.DefaultConfig())
	require.Nil(t, err)
	g.PlaceGate(gate.HGate, 0, 0)
	g.PlaceGate(gate.CNOTDown, 1, 0)
	g.PlaceGate(gate.CNOTUp, 3, 1)
	g.PlaceGate(gate.SGate, 0, 1)
	g.PlaceGate(gate.XError, 0, 2)
	g.PlaceGate(gate.YError, 3, 2)
	g.PlaceGate(gate.TGate, 2, 4)

	doc := Encode(g)
	data, err := doc.MarshalJSON()
	require.Nil(t, err)
	parsed, err := Parse(data)
	require.Nil(t, err)
	decoded, err := Decode(parsed)
	require.Nil(t, err)

	assert.Equal(t, g.NumWires(), decoded.NumWires())
	assert.Equal(t, g.NumLayers(), decoded.NumLayers())
	assert.Equal(t, g.LayerTypes(), decoded.LayerTypes())
	assert.Equal(t, opSet(doc), opSet(Encode(decoded)))

	for _, p := range decoded.Gates() {
		_, _, found := g.Locate(p.Gate.ID)
		assert.False(t, found, "identity %s was reused", p.Gate.ID)
	}
}
