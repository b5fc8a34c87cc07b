//go:build unit
// +build unit

package noise

import (
	"math"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "single identity", in: `[[[1,0],[0,1]]]`},
		{name: "rectangular is still syntactically valid", in: `[[[0,0,0,0],[0,0,0,0],[0,0,0,0]]]`},
		{name: "not json", in: `hello`, wantErr: true},
		{name: "not an array", in: `{"a":1}`, wantErr: true},
		{name: "empty list", in: `[]`, wantErr: true},
		{name: "empty matrix", in: `[[]]`, wantErr: true},
		{name: "empty row", in: `[[[1],[]]]`, wantErr: true},
		{name: "string entry", in: `[[["1",0],[0,1]]]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse([]byte(tt.in))
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrorSyntax), "got %v", err)
				assert.Nil(t, m)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, tt.in, string(m.Raw()))
		})
	}
}

func TestValidate(t *testing.T) {
	p := 0.1
	a := math.Sqrt(1 - p)
	b := math.Sqrt(p)
	tests := []struct {
		name    string
		ops     [][][]float64
		wantErr error
	}{
		{
			name: "identity channel",
			ops:  [][][]float64{{{1, 0}, {0, 1}}},
		},
		{
			name: "bit flip channel",
			ops: [][][]float64{
				{{a, 0}, {0, a}},
				{{0, b}, {b, 0}},
			},
		},
		{
			name:    "incomplete",
			ops:     [][][]float64{{{a, 0}, {0, a}}},
			wantErr: ErrorIncompletion,
		},
		{
			name:    "non-square",
			ops:     [][][]float64{{{1, 0, 0}, {0, 1}}},
			wantErr: ErrorShape,
		},
		{
			name:    "dimension mismatch",
			ops:     [][][]float64{{{1, 0}, {0, 1}}, {{1}}},
			wantErr: ErrorShape,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&Model{Operators: tt.ops}, DefaultTolerance)
			if tt.wantErr == nil {
				assert.Nil(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestValidateReportsEveryShapeError(t *testing.T) {
	m := &Model{Operators: [][][]float64{
		{{1, 0}, {0, 1}},
		{{1, 0, 0}, {0, 1}},
		{{1}},
	}}
	err := Validate(m, DefaultTolerance)
	assert.Equal(t, 2, len(multierr.Errors(err)))
}

func TestParseAndValidate(t *testing.T) {
	m, err := ParseAndValidate([]byte(`[[[0,1],[1,0]]]`))
	require.Nil(t, err)
	assert.Equal(t, 2, m.Dimension())

	_, err = ParseAndValidate([]byte(`[[[0.5,0],[0,0.5]]]`))
	assert.True(t, errors.Is(err, ErrorIncompletion))
}
