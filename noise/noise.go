package noise

import (
	"fmt"

	"github.com/go-faster/errors"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

const DefaultTolerance = 1e-8

var (
	ErrorSyntax       = errors.New("invalid noise model syntax")
	ErrorShape        = errors.New("invalid noise model shape")
	ErrorIncompletion = errors.New("noise model violates completeness relation")
)

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

// Model is a list of Kraus operators.
type Model struct {
	Operators [][][]float64
	raw       []byte
}

// Raw returns the file contents the model was parsed from.
func (m *Model) Raw() []byte {
	return m.raw
}

// Dimension is the row count of the first operator, or 0 for an empty model.
func (m *Model) Dimension() int {
	if len(m.Operators) == 0 {
		return 0
	}
	return len(m.Operators[0])
}

// Parse checks the syntax: a JSON array of non-empty 2D numeric arrays.
func Parse(data []byte) (*Model, error) {
	var ops [][][]float64
	if err := jsonIter.Unmarshal(data, &ops); err != nil {
		return nil, errors.Wrapf(ErrorSyntax, "%s", err)
	}
	if len(ops) == 0 {
		return nil, errors.Wrap(ErrorSyntax, "no operators")
	}
	for i, op := range ops {
		if len(op) == 0 {
			return nil, errors.Wrapf(ErrorSyntax, "operator:%d is empty", i)
		}
		for j, row := range op {
			if len(row) == 0 {
				return nil, errors.Wrapf(ErrorSyntax, "operator:%d/row:%d is empty", i, j)
			}
		}
	}
	return &Model{Operators: ops, raw: data}, nil
}

// Validate checks that every operator is square with the same dimension and
// that the sum of E*E^T is the identity within tol. All problems are reported.
func Validate(m *Model, tol float64) error {
	var errs error
	dim := m.Dimension()
	if dim == 0 {
		return errors.Wrap(ErrorShape, "no operators")
	}
	for i, op := range m.Operators {
		if len(op) != dim {
			errs = multierr.Append(errs, errors.Wrapf(ErrorShape, "operator:%d has %d rows, want %d", i, len(op), dim))
			continue
		}
		for j, row := range op {
			if len(row) != dim {
				errs = multierr.Append(errs, errors.Wrapf(ErrorShape, "operator:%d/row:%d has %d columns, want %d",
					i, j, len(row), dim))
			}
		}
	}
	if errs != nil {
		return errs
	}

	sum := mat.NewDense(dim, dim, nil)
	for _, op := range m.Operators {
		e := mat.NewDense(dim, dim, flatten(op))
		var p mat.Dense
		p.Mul(e, e.T())
		sum.Add(sum, &p)
	}
	ones := make([]float64, dim)
	for i := range ones {
		ones[i] = 1
	}
	identity := mat.NewDiagDense(dim, ones)
	if !mat.EqualApprox(sum, identity, tol) {
		zap.L().Debug(fmt.Sprintf("completeness sum:\n%v", mat.Formatted(sum)))
		return errors.Wrapf(ErrorIncompletion, "dimension:%d", dim)
	}
	return nil
}

// ParseAndValidate reads and validates a noise model with the default tolerance.
func ParseAndValidate(data []byte) (*Model, error) {
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := Validate(m, DefaultTolerance); err != nil {
		return nil, err
	}
	return m, nil
}

func flatten(op [][]float64) []float64 {
	out := make([]float64, 0, len(op)*len(op))
	for _, row := range op {
		out = append(out, row...)
	}
	return out
}
