package ir

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/qgrid-team/qgrid/grid"
)

func (d Document) MarshalJSON() ([]byte, error) {
	e := &jx.Encoder{}
	d.encode(e)
	return e.Bytes(), nil
}

func (d Document) encode(e *jx.Encoder) {
	e.ArrStart()
	for _, l := range d {
		e.ObjStart()
		e.FieldStart("gates")
		e.ArrStart()
		for _, op := range l.Gates {
			e.ArrStart()
			e.Str(op.Symbol)
			for _, w := range op.Wires {
				e.Int(w)
			}
			e.ArrEnd()
		}
		e.ArrEnd()
		e.FieldStart("type")
		e.Str(string(l.Type))
		e.FieldStart("numRows")
		e.Int(l.NumRows)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func (d *Document) UnmarshalJSON(data []byte) error {
	doc, err := Parse(data)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

// Parse reads the JSON form of a document. The layer type is kept verbatim and
// checked by Decode.
func Parse(data []byte) (Document, error) {
	doc := Document{}
	dec := jx.DecodeBytes(data)
	if dec.Next() != jx.Array {
		return nil, malformed(-1, "document must be an array")
	}
	idx := 0
	err := dec.Arr(func(d *jx.Decoder) error {
		l, err := parseLayer(d, idx)
		if err != nil {
			return err
		}
		doc = append(doc, l)
		idx++
		return nil
	})
	if err != nil {
		var me *MalformedIRError
		if errors.As(err, &me) {
			return nil, me
		}
		return nil, malformed(idx, "%s", err)
	}
	return doc, nil
}

func parseLayer(d *jx.Decoder, idx int) (Layer, error) {
	l := Layer{Gates: []Op{}}
	if d.Next() != jx.Object {
		return l, malformed(idx, "layer must be an object")
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "gates":
			return d.Arr(func(d *jx.Decoder) error {
				op, err := parseOp(d, idx)
				if err != nil {
					return err
				}
				l.Gates = append(l.Gates, op)
				return nil
			})
		case "type":
			s, err := d.Str()
			if err != nil {
				return malformed(idx, "type must be a string")
			}
			l.Type = grid.LayerType(s)
			return nil
		case "numRows":
			n, err := d.Int()
			if err != nil {
				return malformed(idx, "numRows must be an integer")
			}
			l.NumRows = n
			return nil
		default:
			return d.Skip()
		}
	})
	return l, err
}

func parseOp(d *jx.Decoder, idx int) (Op, error) {
	op := Op{}
	if d.Next() != jx.Array {
		return op, malformed(idx, "gate op must be an array")
	}
	pos := 0
	err := d.Arr(func(d *jx.Decoder) error {
		defer func() { pos++ }()
		if pos == 0 {
			s, err := d.Str()
			if err != nil {
				return malformed(idx, "gate op must start with a symbol")
			}
			op.Symbol = s
			return nil
		}
		w, err := d.Int()
		if err != nil {
			return malformed(idx, "wire index must be an integer")
		}
		op.Wires = append(op.Wires, w)
		return nil
	})
	return op, err
}
