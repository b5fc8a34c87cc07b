package api

import (
	"context"
	"math"

	"github.com/qgrid-team/qgrid/gate"
	"github.com/qgrid-team/qgrid/ir"
	"github.com/qgrid-team/qgrid/session"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Request and response fields of the circuit service.
const (
	fieldSessionID  = "session_id"
	fieldCreatedAt  = "created_at"
	fieldEntry      = "entry"
	fieldWire       = "wire"
	fieldLayer      = "layer"
	fieldGateID     = "gate_id"
	fieldNoiseModel = "noise_model"
	fieldCircuitIR  = "circuit_ir"
	fieldPlotImage  = "plotImage"
	fieldData       = "data"
	fieldEntries    = "entries"
)

type circuitService struct {
	store *session.MemoryStore
}

type handlerFunc func(s *circuitService, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unary(method string, h handlerFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			req := &structpb.Struct{}
			if err := dec(req); err != nil {
				return nil, err
			}
			call := func(ctx context.Context, r interface{}) (interface{}, error) {
				res, err := h(srv.(*circuitService), ctx, r.(*structpb.Struct))
				if err != nil {
					return nil, toStatus(err)
				}
				return res, nil
			}
			if interceptor == nil {
				return call(ctx, req)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + CircuitServiceName + "/" + method,
			}
			return interceptor(ctx, req, info, call)
		},
	}
}

func circuitServiceDesc() *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: CircuitServiceName,
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			unary("GetCatalog", (*circuitService).getCatalog),
			unary("CreateSession", (*circuitService).createSession),
			unary("CloseSession", (*circuitService).closeSession),
			unary("PlaceGate", (*circuitService).placeGate),
			unary("MoveGate", (*circuitService).moveGate),
			unary("RemoveGate", (*circuitService).removeGate),
			unary("AddWire", (*circuitService).addWire),
			unary("RemoveWire", (*circuitService).removeWire),
			unary("AddLayer", (*circuitService).addLayer),
			unary("RemoveLayer", (*circuitService).removeLayer),
			unary("Reset", (*circuitService).reset),
			unary("Export", (*circuitService).export),
			unary("Simulate", (*circuitService).simulate),
			unary("Propagate", (*circuitService).propagate),
		},
	}
}

func (s *circuitService) getCatalog(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	entries := gate.Entries()
	list := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		list = append(list, map[string]interface{}{
			"name":        e.Name,
			"symbol":      e.Kind.String(),
			"error":       e.Error,
			"orientation": e.Orientation.String(),
		})
	}
	return structpb.NewStruct(map[string]interface{}{fieldEntries: list})
}

func (s *circuitService) createSession(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.store.Create()
	if err != nil {
		return nil, err
	}
	return circuitResponse(sess, map[string]*structpb.Value{
		fieldSessionID: structpb.NewStringValue(sess.ID),
		fieldCreatedAt: structpb.NewStringValue(sess.CreatedAt.String()),
	})
}

func (s *circuitService) closeSession(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := stringField(req, fieldSessionID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Close(id); err != nil {
		return nil, err
	}
	return &structpb.Struct{}, nil
}

func (s *circuitService) placeGate(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.session(req)
	if err != nil {
		return nil, err
	}
	entry, err := stringField(req, fieldEntry)
	if err != nil {
		return nil, err
	}
	wire, layer, err := position(req)
	if err != nil {
		return nil, err
	}
	g, err := sess.PlaceGate(entry, wire, layer)
	if err != nil {
		return nil, err
	}
	return circuitResponse(sess, map[string]*structpb.Value{
		fieldGateID: structpb.NewStringValue(g.ID),
	})
}

func (s *circuitService) moveGate(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.session(req)
	if err != nil {
		return nil, err
	}
	id, err := stringField(req, fieldGateID)
	if err != nil {
		return nil, err
	}
	wire, layer, err := position(req)
	if err != nil {
		return nil, err
	}
	if err := sess.MoveGate(id, wire, layer); err != nil {
		return nil, err
	}
	return circuitResponse(sess, nil)
}

func (s *circuitService) removeGate(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.session(req)
	if err != nil {
		return nil, err
	}
	id, err := stringField(req, fieldGateID)
	if err != nil {
		return nil, err
	}
	if err := sess.RemoveGate(id); err != nil {
		return nil, err
	}
	return circuitResponse(sess, nil)
}

func (s *circuitService) addWire(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.edit(req, (*session.Session).AddWire)
}

func (s *circuitService) removeWire(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.session(req)
	if err != nil {
		return nil, err
	}
	wire, err := intField(req, fieldWire)
	if err != nil {
		return nil, err
	}
	if err := sess.RemoveWire(wire); err != nil {
		return nil, err
	}
	return circuitResponse(sess, nil)
}

func (s *circuitService) addLayer(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.edit(req, (*session.Session).AddLayer)
}

func (s *circuitService) removeLayer(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.edit(req, (*session.Session).RemoveLayer)
}

func (s *circuitService) reset(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.edit(req, func(sess *session.Session) error {
		sess.Reset()
		return nil
	})
}

func (s *circuitService) export(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.edit(req, func(*session.Session) error { return nil })
}

func (s *circuitService) simulate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.session(req)
	if err != nil {
		return nil, err
	}
	var model []byte
	if v, ok := req.Fields[fieldNoiseModel]; ok {
		str, ok := v.Kind.(*structpb.Value_StringValue)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "%s must be a JSON string", fieldNoiseModel)
		}
		model = []byte(str.StringValue)
	}
	res, err := sess.Simulate(ctx, model)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]interface{}{fieldPlotImage: res.PlotImage})
}

func (s *circuitService) propagate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.session(req)
	if err != nil {
		return nil, err
	}
	doc, err := sess.Propagate(ctx)
	if err != nil {
		return nil, err
	}
	v, err := irValue(doc)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{fieldData: v}}, nil
}

func (s *circuitService) edit(req *structpb.Struct, f func(*session.Session) error) (*structpb.Struct, error) {
	sess, err := s.session(req)
	if err != nil {
		return nil, err
	}
	if err := f(sess); err != nil {
		return nil, err
	}
	return circuitResponse(sess, nil)
}

func (s *circuitService) session(req *structpb.Struct) (*session.Session, error) {
	id, err := stringField(req, fieldSessionID)
	if err != nil {
		return nil, err
	}
	return s.store.Get(id)
}

func circuitResponse(sess *session.Session, fields map[string]*structpb.Value) (*structpb.Struct, error) {
	v, err := irValue(sess.Export())
	if err != nil {
		return nil, err
	}
	res := &structpb.Struct{Fields: map[string]*structpb.Value{fieldCircuitIR: v}}
	for k, f := range fields {
		res.Fields[k] = f
	}
	return res, nil
}

func irValue(doc ir.Document) (*structpb.Value, error) {
	b, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	v := &structpb.Value{}
	if err := v.UnmarshalJSON(b); err != nil {
		return nil, err
	}
	return v, nil
}

func stringField(req *structpb.Struct, name string) (string, error) {
	v, ok := req.Fields[name]
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "missing field %s", name)
	}
	str, ok := v.Kind.(*structpb.Value_StringValue)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s must be a string", name)
	}
	return str.StringValue, nil
}

func intField(req *structpb.Struct, name string) (int, error) {
	v, ok := req.Fields[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "missing field %s", name)
	}
	num, ok := v.Kind.(*structpb.Value_NumberValue)
	if !ok || num.NumberValue != math.Trunc(num.NumberValue) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
	}
	return int(num.NumberValue), nil
}

func position(req *structpb.Struct) (int, int, error) {
	wire, err := intField(req, fieldWire)
	if err != nil {
		return 0, 0, err
	}
	layer, err := intField(req, fieldLayer)
	if err != nil {
		return 0, 0, err
	}
	return wire, layer, nil
}
