//go:build unit
// +build unit

package backend

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/qgrid-team/qgrid/core"
	"github.com/qgrid-team/qgrid/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type backendHandlerForTest func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

type fakeBackendForTest struct {
	simulate  backendHandlerForTest
	propagate backendHandlerForTest
}

func unaryForTest(pick func(*fakeBackendForTest) backendHandlerForTest) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		return pick(srv.(*fakeBackendForTest))(ctx, req)
	}
}

func startFakeBackend(t *testing.T, serviceName string, fake *fakeBackendForTest) grpc.DialOption {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Simulate", Handler: unaryForTest(func(f *fakeBackendForTest) backendHandlerForTest { return f.simulate })},
			{MethodName: "Propagate", Handler: unaryForTest(func(f *fakeBackendForTest) backendHandlerForTest { return f.propagate })},
		},
	}, fake)
	go s.Serve(lis)
	t.Cleanup(s.Stop)
	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

func gatewayConfForTest() *core.Conf {
	return &core.Conf{
		GRPCBackendHost:   "localhost",
		GRPCBackendPort:   "50061",
		BackendTimeoutSec: 1,
	}
}

func TestGatewaySimulate(t *testing.T) {
	var got *structpb.Struct
	fake := &fakeBackendForTest{
		simulate: func(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			got = req
			return structpb.NewStruct(map[string]interface{}{"plot_image": "abc"})
		},
	}
	g := NewGateway(startFakeBackend(t, "qgrid.v1.BackendService", fake))
	require.Nil(t, g.Setup(gatewayConfForTest()))
	defer g.TearDown()

	doc := ir.Document{{Gates: []ir.Op{ir.CX(0, 1)}, Type: "normal", NumRows: 2}}
	res, err := g.Simulate(context.Background(), doc, []byte(`[[[1]]]`))
	require.Nil(t, err)
	assert.Equal(t, "abc", res.PlotImage)

	b, err := got.Fields["circuit_ir"].MarshalJSON()
	require.Nil(t, err)
	parsed, err := ir.Parse(b)
	require.Nil(t, err)
	assert.Equal(t, doc.String(), parsed.String())
	assert.Equal(t, `[[[1]]]`, got.Fields["noise_model"].GetStringValue())
}

func TestGatewayPropagate(t *testing.T) {
	fake := &fakeBackendForTest{
		propagate: func(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			return &structpb.Struct{Fields: map[string]*structpb.Value{"data": req.Fields["circuit_ir"]}}, nil
		},
	}
	g := NewGateway(startFakeBackend(t, "qgrid.v1.BackendService", fake))
	require.Nil(t, g.Setup(gatewayConfForTest()))
	defer g.TearDown()

	doc := ir.Document{
		{Gates: []ir.Op{ir.Single("X", 0)}, Type: "error", NumRows: 2},
		{Gates: []ir.Op{ir.CX(1, 0)}, Type: "normal", NumRows: 2},
	}
	out, err := g.Propagate(context.Background(), doc)
	require.Nil(t, err)
	assert.Equal(t, doc.String(), out.String())
}

func TestGatewayErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler backendHandlerForTest
		wantErr error
	}{
		{
			name: "status error",
			handler: func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
				return nil, status.Error(codes.Internal, "simulator crashed")
			},
			wantErr: core.ErrorExternalServiceFailure,
		},
		{
			name: "error field",
			handler: func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
				return structpb.NewStruct(map[string]interface{}{"error": "bad circuit"})
			},
			wantErr: core.ErrorExternalServiceFailure,
		},
		{
			name: "empty response",
			handler: func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
				return &structpb.Struct{}, nil
			},
			wantErr: core.ErrorExternalServiceFailure,
		},
		{
			name: "deadline",
			handler: func(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
				select {
				case <-ctx.Done():
				case <-time.After(5 * time.Second):
				}
				return &structpb.Struct{}, nil
			},
			wantErr: core.ErrorExternalServiceTimeout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeBackendForTest{simulate: tt.handler, propagate: tt.handler}
			g := NewGateway(startFakeBackend(t, "qgrid.v1.BackendService", fake))
			require.Nil(t, g.Setup(gatewayConfForTest()))
			defer g.TearDown()

			_, err := g.Simulate(context.Background(), ir.Document{}, nil)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			_, err = g.Propagate(context.Background(), ir.Document{})
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestGatewayServiceNameFromSetting(t *testing.T) {
	core.ResetSetting()
	defer core.ResetSetting()
	core.RegisterSetting(GatewaySettingName, map[string]interface{}{"service_name": "lab.v2.Backend"})

	fake := &fakeBackendForTest{
		simulate: func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
			return structpb.NewStruct(map[string]interface{}{"plot_image": "lab"})
		},
	}
	g := NewGateway(startFakeBackend(t, "lab.v2.Backend", fake))
	require.Nil(t, g.Setup(gatewayConfForTest()))
	defer g.TearDown()

	res, err := g.Simulate(context.Background(), ir.Document{}, nil)
	require.Nil(t, err)
	assert.Equal(t, "lab", res.PlotImage)
	assert.Equal(t, 16, g.setting.MaxRecvMsgSizeMB)
}

func TestGatewayNotSetUp(t *testing.T) {
	_, err := NewGateway().Propagate(context.Background(), ir.Document{})
	assert.True(t, errors.Is(err, core.ErrorExternalServiceFailure))
	assert.NotNil(t, NewGateway().Setup(&core.Conf{GRPCBackendHost: "bad^host", GRPCBackendPort: "1", BackendTimeoutSec: 1}))
}
