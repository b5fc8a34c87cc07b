package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/qgrid-team/qgrid/common"
	"github.com/qgrid-team/qgrid/core"
	"github.com/qgrid-team/qgrid/ir"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const GatewaySettingName = "gateway"

type GatewaySetting struct {
	ServiceName      string `toml:"service_name"`
	MaxRecvMsgSizeMB int    `toml:"max_recv_msg_size_mb"`
}

func DefaultGatewaySetting() GatewaySetting {
	return GatewaySetting{
		ServiceName:      "qgrid.v1.BackendService",
		MaxRecvMsgSizeMB: 16,
	}
}

// Gateway forwards simulate and propagate calls to a remote BackendService.
// One Gateway may serve as both Simulator and Propagator; the connection is
// shared and set up once.
type Gateway struct {
	mu      sync.Mutex
	conn    *grpc.ClientConn
	setting GatewaySetting
	timeout time.Duration
	opts    []grpc.DialOption
}

// NewGateway returns a Gateway. opts are appended to the default dial options.
func NewGateway(opts ...grpc.DialOption) *Gateway {
	return &Gateway{opts: opts}
}

func (g *Gateway) Setup(conf *core.Conf) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn != nil {
		return nil
	}
	g.setting = DefaultGatewaySetting()
	if err := core.DecodeComponentSetting(GatewaySettingName, &g.setting); err != nil {
		zap.L().Debug(fmt.Sprintf("use default gateway setting/reason:%s", err))
	}
	g.timeout = core.BackendTimeout(conf)
	if g.timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive, got %s", g.timeout)
	}
	address, err := common.ValidAddress(conf.GRPCBackendHost, conf.GRPCBackendPort)
	if err != nil {
		return err
	}
	opts := append([]grpc.DialOption{
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(g.setting.MaxRecvMsgSizeMB << 20)),
		grpc.WithUserAgent(core.UserAgent()),
	}, g.opts...)
	conn, err := common.GRPCConnection(address, opts...)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to create gateway connection/address:%s/reason:%s", address, err))
		return err
	}
	g.conn = conn
	zap.L().Info(fmt.Sprintf("gateway backend is %s/%s", address, g.setting.ServiceName))
	return nil
}

func (g *Gateway) TearDown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn == nil {
		return
	}
	if err := g.conn.Close(); err != nil {
		zap.L().Error(fmt.Sprintf("failed to close gateway connection/reason:%s", err))
	}
	g.conn = nil
}

func (g *Gateway) Simulate(ctx context.Context, doc ir.Document, noiseModel []byte) (*core.SimulationResult, error) {
	ctx, span := startSpan(ctx, "gateway.Simulate", len(doc))
	defer span.End()

	res, err := g.simulate(ctx, doc, noiseModel)
	observeBackendCall("gateway", "simulate", err)
	if err != nil {
		recordSpanError(span, err)
		zap.L().Error(fmt.Sprintf("failed to simulate via gateway/reason:%s", err))
		return nil, err
	}
	return res, nil
}

func (g *Gateway) simulate(ctx context.Context, doc ir.Document, noiseModel []byte) (*core.SimulationResult, error) {
	req, err := circuitRequest(doc)
	if err != nil {
		return nil, err
	}
	if len(noiseModel) > 0 {
		req.Fields["noise_model"] = structpb.NewStringValue(string(noiseModel))
	}
	resp, err := g.invoke(ctx, "Simulate", req)
	if err != nil {
		return nil, err
	}
	img := resp.GetFields()["plot_image"].GetStringValue()
	if img == "" {
		return nil, errors.Wrap(core.ErrorExternalServiceFailure, "gateway returned no plot image")
	}
	return &core.SimulationResult{PlotImage: img}, nil
}

func (g *Gateway) Propagate(ctx context.Context, doc ir.Document) (ir.Document, error) {
	ctx, span := startSpan(ctx, "gateway.Propagate", len(doc))
	defer span.End()

	out, err := g.propagate(ctx, doc)
	observeBackendCall("gateway", "propagate", err)
	if err != nil {
		recordSpanError(span, err)
		zap.L().Error(fmt.Sprintf("failed to propagate via gateway/reason:%s", err))
		return nil, err
	}
	return out, nil
}

func (g *Gateway) propagate(ctx context.Context, doc ir.Document) (ir.Document, error) {
	req, err := circuitRequest(doc)
	if err != nil {
		return nil, err
	}
	resp, err := g.invoke(ctx, "Propagate", req)
	if err != nil {
		return nil, err
	}
	data, ok := resp.GetFields()["data"]
	if !ok {
		return nil, errors.Wrap(core.ErrorExternalServiceFailure, "gateway returned no data")
	}
	b, err := data.MarshalJSON()
	if err != nil {
		return nil, errors.Wrapf(core.ErrorExternalServiceFailure, "unreadable gateway data/reason:%s", err)
	}
	out, err := ir.Parse(b)
	if err != nil {
		return nil, errors.Wrapf(core.ErrorExternalServiceFailure, "unreadable gateway data/reason:%s", err)
	}
	return out, nil
}

func (g *Gateway) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	g.mu.Lock()
	conn := g.conn
	g.mu.Unlock()
	if conn == nil {
		return nil, errors.Wrap(core.ErrorExternalServiceFailure, "gateway is not set up")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	start := time.Now()
	resp := &structpb.Struct{}
	err := conn.Invoke(ctx, fmt.Sprintf("/%s/%s", g.setting.ServiceName, method), req, resp)
	backendCallDuration.WithLabelValues("gateway", method).Observe(time.Since(start).Seconds())
	if err != nil {
		if status.Code(err) == codes.DeadlineExceeded {
			return nil, errors.Wrapf(core.ErrorExternalServiceTimeout, "%s/reason:%s", method, err)
		}
		return nil, core.ExternalError(ctx, err, method)
	}
	if msg := resp.GetFields()["error"].GetStringValue(); msg != "" {
		return nil, errors.Wrapf(core.ErrorExternalServiceFailure, "%s/reason:%s", method, msg)
	}
	return resp, nil
}

func circuitRequest(doc ir.Document) (*structpb.Struct, error) {
	b, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	v := &structpb.Value{}
	if err := v.UnmarshalJSON(b); err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{"circuit_ir": v}}, nil
}
