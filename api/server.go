package api

import (
	"context"
	"fmt"
	"net"

	"github.com/qgrid-team/qgrid/core"
	"github.com/qgrid-team/qgrid/session"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const (
	CircuitServerName  = "circuit_api"
	CircuitServiceName = "qgrid.v1.CircuitService"

	defaultHost = "0.0.0.0"
	defaultPort = "50060"
)

// CircuitServer exposes the editing sessions over gRPC.
type CircuitServer struct {
	Host string `toml:"host"`
	Port string `toml:"port"`

	listener net.Listener
	server   *grpc.Server
	store    *session.MemoryStore
}

func (s *CircuitServer) GetEmptyParams() interface{} {
	return s
}

func (s *CircuitServer) SetParams(p interface{}) error {
	if p == nil {
		zap.L().Debug("no params for circuit server")
		return nil
	}
	mp, ok := p.(map[string]interface{})
	if !ok {
		err := fmt.Errorf("failed to set params for circuit server/params: %v", p)
		zap.L().Error(err.Error())
		return err
	}
	if host, ok := mp["host"].(string); ok {
		s.Host = host
	}
	if port, ok := mp["port"].(string); ok {
		s.Port = port
	}
	return nil
}

func (s *CircuitServer) Setup() error {
	if s.store == nil {
		sc := core.GetSystemComponents()
		if sc == nil {
			return fmt.Errorf("system components are not set up")
		}
		if err := sc.Invoke(func(m *session.MemoryStore) { s.store = m }); err != nil {
			return fmt.Errorf("failed to get session store/reason:%s", err)
		}
	}
	if s.listener == nil {
		host, port := s.Host, s.Port
		if host == "" {
			host = defaultHost
		}
		if port == "" {
			port = defaultPort
		}
		lis, err := net.Listen("tcp", net.JoinHostPort(host, port))
		if err != nil {
			zap.L().Error(fmt.Sprintf("failed to listen/reason:%s", err))
			return err
		}
		s.listener = lis
	}
	s.server = grpc.NewServer(grpc.ChainUnaryInterceptor(observeRequest))
	s.server.RegisterService(circuitServiceDesc(), &circuitService{store: s.store})
	zap.L().Info(fmt.Sprintf("[CircuitServer] listening on %s", s.listener.Addr()))
	return nil
}

func (s *CircuitServer) Serve() error {
	return s.server.Serve(s.listener)
}

func (s *CircuitServer) Shutdown() {
	zap.L().Info("[CircuitServer] shutting down")
	s.server.GracefulStop()
}

// observeRequest logs and counts every call with its resulting status code.
func observeRequest(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	res, err := handler(ctx, req)
	code := codeOf(err)
	requestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
	if err != nil {
		zap.L().Info(fmt.Sprintf("request failed/method:%s/code:%s/reason:%s", info.FullMethod, code, err))
	} else {
		zap.L().Debug(fmt.Sprintf("request done/method:%s", info.FullMethod))
	}
	return res, err
}
